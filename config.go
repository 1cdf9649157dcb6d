package tracelog

import (
	"strconv"
	"strings"
)

// TraceConfig is the runtime configuration for one tracing session: buffer
// policy/size, category filtering, and an optional save-on-stop output
// path. It round-trips through String/ParseTraceConfig (the stop callback
// itself does not survive the round trip, since a function value has no
// string representation).
type TraceConfig struct {
	BufferMode         BufferMode
	BufferSize         int
	EnabledCategories  []string
	DisabledCategories []string
	// SaveOnStop is an output path template. It is parsed and round-tripped,
	// and a non-empty value lets a shutdown Stop still invoke the stop
	// callback; this package does not install a file sink from it, so no
	// file is written unless a stop callback (such as traceexport.FileSink)
	// was installed via WithStopCallback.
	SaveOnStop string

	// BufferFactory, when set, replaces BufferMode: it is called with
	// BufferSize to build the buffer. It is set directly on a TraceConfig
	// in code, never via a config string -- this is what BufferModeCustom
	// denotes.
	BufferFactory func(size int) TraceBuffer
}

// String renders cfg back into the semicolon-separated key:value format
// ParseTraceConfig accepts.
func (cfg TraceConfig) String() string {
	var b strings.Builder
	b.WriteString("buffer-mode:")
	b.WriteString(cfg.BufferMode.String())
	b.WriteString(";buffer-size:")
	b.WriteString(strconv.Itoa(cfg.BufferSize))
	if len(cfg.EnabledCategories) > 0 {
		b.WriteString(";enabled-categories:")
		b.WriteString(strings.Join(cfg.EnabledCategories, ","))
	}
	if len(cfg.DisabledCategories) > 0 {
		b.WriteString(";disabled-categories:")
		b.WriteString(strings.Join(cfg.DisabledCategories, ","))
	}
	if cfg.SaveOnStop != "" {
		b.WriteString(";save-on-stop:")
		b.WriteString(cfg.SaveOnStop)
	}
	return b.String()
}

// ParseTraceConfig parses the semicolon-separated key:value configuration
// string format (shared by the PHOSPHOR-style environment bootstrap and
// any runtime caller), per the external-interfaces configuration-string
// table: buffer-mode, buffer-size, save-on-stop, enabled-categories,
// disabled-categories.
func ParseTraceConfig(s string) (TraceConfig, error) {
	var cfg TraceConfig
	cfg.BufferMode = BufferModeFixed
	haveMode := false
	haveSize := false

	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			return TraceConfig{}, &InvalidArgumentError{Message: "malformed key:value pair " + quote(pair)}
		}
		switch key {
		case "buffer-mode":
			mode, err := parseBufferMode(value)
			if err != nil {
				return TraceConfig{}, err
			}
			cfg.BufferMode = mode
			haveMode = true
		case "buffer-size":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return TraceConfig{}, &InvalidArgumentError{Message: "buffer-size must be a positive integer, got " + quote(value)}
			}
			cfg.BufferSize = n
			haveSize = true
		case "save-on-stop":
			if value == "" {
				return TraceConfig{}, &InvalidArgumentError{Message: "save-on-stop requires a non-empty path template"}
			}
			cfg.SaveOnStop = value
		case "enabled-categories":
			cfg.EnabledCategories = splitNonEmpty(value)
		case "disabled-categories":
			cfg.DisabledCategories = splitNonEmpty(value)
		default:
			return TraceConfig{}, &InvalidArgumentError{Message: "unknown config key " + quote(key)}
		}
	}

	if !haveMode {
		return TraceConfig{}, &InvalidArgumentError{Message: "buffer-mode is required"}
	}
	if !haveSize {
		return TraceConfig{}, &InvalidArgumentError{Message: "buffer-size is required"}
	}
	return cfg, nil
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
