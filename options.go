package tracelog

// StopToken proves the holder is calling from inside TraceLog.Stop, with
// the global mutex already held. It is only ever handed to a
// StopCallbackFunc; its fields are unexported so it cannot be constructed
// outside this package.
type StopToken struct{ locked bool }

// StopCallbackFunc is invoked once at the end of Stop, while the global
// mutex is held. It must not itself attempt to re-acquire that mutex
// through anything other than the token-gated methods.
type StopCallbackFunc func(log *TraceLog, token StopToken) error

// Option configures a TraceLog at construction time, following the
// functional-options shape grounded on the teacher's eventloop/options.go
// (LoopOption / loopOptionImpl / resolveLoopOptions), generalized here to
// optionFunc / resolveOptions.
type Option interface {
	applyTraceLog(*traceLogConfig)
}

type traceLogConfig struct {
	defaultConfig TraceConfig
	haveDefault   bool
	logger        diagLogger
	stopCallback  StopCallbackFunc
}

type optionFunc func(*traceLogConfig)

func (f optionFunc) applyTraceLog(c *traceLogConfig) { f(c) }

// WithDefaultConfig sets the TraceConfig used by a subsequent Start() call
// that passes a zero TraceConfig.
func WithDefaultConfig(cfg TraceConfig) Option {
	return optionFunc(func(c *traceLogConfig) {
		c.defaultConfig = cfg
		c.haveDefault = true
	})
}

// WithBufferMode is shorthand for WithDefaultConfig, overriding only the
// buffer mode of whatever default config has been configured so far.
func WithBufferMode(mode BufferMode) Option {
	return optionFunc(func(c *traceLogConfig) {
		c.defaultConfig.BufferMode = mode
		c.haveDefault = true
	})
}

// WithBufferSize is shorthand for WithDefaultConfig, overriding only the
// buffer size.
func WithBufferSize(size int) Option {
	return optionFunc(func(c *traceLogConfig) {
		c.defaultConfig.BufferSize = size
		c.haveDefault = true
	})
}

// WithCategories sets the enabled/disabled glob pattern lists of the
// default config.
func WithCategories(enabled, disabled []string) Option {
	return optionFunc(func(c *traceLogConfig) {
		c.defaultConfig.EnabledCategories = enabled
		c.defaultConfig.DisabledCategories = disabled
		c.haveDefault = true
	})
}

// WithStopCallback installs the callback TraceLog.Stop invokes once it has
// evicted every registered tenant.
func WithStopCallback(cb StopCallbackFunc) Option {
	return optionFunc(func(c *traceLogConfig) {
		c.stopCallback = cb
	})
}

// WithLogger installs a diagnostics logger. By default a no-op logger is
// used, so embedding applications never see output they didn't ask for.
func WithLogger(l diagLogger) Option {
	return optionFunc(func(c *traceLogConfig) {
		c.logger = l
	})
}

func resolveOptions(opts []Option) traceLogConfig {
	var c traceLogConfig
	c.logger = noopLogger{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyTraceLog(&c)
	}
	return c
}
