package tracelog

import (
	"context"
	"os"
)

// TracingStartEnvVar is the environment variable BootstrapFromEnvironment
// reads. It carries the same semicolon-separated key:value format as
// ParseTraceConfig.
const TracingStartEnvVar = "GOTRACE_TRACING_START"

// BootstrapFromEnvironment starts t using the config string found in
// GOTRACE_TRACING_START, if that variable is set and non-empty. It is a
// no-op (returning false, nil) if the variable is unset or empty. Go has
// no implicit static-initialization hook equivalent to the original's
// process-startup behavior, so this is opt-in: call it explicitly from
// main or an init function.
func BootstrapFromEnvironment(ctx context.Context, t *TraceLog) (started bool, err error) {
	v, ok := os.LookupEnv(TracingStartEnvVar)
	if !ok || v == "" {
		return false, nil
	}
	cfg, err := ParseTraceConfig(v)
	if err != nil {
		return false, err
	}
	if err := t.Start(ctx, cfg); err != nil {
		return false, err
	}
	return true, nil
}
