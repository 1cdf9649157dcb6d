// Command gotrace-dump is a runnable demonstration of the tracelog library:
// it starts a session (from a -config flag, or GOTRACE_TRACING_START if
// -config is omitted), runs a synthetic workload across a few goroutines for
// -duration, stops tracing, and writes the exported Chrome Trace Event JSON
// to -o (stdout if unset).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	gotrace "github.com/joeycumines/gotrace"
	"github.com/joeycumines/gotrace/traceexport"
)

var (
	workerTP = gotrace.NewTracepoint("demo", "do_work", gotrace.Complete,
		[2]string{"worker", "iteration"}, [2]gotrace.ArgType{gotrace.ArgInt64, gotrace.ArgInt64})
	tickTP = gotrace.NewTracepoint("demo", "tick", gotrace.Instant,
		[2]string{"", ""}, [2]gotrace.ArgType{gotrace.ArgNone, gotrace.ArgNone})
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "gotrace-dump:", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "tracelog config string (buffer-mode:...;buffer-size:...); defaults to "+gotrace.TracingStartEnvVar)
	outFlag := flag.String("o", "", "output file path (defaults to stdout)")
	workers := flag.Int("workers", 4, "number of synthetic worker goroutines")
	duration := flag.Duration("duration", 500*time.Millisecond, "how long to run the synthetic workload")
	flag.Parse()

	ctx := context.Background()
	t := gotrace.New(gotrace.WithLogger(gotrace.NewZerologLogger(os.Stderr)))

	if *configFlag != "" {
		cfg, err := gotrace.ParseTraceConfig(*configFlag)
		if err != nil {
			return fmt.Errorf("parsing -config: %w", err)
		}
		if err := t.Start(ctx, cfg); err != nil {
			return fmt.Errorf("starting tracelog: %w", err)
		}
	} else {
		started, err := gotrace.BootstrapFromEnvironment(ctx, t)
		if err != nil {
			return fmt.Errorf("bootstrapping from %s: %w", gotrace.TracingStartEnvVar, err)
		}
		if !started {
			if err := t.Start(ctx, gotrace.TraceConfig{
				BufferMode: gotrace.BufferModeRing,
				BufferSize: 1 << 20,
			}); err != nil {
				return fmt.Errorf("starting tracelog with default config: %w", err)
			}
		}
	}

	runWorkload(ctx, t, *workers, *duration)

	if err := t.Stop(ctx, false); err != nil {
		return fmt.Errorf("stopping tracelog: %w", err)
	}

	out := os.Stdout
	if *outFlag != "" {
		f, err := os.Create(*outFlag)
		if err != nil {
			return fmt.Errorf("creating %s: %w", *outFlag, err)
		}
		defer f.Close()
		out = f
	}
	if err := traceexport.Write(out, t); err != nil {
		return fmt.Errorf("writing trace export: %w", err)
	}
	return nil
}

func runWorkload(ctx context.Context, t *gotrace.TraceLog, workers int, duration time.Duration) {
	var wg sync.WaitGroup
	deadline := time.Now().Add(duration)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			tenant, err := t.RegisterGoroutine(ctx, fmt.Sprintf("worker-%d", w))
			if err != nil {
				log.Printf("worker %d: register: %v", w, err)
				return
			}
			defer func() {
				if err := t.DeregisterGoroutine(tenant); err != nil {
					log.Printf("worker %d: deregister: %v", w, err)
				}
			}()

			for i := int64(0); time.Now().Before(deadline); i++ {
				func() {
					defer gotrace.LogSyncSpan(t, tenant, workerTP, gotrace.Int64Arg(int64(w)), gotrace.Int64Arg(i))()
					time.Sleep(time.Millisecond)
				}()
				if i%10 == 0 {
					t.LogEvent(tenant, tickTP, gotrace.NoneArg(), gotrace.NoneArg(), gotrace.Now())
				}
			}
		}(w)
	}
	wg.Wait()
}
