/*
Package tracelog implements an in-process event tracing library for recording
high-frequency, timestamped events from concurrent goroutines with minimal
overhead on the producer side. Instrumentation points embedded in host code
emit compact, fixed-size event records into a shared buffer; an out-of-band
consumer later drains that buffer (see the traceexport subpackage) and renders
it in the Chrome Trace Event JSON format for offline analysis.

# Architecture

The core is four tightly coupled subsystems:

  - [ChunkLock], a tri-state spinlock coordinating a producer ("slave")
    against an evictor ("master").
  - [TraceBuffer], with two concrete policies ([NewFixedBuffer] and
    [NewRingBuffer]) that hand out fixed-size [TraceChunk] values to tenants.
  - [CategoryRegistry], an append-only, bounded table mapping category-group
    strings to an atomic enable/disable status, with glob matching.
  - [TraceLog], which binds the above together: lifecycle, category
    filtering, chunk replacement under contention, goroutine registration,
    and stop-callback dispatch.

# Thread Safety

[TraceLog.LogEvent] is safe for concurrent use by any number of goroutines
and normally completes with one atomic load, one CAS on a per-goroutine
lock, and one event append, never blocking on the log's global mutex.
Lifecycle methods ([TraceLog.Start], [TraceLog.Stop], [TraceLog.RegisterGoroutine],
[TraceLog.DeregisterGoroutine]) take that mutex and are safe for concurrent use
with each other and with LogEvent. Start, Stop, and RegisterGoroutine accept a
context.Context that governs only the wait to acquire the mutex; once held,
each runs to completion regardless of the context's state.

# Execution Model

There is no background goroutine driving this package; all work happens
synchronously on the calling goroutine, at the call sites of LogEvent and the
lifecycle methods.

# Usage

	log := tracelog.New()
	ctx := context.Background()
	if err := log.Start(ctx, tracelog.TraceConfig{BufferMode: tracelog.BufferModeFixed, BufferSize: 1 << 20}); err != nil {
		...
	}
	defer log.Close()

	tenant, err := log.RegisterGoroutine(ctx, "worker-0")
	...
	log.LogEvent(tenant, myTracepoint, tracelog.Int64Arg(1), tracelog.NoneArg(), tracelog.Now())

# Error Types

The errors this package constructs for lifecycle and configuration methods
are [InvalidArgumentError] and [IllegalStateError]; the file sink in
traceexport returns [IOError]. Start, Stop, and RegisterGoroutine also return
ctx.Err() when their context ends while waiting for the lock, and Stop
returns a failing stop callback's error wrapped with [WrapError]. The fast path,
[TraceLog.LogEvent], never returns an error; it silently drops events it
cannot record.
*/
package tracelog
