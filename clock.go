package tracelog

import "time"

// processStart anchors the monotonic clock LogEvent timestamps are
// measured from. The spec only requires timestamps to be monotonic
// nanoseconds "since an undefined epoch" within one process; anchoring to
// process start keeps the numbers small and keeps time.Since doing the
// monotonic-clock bookkeeping for us.
var processStart = time.Now()

// Now returns the current monotonic timestamp, in the same units and
// epoch TraceEvent.Time uses.
func Now() int64 {
	return int64(time.Since(processStart))
}
