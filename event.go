package tracelog

// TraceEvent is one recorded occurrence of a tracepoint: up to two argument
// values, a monotonic timestamp, and (for Complete events only) a duration.
// It references its TracepointInfo by pointer rather than copying category/
// name/type into every event, keeping the record small enough that many of
// them pack into one cache-friendly TraceChunk.
type TraceEvent struct {
	TPI      *TracepointInfo
	Args     [2]TraceArgument
	Time     int64  // monotonic nanoseconds since an undefined epoch
	Duration uint64 // nanoseconds; zero except for Complete events
}
