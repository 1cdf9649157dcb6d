package tracelog

// LogSyncSpan starts timing a Complete event and returns a closer to be
// invoked via defer at the end of the scope. This is the closest
// idiomatic Go equivalent of the original's macro-driven scoped tracer:
// Go has no macros, so the RAII-style "measure this block" pattern becomes
// an explicit deferred closure instead.
//
//	defer tracelog.LogSyncSpan(log, tenant, tpi, argA, argB)()
func LogSyncSpan(log *TraceLog, tenant *ChunkTenant, tpi *TracepointInfo, argA, argB TraceArgument) func() {
	start := Now()
	return func() {
		log.LogCompleteEvent(tenant, tpi, start, uint64(Now()-start), argA, argB)
	}
}
