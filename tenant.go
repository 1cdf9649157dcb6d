package tracelog

// ChunkTenant is the holder of a current chunk plus the lock arbitrating
// access to it. There are two species: the single, process-wide shared
// tenant used by goroutines that never call RegisterGoroutine, and a
// per-goroutine tenant returned by RegisterGoroutine.
//
// Go has no thread-local storage, so unlike the original design a
// per-goroutine ChunkTenant is not implicitly found via the calling
// goroutine's identity on every LogEvent call. Instead RegisterGoroutine
// returns a *ChunkTenant handle once, which the caller is expected to hold
// (e.g. in a worker struct field or a context value) and pass back into
// LogEvent explicitly. The TraceLog still tracks every registered tenant
// by goroutine id internally, purely so its evictor can enumerate and null
// them during Stop.
type ChunkTenant struct {
	Lock        ChunkLock
	Chunk       *TraceChunk
	Initialised bool

	goroutineID uint64
	name        string
}

// GoroutineID returns the goroutine id this tenant was registered under,
// or 0 for the shared tenant.
func (t *ChunkTenant) GoroutineID() uint64 { return t.goroutineID }
