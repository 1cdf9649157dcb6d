package tracelog

const (
	chunkPageSize   = 4096
	chunkHeaderSize = 64
	// traceEventSize tracks the layout computed in event.go: one pointer,
	// two 16-byte argument cells, an int64, and a uint64 -- 56 bytes, with
	// no trailing padding since every field is 8-byte aligned.
	traceEventSize = 56

	// ChunkCapacity is the number of events one TraceChunk holds: one 4KiB
	// page minus a conservative chunk header allowance, divided by the
	// per-event footprint.
	ChunkCapacity = (chunkPageSize - chunkHeaderSize) / traceEventSize
)

// TraceChunk is a fixed-capacity array of events, owned by exactly one
// producer tenant at a time (enforced by the tenant's ChunkLock, not by
// anything internal to TraceChunk itself).
type TraceChunk struct {
	NextFree    uint16
	GoroutineID uint64
	Events      [ChunkCapacity]TraceEvent
}

// IsFull reports whether the chunk has no remaining free slots.
func (c *TraceChunk) IsFull() bool {
	return c.NextFree >= ChunkCapacity
}

// AddEvent appends ev into the next free slot and advances NextFree. It is
// a programmer error to call AddEvent on a full chunk; callers on the fast
// path always check IsFull first.
func (c *TraceChunk) AddEvent(ev TraceEvent) {
	if c.IsFull() {
		panic("tracelog: AddEvent called on a full chunk")
	}
	c.Events[c.NextFree] = ev
	c.NextFree++
}

// Reset zeroes the chunk's event count and stamps it with gid, making it
// ready to be loaned to a new tenant. Chunks are trivially resettable:
// there is nothing else to tear down.
func (c *TraceChunk) Reset(gid uint64) {
	c.NextFree = 0
	c.GoroutineID = gid
}
