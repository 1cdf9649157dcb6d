package tracelog

import (
	"sync/atomic"
	"unsafe"
)

// fixedBuffer is the "stop when full" TraceBuffer policy: it hands out
// capacity chunks total, ever, and never reuses a returned one. Grounded on
// original_source's FixedTraceBuffer.
type fixedBuffer struct {
	chunks   []TraceChunk
	capacity uint64
	issued   atomic.Uint64
	loaned   atomic.Int64
	total    atomic.Uint64
}

// NewFixedBuffer constructs a fixed-policy TraceBuffer sized to hold
// capacity chunks.
func NewFixedBuffer(capacity int) TraceBuffer {
	return &fixedBuffer{
		chunks:   make([]TraceChunk, capacity),
		capacity: uint64(capacity),
	}
}

func (b *fixedBuffer) GetChunk(gid uint64) *TraceChunk {
	idx := b.issued.Add(1) - 1
	if idx >= b.capacity {
		return nil
	}
	c := &b.chunks[idx]
	c.Reset(gid)
	b.loaned.Add(1)
	b.total.Add(1)
	return c
}

func (b *fixedBuffer) ReturnChunk(c *TraceChunk) {
	b.loaned.Add(-1)
}

func (b *fixedBuffer) IsFull() bool {
	return b.issued.Load() >= b.capacity
}

func (b *fixedBuffer) ForEachChunk(fn func(*TraceChunk)) {
	n := b.issued.Load()
	if n > b.capacity {
		n = b.capacity
	}
	for i := uint64(0); i < n; i++ {
		fn(&b.chunks[i])
	}
}

func (b *fixedBuffer) Stats(generation uint64, cb func(key string, value any)) {
	cb("buffer_name", "fixed")
	cb("buffer_is_full", b.IsFull())
	cb("buffer_chunk_count", b.capacity)
	cb("buffer_total_loaned", b.total.Load())
	cb("buffer_loaned_chunks", b.loaned.Load())
	cb("buffer_size", b.capacity*uint64(unsafe.Sizeof(TraceChunk{})))
	cb("buffer_generation", generation)
}
