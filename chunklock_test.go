package tracelog

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkLock_SlaveLockUnlock(t *testing.T) {
	var l ChunkLock
	assert.Equal(t, lockUnlocked, l.loadState())

	l.SlaveLock()
	assert.Equal(t, lockSlave, l.loadState())

	l.SlaveUnlock()
	assert.Equal(t, lockUnlocked, l.loadState())
}

func TestChunkLock_MasterLockUnlock(t *testing.T) {
	var l ChunkLock
	l.MasterLock()
	assert.Equal(t, lockMaster, l.loadState())
	l.MasterUnlock()
	assert.Equal(t, lockUnlocked, l.loadState())
}

func TestChunkLock_TrySlaveLock_FailsAgainstMaster(t *testing.T) {
	var l ChunkLock
	l.MasterLock()
	assert.False(t, l.TrySlaveLock())
	l.MasterUnlock()
	assert.True(t, l.TrySlaveLock())
}

func TestChunkLock_TrySlaveLock_SucceedsWhenUnlocked(t *testing.T) {
	var l ChunkLock
	require.True(t, l.TrySlaveLock())
	assert.Equal(t, lockSlave, l.loadState())
	l.SlaveUnlock()
}

// TestChunkLock_MasterWaitsForSlave exercises the only legal contention
// shape: a master blocked behind a slave that eventually releases.
func TestChunkLock_MasterWaitsForSlave(t *testing.T) {
	var l ChunkLock
	l.SlaveLock()

	masterAcquired := make(chan struct{})
	go func() {
		l.MasterLock()
		close(masterAcquired)
	}()

	select {
	case <-masterAcquired:
		t.Fatal("master acquired the lock while a slave held it")
	default:
	}

	l.SlaveUnlock()
	<-masterAcquired
	assert.Equal(t, lockMaster, l.loadState())
	l.MasterUnlock()
}

func TestChunkLock_ConcurrentSlaveLockSerializes(t *testing.T) {
	var l ChunkLock
	var counter int
	var wg sync.WaitGroup
	const n = 200
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			l.SlaveLock()
			counter++
			l.SlaveUnlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, n, counter)
}
