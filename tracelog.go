package tracelog

import (
	"context"
	"sync"
	"sync/atomic"
	"unsafe"
)

// TraceLog is the top-level object binding together lifecycle, category
// filtering, chunk replacement, goroutine registration, and stop-callback
// dispatch. It is intended to be constructed once (via New, or the
// package-level Default accessor) and shared across an application; tests
// construct independent instances freely.
//
// The zero value is not usable; always construct via New.
type TraceLog struct {
	mu sync.Mutex // the "global lock": lifecycle operations only, never the fast path

	enabled    atomic.Bool
	generation atomic.Uint64

	buffer   TraceBuffer
	config   TraceConfig
	registry *CategoryRegistry

	sharedTenant ChunkTenant

	registeredTenants      map[uint64]*ChunkTenant
	goroutineNames         map[uint64]string
	deregisteredGoroutines map[uint64]struct{}

	stopCallback  StopCallbackFunc
	defaultConfig TraceConfig
	haveDefault   bool

	log diagLogger
}

// New constructs a TraceLog. It does not start tracing; call Start.
func New(opts ...Option) *TraceLog {
	c := resolveOptions(opts)
	return &TraceLog{
		registry:               NewCategoryRegistry(),
		registeredTenants:      make(map[uint64]*ChunkTenant),
		goroutineNames:         make(map[uint64]string),
		deregisteredGoroutines: make(map[uint64]struct{}),
		stopCallback:           c.stopCallback,
		defaultConfig:          c.defaultConfig,
		haveDefault:            c.haveDefault,
		log:                    c.logger,
	}
}

var (
	defaultOnce sync.Once
	defaultLog  *TraceLog
)

// Default returns a process-wide TraceLog instance, constructing it with
// no options on first use.
func Default() *TraceLog {
	defaultOnce.Do(func() { defaultLog = New() })
	return defaultLog
}

// IsEnabled reports whether the log is currently accepting events.
func (t *TraceLog) IsEnabled() bool { return t.enabled.Load() }

func buildBuffer(cfg TraceConfig) (TraceBuffer, error) {
	if cfg.BufferFactory != nil {
		return cfg.BufferFactory(cfg.BufferSize), nil
	}
	chunkSize := int(unsafe.Sizeof(TraceChunk{}))
	capacity := cfg.BufferSize / chunkSize
	if capacity < 1 {
		return nil, &InvalidArgumentError{Message: "buffer-size smaller than one chunk"}
	}
	switch cfg.BufferMode {
	case BufferModeFixed:
		return NewFixedBuffer(capacity), nil
	case BufferModeRing:
		return NewRingBuffer(capacity), nil
	case BufferModeCustom:
		return nil, &InvalidArgumentError{Message: "buffer-mode custom requires a BufferFactory"}
	default:
		return nil, &InvalidArgumentError{Message: "unknown buffer-mode"}
	}
}

// lockMu acquires the global lock, honoring ctx cancellation while waiting
// for it. A nil ctx blocks unconditionally, matching sync.Mutex.Lock. This
// is the only blocking point cancellation applies to -- once the lock is
// held, lifecycle work runs to completion; per SPEC_FULL.md §5, ctx governs
// the wait for the mutex, not the lifecycle operation itself.
func (t *TraceLog) lockMu(ctx context.Context) error {
	if ctx == nil {
		t.mu.Lock()
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	done := make(chan struct{})
	go func() {
		t.mu.Lock()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		go func() {
			<-done
			t.mu.Unlock()
		}()
		return ctx.Err()
	}
}

// Start begins a new tracing session. If the log is already enabled, the
// prior session is stopped first. A zero TraceConfig causes the default
// config supplied via WithDefaultConfig (or its shorthand options) at
// construction time to be used instead.
//
// ctx governs only the wait to acquire the global lock (matching the
// teacher's context.Context-plumbed blocking operations, e.g.
// eventloop/loop.go's Run/Shutdown); once held, Start runs to completion
// regardless of ctx's state.
func (t *TraceLog) Start(ctx context.Context, cfg TraceConfig) error {
	if err := t.lockMu(ctx); err != nil {
		return err
	}
	defer t.mu.Unlock()
	return t.startLocked(cfg)
}

func (t *TraceLog) startLocked(cfg TraceConfig) error {
	if cfg.BufferSize == 0 && cfg.BufferFactory == nil {
		if !t.haveDefault {
			return &InvalidArgumentError{Message: "no buffer-size given and no default config configured"}
		}
		cfg = t.defaultConfig
	}

	if t.enabled.Load() {
		if err := t.stopLocked(false); err != nil {
			return err
		}
	}

	buf, err := buildBuffer(cfg)
	if err != nil {
		return err
	}

	t.buffer = buf
	t.config = cfg
	t.generation.Add(1)
	t.registry.UpdateEnabled(cfg.EnabledCategories, cfg.DisabledCategories)

	for gid := range t.deregisteredGoroutines {
		delete(t.goroutineNames, gid)
	}
	clear(t.deregisteredGoroutines)

	t.enabled.Store(true)
	t.log.Info("tracelog: started", map[string]any{
		"buffer_mode": cfg.BufferMode.String(),
		"generation":  t.generation.Load(),
	})
	return nil
}

// Stop ends the current tracing session, if any. shutdown marks this as a
// final, process-teardown-driven stop (relevant only to whether the stop
// callback fires when the config did not request stop-on-close).
//
// ctx governs only the wait to acquire the global lock; see Start.
func (t *TraceLog) Stop(ctx context.Context, shutdown bool) error {
	if err := t.lockMu(ctx); err != nil {
		return err
	}
	defer t.mu.Unlock()
	return t.stopLocked(shutdown)
}

func (t *TraceLog) stopLocked(shutdown bool) error {
	if !t.enabled.CompareAndSwap(true, false) {
		return nil
	}

	t.registry.DisableAll()
	t.evictGoroutinesLocked()

	if t.stopCallback != nil {
		if !shutdown || t.config.SaveOnStop != "" {
			if err := t.stopCallback(t, StopToken{locked: true}); err != nil {
				t.log.Error("tracelog: stop callback failed", err, nil)
				return WrapError("tracelog: stop callback failed", err)
			}
		}
	}
	t.log.Info("tracelog: stopped", nil)
	return nil
}

// maybeStop is the deferred-stop path the fixed buffer's exhaustion
// triggers: it only actually stops if the generation has not moved on
// since the caller observed exhaustion, so a racing restart is never
// double-stopped. It only tries the global lock: if another lifecycle
// operation holds it, this call does nothing.
func (t *TraceLog) maybeStop(expectedGeneration uint64) {
	if !t.mu.TryLock() {
		return
	}
	defer t.mu.Unlock()
	if t.generation.Load() == expectedGeneration {
		_ = t.stopLocked(false)
	}
}

// Close stops tracing unconditionally and is safe to call multiple times.
func (t *TraceLog) Close() error {
	return t.Stop(context.Background(), true)
}

// GetBuffer transfers buffer ownership out of the log. Only legal while
// the log is not enabled.
func (t *TraceLog) GetBuffer() (TraceBuffer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.getBufferLocked()
}

func (t *TraceLog) getBufferLocked() (TraceBuffer, error) {
	if t.enabled.Load() {
		return nil, &IllegalStateError{Message: "cannot take the buffer while tracing is enabled"}
	}
	buf := t.buffer
	t.buffer = nil
	return buf, nil
}

// GetBufferLocked is the lock-held overload a StopCallbackFunc uses,
// gated by possession of a StopToken.
func (t *TraceLog) GetBufferLocked(_ StopToken) (TraceBuffer, error) {
	return t.getBufferLocked()
}

// StartLocked is the lock-held overload a StopCallbackFunc may use to
// immediately begin a new session (e.g. a rotating file sink), gated by
// possession of a StopToken.
func (t *TraceLog) StartLocked(_ StopToken, cfg TraceConfig) error {
	return t.startLocked(cfg)
}

// RegisterGoroutine registers the calling goroutine as a tenant, returning
// a handle the caller must pass to LogEvent and eventually to
// DeregisterGoroutine. It is an error to register the same goroutine
// twice without an intervening deregistration.
//
// ctx governs only the wait to acquire the global lock; see Start.
func (t *TraceLog) RegisterGoroutine(ctx context.Context, name string) (*ChunkTenant, error) {
	gid := currentGoroutineID()

	if err := t.lockMu(ctx); err != nil {
		return nil, err
	}
	defer t.mu.Unlock()

	if _, ok := t.registeredTenants[gid]; ok {
		return nil, &InvalidArgumentError{Message: "goroutine already registered"}
	}

	tenant := &ChunkTenant{Initialised: true, goroutineID: gid, name: name}
	t.registeredTenants[gid] = tenant

	if name != "" {
		t.goroutineNames[gid] = name
		delete(t.deregisteredGoroutines, gid)
	}
	return tenant, nil
}

// DeregisterGoroutine removes tenant from the registry, returning any
// chunk it still holds to the buffer. If tracing is currently enabled, the
// goroutine's name is retained until the next Start (so an in-progress
// export still has it); otherwise it is dropped immediately.
func (t *TraceLog) DeregisterGoroutine(tenant *ChunkTenant) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !tenant.Initialised {
		return &InvalidArgumentError{Message: "deregistering an unregistered tenant"}
	}

	if tenant.Chunk != nil && t.buffer != nil {
		t.buffer.ReturnChunk(tenant.Chunk)
		tenant.Chunk = nil
	}

	delete(t.registeredTenants, tenant.goroutineID)
	tenant.Initialised = false

	if t.enabled.Load() {
		t.deregisteredGoroutines[tenant.goroutineID] = struct{}{}
	} else {
		delete(t.goroutineNames, tenant.goroutineID)
	}
	return nil
}

// evictGoroutinesLocked nulls every registered tenant's chunk under that
// tenant's master lock, so no producer can append another event for this
// generation once it returns. Called only from stopLocked, which already
// holds t.mu.
func (t *TraceLog) evictGoroutinesLocked() {
	evict := func(tenant *ChunkTenant) {
		tenant.Lock.MasterLock()
		tenant.Chunk = nil
		tenant.Lock.MasterUnlock()
	}
	evict(&t.sharedTenant)
	for _, tenant := range t.registeredTenants {
		evict(tenant)
	}
}

// LogEvent records one event against tenant (the shared tenant if nil or
// no longer registered), carrying the two arguments argA and argB. The
// event's timestamp is now as passed by the caller (normally Now());
// LogEvent does not read the clock itself.
func (t *TraceLog) LogEvent(tenant *ChunkTenant, tpi *TracepointInfo, argA, argB TraceArgument, now int64) {
	t.logEvent(tenant, tpi, argA, argB, now, 0)
}

// LogCompleteEvent records a Complete event carrying both a start time and
// a duration, the equivalent of the spec's 4-arg log_event overload.
func (t *TraceLog) LogCompleteEvent(tenant *ChunkTenant, tpi *TracepointInfo, start int64, duration uint64, argA, argB TraceArgument) {
	t.logEvent(tenant, tpi, argA, argB, start, duration)
}

func (t *TraceLog) logEvent(tenant *ChunkTenant, tpi *TracepointInfo, argA, argB TraceArgument, when int64, duration uint64) {
	if !t.enabled.Load() {
		return
	}
	if !t.categoryEnabled(tpi) {
		return
	}
	if tenant == nil || !tenant.Initialised {
		tenant = &t.sharedTenant
	}

	if !tenant.Lock.TrySlaveLock() {
		return // master is evicting
	}

	if tenant.Chunk == nil || tenant.Chunk.IsFull() {
		if !t.enabled.Load() {
			tenant.Lock.SlaveUnlock()
			return
		}
		if !t.replaceChunk(tenant) {
			gen := t.generation.Load()
			tenant.Lock.SlaveUnlock()
			t.maybeStop(gen)
			return
		}
	}

	tenant.Chunk.AddEvent(TraceEvent{
		TPI:      tpi,
		Args:     [2]TraceArgument{argA, argB},
		Time:     when,
		Duration: duration,
	})
	tenant.Lock.SlaveUnlock()
}

// categoryEnabled performs the category-status check the spec's data flow
// places before tenant-lock acquisition on the producer path. Unlike the
// original's function-local cached status pointer (which assumes a single
// process-wide registry), this looks the group up by string on every call;
// TracepointInfo carries no TraceLog affinity, so there is nowhere safe to
// cache the *atomic.Int32 across independent TraceLog instances (tests
// construct several). CategoryRegistry.GetStatus's own lock-free fast path
// keeps this cheap once the group is registered.
func (t *TraceLog) categoryEnabled(tpi *TracepointInfo) bool {
	return Status(t.registry.GetStatus(tpi.Category).Load()) == StatusEnabled
}

// replaceChunk is called with tenant's slave lock held. It returns
// tenant's current chunk (if any) to the buffer, then -- if the log is
// still enabled and the buffer can supply one -- fetches a fresh chunk.
// It touches no lock besides the one the caller already holds.
func (t *TraceLog) replaceChunk(tenant *ChunkTenant) bool {
	buf := t.buffer
	if tenant.Chunk != nil && buf != nil {
		buf.ReturnChunk(tenant.Chunk)
	}
	tenant.Chunk = nil

	if !t.enabled.Load() || buf == nil {
		return false
	}

	gid := tenant.goroutineID
	if tenant == &t.sharedTenant {
		gid = currentGoroutineID()
	}
	chunk := buf.GetChunk(gid)
	if chunk == nil {
		return false
	}
	tenant.Chunk = chunk
	return true
}

// Stats invokes cb once per buffer stat key (see TraceBuffer.Stats), plus
// registry_group_count for the category registry's current size. Safe to
// call at any time; if no buffer exists yet, only registry_group_count is
// emitted.
func (t *TraceLog) Stats(cb func(key string, value any)) {
	t.mu.Lock()
	buf := t.buffer
	gen := t.generation.Load()
	t.mu.Unlock()

	if buf != nil {
		buf.Stats(gen, cb)
	}
	cb("registry_group_count", t.registry.GroupCount())
}

// GoroutineName returns the recorded name for gid, if any.
func (t *TraceLog) GoroutineName(gid uint64) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	name, ok := t.goroutineNames[gid]
	return name, ok
}

// GoroutineNames returns a snapshot copy of the registered goroutine-id ->
// name map, for use by an exporter.
func (t *TraceLog) GoroutineNames() map[uint64]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.goroutineNamesLocked()
}

// GoroutineNamesLocked is the lock-held overload a StopCallbackFunc uses,
// gated by possession of a StopToken.
func (t *TraceLog) GoroutineNamesLocked(_ StopToken) map[uint64]string {
	return t.goroutineNamesLocked()
}

func (t *TraceLog) goroutineNamesLocked() map[uint64]string {
	out := make(map[uint64]string, len(t.goroutineNames))
	for k, v := range t.goroutineNames {
		out[k] = v
	}
	return out
}
