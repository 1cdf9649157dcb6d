package tracelog

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Status is the atomic enable/disable state of one category group.
type Status int32

const (
	StatusDisabled Status = iota
	StatusEnabled
)

// registrySize is R in the data model: the fixed capacity of the category
// registry, including the three reserved slots below.
const registrySize = 250

const (
	categoryDefault      = 0
	categoryLimitReached = 1
	categoryMetadata     = 2
)

// CategoryRegistry is an append-only, bounded table mapping category-group
// strings to an atomic enable/disable Status, with glob-based policy
// matching. Grounded on original_source's category_registry.{h,cc}, with
// the double-checked-locking lookup shape borrowed from the teacher's
// eventloop/registry.go (optimistic lock-free scan, then lock-and-recheck
// before inserting).
type CategoryRegistry struct {
	mu       sync.Mutex
	count    atomic.Uint32
	groups   [registrySize]string
	statuses [registrySize]atomic.Int32

	policyMu sync.Mutex
	enabled  []string
	disabled []string
}

// NewCategoryRegistry constructs a registry with its three reserved slots
// populated: "default", the permanently-disabled overflow sentinel, and
// "__metadata". All three start Disabled (the zero value of Status);
// "default" is enabled only once a policy update matches it, same as any
// other group.
func NewCategoryRegistry() *CategoryRegistry {
	r := &CategoryRegistry{}
	r.groups[categoryDefault] = "default"
	r.groups[categoryLimitReached] = "category limit reached"
	r.groups[categoryMetadata] = "__metadata"
	r.count.Store(3)
	return r
}

// GetStatus returns a stable pointer-equivalent handle (the *atomic.Int32
// backing the slot) for group, inserting it if this is the first time the
// registry has seen it. The returned pointer is valid and addresses the
// same slot for the registry's lifetime.
func (r *CategoryRegistry) GetStatus(group string) *atomic.Int32 {
	if i, ok := r.find(group, r.count.Load()); ok {
		return &r.statuses[i]
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.count.Load()
	if i, ok := r.find(group, count); ok {
		return &r.statuses[i]
	}

	if count >= registrySize {
		return &r.statuses[categoryLimitReached]
	}

	r.groups[count] = group
	r.statuses[count].Store(int32(r.calculateEnabledLocked(group)))
	r.count.Store(count + 1)
	return &r.statuses[count]
}

func (r *CategoryRegistry) find(group string, count uint32) (uint32, bool) {
	for i := uint32(0); i < count; i++ {
		if r.groups[i] == group {
			return i, true
		}
	}
	return 0, false
}

// UpdateEnabled replaces the enabled/disabled pattern sets and recomputes
// every already-registered group's status against the new policy.
func (r *CategoryRegistry) UpdateEnabled(enabled, disabled []string) {
	r.policyMu.Lock()
	r.enabled = append([]string(nil), enabled...)
	r.disabled = append([]string(nil), disabled...)
	r.policyMu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	count := r.count.Load()
	for i := uint32(0); i < count; i++ {
		if i == categoryLimitReached {
			continue // permanently disabled sentinel
		}
		r.statuses[i].Store(int32(r.calculateEnabledLocked(r.groups[i])))
	}
}

// DisableAll clears both pattern sets and forces every registered group's
// status to Disabled.
func (r *CategoryRegistry) DisableAll() {
	r.policyMu.Lock()
	r.enabled = nil
	r.disabled = nil
	r.policyMu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	count := r.count.Load()
	for i := uint32(0); i < count; i++ {
		r.statuses[i].Store(int32(StatusDisabled))
	}
}

// calculateEnabledLocked computes whether group group is enabled under the
// current policy. Must be called with r.mu held (it only reads the policy
// fields, which are independently mutex-protected, but callers rely on
// r.mu to serialize the surrounding group-table mutation).
func (r *CategoryRegistry) calculateEnabledLocked(group string) Status {
	r.policyMu.Lock()
	enabled, disabled := r.enabled, r.disabled
	r.policyMu.Unlock()

	for _, category := range strings.Split(group, ",") {
		matchesEnabled := false
		for _, p := range enabled {
			if globMatch(p, category) {
				matchesEnabled = true
				break
			}
		}
		if !matchesEnabled {
			continue
		}
		matchesDisabled := false
		for _, p := range disabled {
			if globMatch(p, category) {
				matchesDisabled = true
				break
			}
		}
		if !matchesDisabled {
			return StatusEnabled
		}
	}
	return StatusDisabled
}

// GroupCount reports how many distinct groups have been registered,
// including the three reserved slots. Used for the registry_group_count
// stat.
func (r *CategoryRegistry) GroupCount() uint32 {
	return r.count.Load()
}
