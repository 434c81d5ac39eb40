package config

import "sync"

// Store is the mutable settings holder shared between the host settings
// layer, the engine and the tremor analyzer's auto-apply path. Updates
// apply atomically; the engine reads one immutable snapshot per tick,
// so a mid-dwell update never affects an in-flight dwell timer (its
// dwell duration was captured at timer start).
type Store struct {
	mu       sync.RWMutex
	current  Settings
	revision int64
}

// NewStore creates a store seeded with the given settings, clamped.
func NewStore(s Settings) *Store {
	s.Clamp()
	return &Store{current: s}
}

// Snapshot returns the current settings value.
func (st *Store) Snapshot() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Revision returns a counter incremented on every update. Collaborators
// use it to detect settings churn without diffing snapshots.
func (st *Store) Revision() int64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.revision
}

// Update applies fn to a copy of the current settings under the lock,
// clamps the result and installs it atomically. This is the only
// mutation path; callers never hold a reference into store state.
func (st *Store) Update(fn func(*Settings)) Settings {
	st.mu.Lock()
	defer st.mu.Unlock()
	next := st.current
	fn(&next)
	next.Clamp()
	st.current = next
	st.revision++
	return next
}
