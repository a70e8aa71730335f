package core

import (
	"sync"
	"sync/atomic"
)

// Store holds the single live project snapshot.
//
// Readers never block: Current loads an immutable pointer. Writers are
// serialized so each Replace is observed whole; concurrent replaces resolve
// as last-committed-wins.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	initial Settings
}

// NewStore creates a store holding an empty snapshot with the given settings
// (DefaultSettings when nil).
func NewStore(settings Settings) *Store {
	s := &Store{initial: settings}
	s.current.Store(EmptySnapshot(settings))
	return s
}

// Current returns the live snapshot. Callers must not modify it.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Replace installs snap as the live snapshot and returns the one it superseded.
// snap must not be modified afterwards.
func (s *Store) Replace(snap *Snapshot) *Snapshot {
	if snap == nil {
		snap = EmptySnapshot(s.initial)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Swap(snap)
}
