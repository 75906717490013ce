package application

import "sync"

// SnapshotStore holds the latest snapshot. The scrape cycle swaps in a
// fully-built snapshot once per cycle; the exposition side reads it on
// its own schedule. Readers see either the prior snapshot or the new
// one in full, never a mix of families from two cycles.
type SnapshotStore struct {
	mu  sync.RWMutex
	cur *Snapshot
}

func NewSnapshotStore() *SnapshotStore { return &SnapshotStore{} }

// Swap replaces the current snapshot. Callers must not modify snap
// after handing it over.
func (s *SnapshotStore) Swap(snap *Snapshot) {
	s.mu.Lock()
	s.cur = snap
	s.mu.Unlock()
}

// Current returns the latest snapshot, or nil before the first
// successful cycle.
func (s *SnapshotStore) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}
