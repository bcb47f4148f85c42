package dataset

import "sync/atomic"

// Store publishes the current Snapshot. A reload installs a whole new
// snapshot with one atomic swap; readers holding the old one are unaffected.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates a store publishing initial.
func NewStore(initial *Snapshot) *Store {
	s := &Store{}
	s.current.Store(initial)
	return s
}

// Current returns the published snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Swap publishes next and returns the snapshot it replaced.
func (s *Store) Swap(next *Snapshot) *Snapshot {
	return s.current.Swap(next)
}
