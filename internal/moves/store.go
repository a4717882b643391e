package moves

import "sync/atomic"

// Store holds the current table. Readers take a snapshot with Table and keep
// it for a whole round; Swap publishes a reloaded table.
type Store struct {
	current atomic.Pointer[Table]
	version atomic.Uint64
}

// NewStore creates a store holding t.
func NewStore(t *Table) *Store {
	s := &Store{}
	s.current.Store(t)
	return s
}

// Table returns the current table.
func (s *Store) Table() *Table {
	return s.current.Load()
}

// Swap publishes t and returns the new version number.
func (s *Store) Swap(t *Table) uint64 {
	if t == nil {
		return s.version.Load()
	}
	s.current.Store(t)
	return s.version.Add(1)
}

// Version counts successful swaps.
func (s *Store) Version() uint64 {
	return s.version.Load()
}

// Reload rebuilds from dir and swaps on success. On error the current table
// stays in place.
func (s *Store) Reload(dir string) error {
	t, err := LoadDir(dir)
	if err != nil {
		return err
	}
	s.Swap(t)
	return nil
}
