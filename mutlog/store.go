package mutlog

import (
	"sort"
	"sync/atomic"

	"github.com/gobwas/glob"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/stratumdb/stratum/telemetry"
)

// Store persists mutation entries in append order. Append assigns the
// entry's ID; IDs are dense and monotonically increasing.
type Store interface {
	Append(e *Entry) (uint64, error)
	Get(id uint64) (*Entry, error)
	// List returns entries whose table name matches the glob pattern
	// ("*" for all), ordered by ID.
	List(tablePattern string) ([]*Entry, error)
	Delete(id uint64) error
	Close() error
}

// MemoryStore keeps entries in a lock-free map. Used in tests and by
// embedders that replicate the log elsewhere.
type MemoryStore struct {
	entries *xsync.MapOf[uint64, *Entry]
	lastID  atomic.Uint64
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: xsync.NewMapOf[uint64, *Entry](),
	}
}

func (s *MemoryStore) Append(e *Entry) (uint64, error) {
	id := s.lastID.Add(1)
	stored := *e
	stored.ID = id
	s.entries.Store(id, &stored)
	telemetry.EntriesAppendedTotal.Inc()
	telemetry.LiveEntries.Inc()
	return id, nil
}

func (s *MemoryStore) Get(id uint64) (*Entry, error) {
	e, ok := s.entries.Load(id)
	if !ok {
		return nil, &EntryNotFoundError{ID: id}
	}
	return e, nil
}

func (s *MemoryStore) List(tablePattern string) ([]*Entry, error) {
	matcher, err := glob.Compile(tablePattern)
	if err != nil {
		return nil, err
	}
	var out []*Entry
	s.entries.Range(func(_ uint64, e *Entry) bool {
		if matcher.Match(e.Table) {
			out = append(out, e)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Delete(id uint64) error {
	if _, ok := s.entries.LoadAndDelete(id); ok {
		telemetry.LiveEntries.Dec()
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }
