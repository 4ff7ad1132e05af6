package mutlog

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"

	"github.com/stratumdb/stratum/telemetry"
)

const pebblePrefixEntry = "/mutation/" // /mutation/{id:016x}

// PebbleStore is the durable Store implementation. Every append commits
// with a synced WAL write: a mutation acknowledged to the caller must
// survive a crash.
type PebbleStore struct {
	db     *pebble.DB
	path   string
	lastID atomic.Uint64

	compressThreshold int

	closed atomic.Bool
}

var _ Store = (*PebbleStore)(nil)

// pebbleLogger wraps zerolog for Pebble
type pebbleLogger struct{}

func (l *pebbleLogger) Infof(format string, args ...interface{}) {
	log.Debug().Msgf("[pebble] "+format, args...)
}

func (l *pebbleLogger) Errorf(format string, args ...interface{}) {
	log.Error().Msgf("[pebble] "+format, args...)
}

func (l *pebbleLogger) Fatalf(format string, args ...interface{}) {
	log.Fatal().Msgf("[pebble] "+format, args...)
}

// NewPebbleStore opens (or creates) a mutation log at path.
func NewPebbleStore(path string, compressThreshold int) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{
		Logger: &pebbleLogger{},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db: %w", err)
	}

	store := &PebbleStore{
		db:                db,
		path:              path,
		compressThreshold: compressThreshold,
	}

	lastID, count, err := store.scanExisting()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to scan mutation log: %w", err)
	}
	store.lastID.Store(lastID)
	telemetry.LiveEntries.Set(float64(count))

	log.Info().
		Str("path", path).
		Uint64("last_id", lastID).
		Int("entries", count).
		Msg("Opened mutation log")
	return store, nil
}

// scanExisting seeds the ID counter and entry count from persisted keys.
func (s *PebbleStore) scanExisting() (uint64, int, error) {
	prefix := []byte(pebblePrefixEntry)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return 0, 0, err
	}
	defer iter.Close()

	var lastID uint64
	count := 0
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		id, err := parseEntryKey(iter.Key())
		if err != nil {
			return 0, 0, err
		}
		if id > lastID {
			lastID = id
		}
		count++
	}
	return lastID, count, nil
}

func (s *PebbleStore) Append(e *Entry) (uint64, error) {
	id := s.lastID.Add(1)
	stored := *e
	stored.ID = id

	rec, err := encodeRecord(&stored, s.compressThreshold)
	if err != nil {
		return 0, err
	}
	if err := s.db.Set(entryKey(id), rec, pebble.Sync); err != nil {
		return 0, err
	}
	telemetry.EntriesAppendedTotal.Inc()
	telemetry.LiveEntries.Inc()

	log.Debug().
		Uint64("id", id).
		Str("table", stored.Table).
		Int("record_bytes", len(rec)).
		Msg("Appended mutation entry")
	return id, nil
}

func (s *PebbleStore) Get(id uint64) (*Entry, error) {
	val, closer, err := s.db.Get(entryKey(id))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, &EntryNotFoundError{ID: id}
		}
		return nil, err
	}
	defer closer.Close()

	e, err := decodeRecord(val)
	if err != nil {
		telemetry.DecodeFailuresTotal.With("record").Inc()
		return nil, err
	}
	if err := e.Validate(); err != nil {
		telemetry.DecodeFailuresTotal.With("checksum").Inc()
		return nil, err
	}
	return e, nil
}

func (s *PebbleStore) List(tablePattern string) ([]*Entry, error) {
	matcher, err := glob.Compile(tablePattern)
	if err != nil {
		return nil, err
	}

	prefix := []byte(pebblePrefixEntry)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []*Entry
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		val, err := iter.ValueAndErr()
		if err != nil {
			return nil, err
		}
		e, err := decodeRecord(val)
		if err != nil {
			telemetry.DecodeFailuresTotal.With("record").Inc()
			log.Warn().Err(err).Str("key", string(iter.Key())).Msg("Skipping undecodable mutation entry")
			continue
		}
		if matcher.Match(e.Table) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *PebbleStore) Delete(id uint64) error {
	if err := s.db.Delete(entryKey(id), pebble.Sync); err != nil {
		return err
	}
	telemetry.LiveEntries.Dec()
	return nil
}

// Close is idempotent.
func (s *PebbleStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	log.Debug().Str("path", s.path).Msg("Closing mutation log")
	return s.db.Close()
}

func entryKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%016x", pebblePrefixEntry, id))
}

func parseEntryKey(key []byte) (uint64, error) {
	var id uint64
	if _, err := fmt.Sscanf(string(key), pebblePrefixEntry+"%016x", &id); err != nil {
		return 0, fmt.Errorf("malformed mutation log key %q: %w", key, err)
	}
	return id, nil
}

// prefixUpperBound returns prefix + 0xFF... for range iteration
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xFF {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}
