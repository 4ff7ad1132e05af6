package mutlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendEntry(t *testing.T, s Store, table, text string) uint64 {
	t.Helper()
	id, err := s.Append(NewEntry("db", table, parseCommands(t, text)))
	require.NoError(t, err)
	return id
}

func TestMemoryStore_AppendAssignsDenseIDs(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	first := appendEntry(t, s, "events", "DELETE WHERE x > 1")
	second := appendEntry(t, s, "events", "DROP COLUMN old")
	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(2), second)
}

func TestMemoryStore_Get(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	id := appendEntry(t, s, "orders", "DELETE WHERE paid = 0")
	e, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, e.ID)
	assert.Equal(t, "orders", e.Table)

	_, err = s.Get(999)
	var notFound *EntryNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, uint64(999), notFound.ID)
}

func TestMemoryStore_ListGlob(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	appendEntry(t, s, "events_2024", "DELETE WHERE x > 1")
	appendEntry(t, s, "events_2025", "DELETE WHERE x > 2")
	appendEntry(t, s, "orders", "DELETE WHERE x > 3")

	all, err := s.List("*")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].ID < all[1].ID && all[1].ID < all[2].ID)

	events, err := s.List("events_*")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "events_2024", events[0].Table)
	assert.Equal(t, "events_2025", events[1].Table)

	none, err := s.List("missing")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = s.List("[")
	assert.Error(t, err)
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	id := appendEntry(t, s, "events", "DELETE WHERE x > 1")
	require.NoError(t, s.Delete(id))

	_, err := s.Get(id)
	var notFound *EntryNotFoundError
	assert.ErrorAs(t, err, &notFound)

	// deleting an absent ID is not an error
	assert.NoError(t, s.Delete(id))
}

func TestPebbleStore_RoundTrip(t *testing.T) {
	s, err := NewPebbleStore(t.TempDir(), 0)
	require.NoError(t, err)
	defer s.Close()

	id := appendEntry(t, s, "events", "UPDATE hits = hits + 1 WHERE day = '2024-01-01'")
	e, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, e.ID)
	assert.Equal(t, "events", e.Table)
	require.NoError(t, e.Validate())

	_, err = s.Get(id + 1)
	var notFound *EntryNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestPebbleStore_CompressedEntries(t *testing.T) {
	s, err := NewPebbleStore(t.TempDir(), 1)
	require.NoError(t, err)
	defer s.Close()

	id := appendEntry(t, s, "events", "DELETE WHERE status = 'archived'")
	e, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "events", e.Table)
}

func TestPebbleStore_ListAndDelete(t *testing.T) {
	s, err := NewPebbleStore(t.TempDir(), 0)
	require.NoError(t, err)
	defer s.Close()

	appendEntry(t, s, "events", "DELETE WHERE x > 1")
	id := appendEntry(t, s, "orders", "DROP COLUMN old")

	entries, err := s.List("*")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.NoError(t, s.Delete(id))
	entries, err = s.List("*")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "events", entries[0].Table)
}

func TestPebbleStore_ReopenContinuesIDs(t *testing.T) {
	dir := t.TempDir()

	s, err := NewPebbleStore(dir, 0)
	require.NoError(t, err)
	first := appendEntry(t, s, "events", "DELETE WHERE x > 1")
	require.NoError(t, s.Close())

	reopened, err := NewPebbleStore(dir, 0)
	require.NoError(t, err)
	defer reopened.Close()

	second := appendEntry(t, reopened, "events", "DELETE WHERE x > 2")
	assert.Equal(t, first+1, second)

	e, err := reopened.Get(first)
	require.NoError(t, err)
	assert.Equal(t, first, e.ID)
}

func TestPebbleStore_CloseIdempotent(t *testing.T) {
	s, err := NewPebbleStore(t.TempDir(), 0)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
