// Package mutlog is the durable mutation log: one Entry per queued
// mutation, carrying the escaped command text produced by the mutation
// codec as a single field of a msgpack record, checksummed and optionally
// compressed. The log stores entries; deciding when a mutation runs is
// the scheduler's business, not ours.
package mutlog

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/stratumdb/stratum/encoding"
	"github.com/stratumdb/stratum/mutation"
	"github.com/stratumdb/stratum/telemetry"
	"github.com/stratumdb/stratum/types"
)

// Entry is one persisted mutation record. Commands holds the escaped
// one-line command text; everything else is envelope.
type Entry struct {
	ID        uint64 `msgpack:"id"`
	Database  string `msgpack:"db"`
	Table     string `msgpack:"table"`
	CreatedAt int64  `msgpack:"created_at"`
	Commands  []byte `msgpack:"commands"`
	Checksum  uint64 `msgpack:"checksum"`
}

// NewEntry builds an unassigned entry (ID is set by the store on append)
// from a classified command sequence.
func NewEntry(database, table string, cmds mutation.MutationCommands) *Entry {
	text := cmds.EncodeText()
	return &Entry{
		Database:  database,
		Table:     table,
		CreatedAt: time.Now().Unix(),
		Commands:  text,
		Checksum:  xxhash.Sum64(text),
	}
}

// ChecksumError reports a stored entry whose command text does not match
// its recorded checksum.
type ChecksumError struct {
	ID       uint64
	Expected uint64
	Actual   uint64
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("entry %d: command text checksum mismatch (expected %016x, got %016x)", e.ID, e.Expected, e.Actual)
}

// EntryNotFoundError reports a missing entry ID.
type EntryNotFoundError struct {
	ID uint64
}

func (e *EntryNotFoundError) Error() string {
	return fmt.Sprintf("mutation entry %d not found", e.ID)
}

// Validate recomputes the command-text checksum.
func (e *Entry) Validate() error {
	if actual := xxhash.Sum64(e.Commands); actual != e.Checksum {
		return &ChecksumError{ID: e.ID, Expected: e.Checksum, Actual: actual}
	}
	return nil
}

// DecodeCommands validates the entry and restores its command sequence.
func (e *Entry) DecodeCommands(resolver types.Resolver) (mutation.MutationCommands, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	cmds, err := mutation.DecodeText(e.Commands, resolver)
	if err != nil {
		telemetry.DecodeFailuresTotal.With("commands").Inc()
		return nil, err
	}
	telemetry.EntriesDecodedTotal.Inc()
	return cmds, nil
}

// Record format: one flag byte, then the msgpack payload, zstd-compressed
// when the payload exceeds the store's threshold.
const (
	recordRaw        = 0x00
	recordCompressed = 0x01
)

// shared zstd coders; EncodeAll/DecodeAll are safe for concurrent use
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

func encodeRecord(e *Entry, compressThreshold int) ([]byte, error) {
	payload, err := encoding.Marshal(e)
	if err != nil {
		return nil, err
	}
	if compressThreshold > 0 && len(payload) > compressThreshold {
		return append([]byte{recordCompressed}, zstdEncoder.EncodeAll(payload, nil)...), nil
	}
	return append([]byte{recordRaw}, payload...), nil
}

func decodeRecord(data []byte) (*Entry, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty mutation record")
	}
	payload := data[1:]
	switch data[0] {
	case recordRaw:
	case recordCompressed:
		var err error
		payload, err = zstdDecoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress mutation record: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown mutation record flag 0x%02x", data[0])
	}
	var e Entry
	if err := encoding.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("failed to decode mutation record: %w", err)
	}
	return &e, nil
}
