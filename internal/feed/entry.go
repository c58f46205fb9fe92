package feed

import (
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"time"
)

// Operation discriminates entry semantics. Deletes are tombstones: they
// order and compact like puts but carry no payload.
type Operation string

const (
	OpPut    Operation = "put"
	OpDelete Operation = "delete"
)

// Entry is one element of a feed. Data is the raw JSON payload; nil Data
// marks a tombstone.
type Entry struct {
	Position       uint64
	Type           string
	ID             string
	Operation      Operation
	Created        time.Time
	IdempotencyKey string
	Data           []byte
}

// Tombstone reports whether the entry signals removal of its id.
func (e Entry) Tombstone() bool { return e.Operation == OpDelete }

// entryMeta is the persisted header of a record.
type entryMeta struct {
	Type           string `json:"type"`
	ID             string `json:"id"`
	Operation      string `json:"op,omitempty"`
	CreatedMs      int64  `json:"created_ms"`
	IdempotencyKey string `json:"ikey,omitempty"`
}

// Record encoding: varint metaLen | meta JSON | payload | crc32c(meta|payload)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// EncodeEntry serializes an entry's meta and payload into a record value.
func EncodeEntry(e Entry) []byte {
	meta, _ := json.Marshal(entryMeta{
		Type:           e.Type,
		ID:             e.ID,
		Operation:      string(e.Operation),
		CreatedMs:      e.Created.UnixMilli(),
		IdempotencyKey: e.IdempotencyKey,
	})

	out := make([]byte, 0, 10+len(meta)+len(e.Data)+4)
	var tmp [10]byte
	n := binary.PutUvarint(tmp[:], uint64(len(meta)))
	out = append(out, tmp[:n]...)
	out = append(out, meta...)
	out = append(out, e.Data...)

	crc := crc32.Update(0, castagnoli, meta)
	crc = crc32.Update(crc, castagnoli, e.Data)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	return append(out, crcb[:]...)
}

// DecodeEntry parses a record value into an Entry at the given position.
// Returns false for truncated or corrupt records.
func DecodeEntry(pos uint64, b []byte) (Entry, bool) {
	if len(b) < 1+4 {
		return Entry{}, false
	}
	mlen, n := binary.Uvarint(b)
	if n <= 0 || int(n)+int(mlen)+4 > len(b) {
		return Entry{}, false
	}
	metaRaw := b[n : n+int(mlen)]
	payload := b[n+int(mlen) : len(b)-4]

	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	crc := crc32.Update(0, castagnoli, metaRaw)
	crc = crc32.Update(crc, castagnoli, payload)
	if crc != expect {
		return Entry{}, false
	}

	var meta entryMeta
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return Entry{}, false
	}
	op := Operation(meta.Operation)
	if op == "" {
		op = OpPut
	}
	e := Entry{
		Position:       pos,
		Type:           meta.Type,
		ID:             meta.ID,
		Operation:      op,
		Created:        time.UnixMilli(meta.CreatedMs).UTC(),
		IdempotencyKey: meta.IdempotencyKey,
	}
	if len(payload) > 0 {
		e.Data = append([]byte(nil), payload...)
	}
	return e, true
}
