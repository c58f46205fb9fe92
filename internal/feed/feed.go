package feed

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	pebblestore "github.com/spaceone/rest-feeds/internal/storage/pebble"
)

// Mode selects feed semantics: data feeds compact per id, event feeds are
// append-only until retention trims them.
type Mode string

const (
	ModeData  Mode = "data"
	ModeEvent Mode = "event"
)

// AppendRequest carries the caller-supplied parts of a new entry.
type AppendRequest struct {
	Type           string
	ID             string
	Operation      Operation
	IdempotencyKey string
	Data           []byte
}

var (
	// ErrMissingID is returned when an append carries no logical id.
	ErrMissingID = errors.New("feed: entry id is required")
	// ErrMissingType is returned when an append carries no type tag.
	ErrMissingType = errors.New("feed: entry type is required")
)

// Feed provides append and query operations for a single named feed.
type Feed struct {
	db   *pebblestore.DB
	name string
	mode Mode

	mu       sync.Mutex
	seq      *Sequencer
	notifyCh chan struct{}
}

// Open initializes a Feed and resumes the position sequence from the
// persisted metadata, if any.
func Open(db *pebblestore.DB, name string, mode Mode) (*Feed, error) {
	var last uint64
	meta, err := db.Get(KeyFeedMeta(name))
	if err == nil && len(meta) >= 8 {
		last = binary.BigEndian.Uint64(meta[:8])
	} else if err != nil && !errors.Is(err, pebblestore.ErrNotFound) {
		return nil, err
	}
	return &Feed{
		db:       db,
		name:     name,
		mode:     mode,
		seq:      NewSequencer(last),
		notifyCh: make(chan struct{}),
	}, nil
}

// Name returns the feed's name.
func (f *Feed) Name() string { return f.name }

// Mode returns the feed's mode.
func (f *Feed) Mode() Mode { return f.mode }

// LastPosition returns the most recently allocated position (0 if none).
func (f *Feed) LastPosition() uint64 { return f.seq.Last() }

// Append allocates a position, stores the entry, and for data feeds
// retires any prior entry with the same id in the same atomic batch. A
// concurrent scan observes either the pre-append or post-append state,
// never both entries for one id and never neither.
func (f *Feed) Append(ctx context.Context, req AppendRequest) (Entry, error) {
	if req.ID == "" {
		return Entry{}, ErrMissingID
	}
	if req.Type == "" {
		return Entry{}, ErrMissingType
	}
	op := req.Operation
	if op == "" {
		op = OpPut
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	pos, err := f.seq.Next()
	if err != nil {
		return Entry{}, err
	}

	e := Entry{
		Position:       pos,
		Type:           req.Type,
		ID:             req.ID,
		Operation:      op,
		Created:        time.Now().UTC(),
		IdempotencyKey: req.IdempotencyKey,
	}
	if op != OpDelete {
		e.Data = req.Data
	}

	b := f.db.NewBatch()
	defer b.Close()

	if err := b.Set(KeyEntry(f.name, pos), EncodeEntry(e), nil); err != nil {
		return Entry{}, err
	}

	if f.mode == ModeData {
		idKey := KeyIDIndex(f.name, req.ID)
		prior, err := f.db.Get(idKey)
		if err == nil && len(prior) >= 8 {
			prevPos := binary.BigEndian.Uint64(prior[:8])
			if err := b.Delete(KeyEntry(f.name, prevPos), nil); err != nil {
				return Entry{}, err
			}
		} else if err != nil && !errors.Is(err, pebblestore.ErrNotFound) {
			return Entry{}, err
		}
		var pb [8]byte
		binary.BigEndian.PutUint64(pb[:], pos)
		if err := b.Set(idKey, pb[:], nil); err != nil {
			return Entry{}, err
		}
	}

	var meta [8]byte
	binary.BigEndian.PutUint64(meta[:], pos)
	if err := b.Set(KeyFeedMeta(f.name), meta[:], nil); err != nil {
		return Entry{}, err
	}

	if err := f.db.CommitBatch(ctx, b); err != nil {
		return Entry{}, err
	}

	// wake long-poll waiters
	close(f.notifyCh)
	f.notifyCh = make(chan struct{})
	return e, nil
}
