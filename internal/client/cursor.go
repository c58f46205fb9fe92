package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	pebblestore "github.com/spaceone/rest-feeds/internal/storage/pebble"
)

// Cursor is the consumer's durable progress marker for one feed: the next
// page URL to fetch. An empty NextLink means start from the feed URL itself.
type Cursor struct {
	FeedURL  string `json:"feed_url"`
	NextLink string `json:"next_link"`
}

// CursorStore persists cursors across consumer restarts. Load returns a
// zero-valued cursor for feeds never seen before.
type CursorStore interface {
	Load(ctx context.Context, feedURL string) (Cursor, error)
	Save(ctx context.Context, c Cursor) error
}

// MemoryCursorStore keeps cursors in memory. Progress is lost on restart;
// intended for tests and throwaway consumers.
type MemoryCursorStore struct {
	mu      sync.Mutex
	cursors map[string]Cursor
}

func NewMemoryCursorStore() *MemoryCursorStore {
	return &MemoryCursorStore{cursors: map[string]Cursor{}}
}

func (s *MemoryCursorStore) Load(_ context.Context, feedURL string) (Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cursors[feedURL]
	if !ok {
		return Cursor{FeedURL: feedURL}, nil
	}
	return c, nil
}

func (s *MemoryCursorStore) Save(_ context.Context, c Cursor) error {
	if c.FeedURL == "" {
		return errors.New("client: cursor has no feed url")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[c.FeedURL] = c
	return nil
}

// PebbleCursorStore persists cursors in a local Pebble database, surviving
// consumer crashes and restarts.
type PebbleCursorStore struct {
	db *pebblestore.DB
}

// OpenCursorStore opens (or creates) a cursor database under dir.
func OpenCursorStore(dir string) (*PebbleCursorStore, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		return nil, err
	}
	return &PebbleCursorStore{db: db}, nil
}

func (s *PebbleCursorStore) Close() error { return s.db.Close() }

func cursorKey(feedURL string) []byte {
	return append([]byte("cursor/"), feedURL...)
}

func (s *PebbleCursorStore) Load(_ context.Context, feedURL string) (Cursor, error) {
	raw, err := s.db.Get(cursorKey(feedURL))
	if errors.Is(err, pebblestore.ErrNotFound) {
		return Cursor{FeedURL: feedURL}, nil
	}
	if err != nil {
		return Cursor{}, err
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, err
	}
	return c, nil
}

func (s *PebbleCursorStore) Save(_ context.Context, c Cursor) error {
	if c.FeedURL == "" {
		return errors.New("client: cursor has no feed url")
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.db.Set(cursorKey(c.FeedURL), raw)
}
