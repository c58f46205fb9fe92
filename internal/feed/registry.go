package feed

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/spaceone/rest-feeds/internal/storage/pebble"
)

// Meta holds a feed's registered metadata.
type Meta struct {
	Name        string `json:"name"`
	Mode        Mode   `json:"mode"`
	PageLimit   int    `json:"pageLimit"`
	CreatedAtMs int64  `json:"createdAtMs"`
}

// DefaultPageLimit is the server-chosen page size when a feed declares none.
const DefaultPageLimit = 100

// ErrModeMismatch is returned when an existing feed is re-registered with a
// different mode.
var ErrModeMismatch = errors.New("feed: feed exists with a different mode")

// EnsureFeed creates a feed's registry record if absent, returning the
// effective meta. Idempotent: an existing feed is returned as-is, unless the
// requested mode conflicts with the registered one.
func EnsureFeed(db *pebblestore.DB, name string, mode Mode, pageLimit int) (Meta, error) {
	key := KeyRegistry(name)
	if b, err := db.Get(key); err == nil && len(b) > 0 {
		var m Meta
		if err := json.Unmarshal(b, &m); err == nil {
			if mode != "" && m.Mode != mode {
				return Meta{}, ErrModeMismatch
			}
			return m, nil
		}
		// fallthrough to rewrite if corrupted
	}
	if mode == "" {
		mode = ModeData
	}
	if pageLimit <= 0 {
		pageLimit = DefaultPageLimit
	}
	m := Meta{
		Name:        name,
		Mode:        mode,
		PageLimit:   pageLimit,
		CreatedAtMs: time.Now().UnixMilli(),
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return Meta{}, err
	}
	if err := db.Set(key, raw); err != nil {
		return Meta{}, err
	}
	return m, nil
}

// GetFeed loads the registry record for a feed.
func GetFeed(db *pebblestore.DB, name string) (Meta, bool, error) {
	b, err := db.Get(KeyRegistry(name))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return Meta{}, false, nil
		}
		return Meta{}, false, err
	}
	var m Meta
	if err := json.Unmarshal(b, &m); err != nil {
		return Meta{}, false, err
	}
	return m, true, nil
}

// ListFeeds returns all registered feeds in name order.
func ListFeeds(db *pebblestore.DB) ([]Meta, error) {
	low, hi := registryBounds()
	iter, err := db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []Meta
	for ok := iter.First(); ok; ok = iter.Next() {
		var m Meta
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
