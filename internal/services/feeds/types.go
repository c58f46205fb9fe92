package feedsvc

import (
	"errors"
	"time"

	"github.com/spaceone/rest-feeds/internal/feed"
)

var (
	// ErrFeedNotFound is returned for operations on unregistered feeds.
	ErrFeedNotFound = errors.New("feeds: feed not found")
	// ErrInvalidFeedName is returned when a name fails the configured regex.
	ErrInvalidFeedName = errors.New("feeds: invalid feed name")
	// ErrPayloadTooLarge is returned when an append exceeds the limit.
	ErrPayloadTooLarge = errors.New("feeds: payload too large")
	// ErrBadFilter is returned for filter expressions that do not compile.
	ErrBadFilter = errors.New("feeds: invalid filter expression")
)

// AppendRequest carries one entry to publish.
type AppendRequest struct {
	Type           string
	ID             string
	Operation      feed.Operation
	IdempotencyKey string
	Data           []byte
}

// FetchOptions controls one feed page fetch.
type FetchOptions struct {
	// Offset is the exclusive position the client has processed up to.
	// Zero means start of feed.
	Offset uint64
	// Filter is an optional CEL expression evaluated per entry.
	Filter string
	// Wait, when positive, holds an empty fetch open up to this long for
	// new entries (bounded further by the server's long-poll cap).
	Wait time.Duration
}

// FeedStats is the per-feed stats document.
type FeedStats struct {
	Feed string    `json:"feed"`
	Mode feed.Mode `json:"mode"`
	feed.Stats
}
