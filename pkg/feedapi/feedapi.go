// Package feedapi defines the wire model of the HTTP feed protocol: the
// paged JSON document a feed endpoint serves and a polling client consumes.
package feedapi

import "encoding/json"

// Operations carried by feed items. An absent operation means put.
const (
	OperationPut    = "put"
	OperationDelete = "delete"
)

// Links are the navigation links of a feed page. Self always echoes the
// requested offset; Next is present only when the page carries items and
// encodes the highest position in the page.
type Links struct {
	Self string `json:"self"`
	Next string `json:"next,omitempty"`
}

// ItemMeta describes a feed item independent of its payload.
type ItemMeta struct {
	Type           string `json:"type"`
	ID             string `json:"id"`
	Operation      string `json:"operation,omitempty"`
	Created        string `json:"created"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// DedupeKey returns the token consumers should dedupe deliveries by: the
// idempotency key when present, otherwise id plus operation.
func (m ItemMeta) DedupeKey() string {
	if m.IdempotencyKey != "" {
		return m.IdempotencyKey
	}
	op := m.Operation
	if op == "" {
		op = OperationPut
	}
	return m.ID + "\x1f" + op
}

// Item is a single feed entry as served over HTTP. A nil Data with
// operation delete is a tombstone.
type Item struct {
	Position uint64          `json:"position"`
	Meta     ItemMeta        `json:"meta"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Page is one poll response. Items are ordered ascending by position and
// never contain duplicates.
type Page struct {
	Links Links  `json:"links"`
	Items []Item `json:"items"`
}
