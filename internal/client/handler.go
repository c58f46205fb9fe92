package client

import (
	"context"
	"sync"

	"github.com/spaceone/rest-feeds/pkg/feedapi"
)

// Handler processes one feed item. Returning an error halts the current
// page before the cursor advances, so the item is redelivered on the next
// attempt. Handlers see items in position order and must tolerate
// duplicates.
type Handler interface {
	HandleItem(ctx context.Context, item feedapi.Item) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, item feedapi.Item) error

func (f HandlerFunc) HandleItem(ctx context.Context, item feedapi.Item) error {
	return f(ctx, item)
}

// DedupeHandler wraps a handler with in-memory duplicate suppression keyed
// by each item's idempotency key. Replayed items after a crash-restart of
// the same process are silently dropped; a fresh process starts with an
// empty seen set and relies on the inner handler's own idempotency.
type DedupeHandler struct {
	inner Handler

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDedupeHandler(inner Handler) *DedupeHandler {
	return &DedupeHandler{inner: inner, seen: map[string]struct{}{}}
}

func (h *DedupeHandler) HandleItem(ctx context.Context, item feedapi.Item) error {
	key := item.Meta.DedupeKey()
	h.mu.Lock()
	_, dup := h.seen[key]
	h.mu.Unlock()
	if dup {
		return nil
	}
	if err := h.inner.HandleItem(ctx, item); err != nil {
		return err
	}
	h.mu.Lock()
	h.seen[key] = struct{}{}
	h.mu.Unlock()
	return nil
}
