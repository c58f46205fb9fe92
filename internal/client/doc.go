// Package client implements the consumer side of the feed protocol: a
// polling loop that walks a feed's next links, hands every item to a
// handler in order, and persists its cursor only after a page has been
// fully processed.
//
// Delivery is at-least-once. A crash between processing and cursor
// persistence replays the last page, so handlers must tolerate duplicates;
// DedupeHandler gives a drop-in idempotent wrapper keyed by each item's
// idempotency key.
//
// Example:
//
//	store, _ := client.OpenCursorStore(dataDir)
//	p := client.NewPoller("http://localhost:8080/feeds/orders", client.Options{
//		Handler: client.HandlerFunc(func(ctx context.Context, item feedapi.Item) error {
//			return project(item)
//		}),
//		Store:  store,
//		Logger: logger,
//	})
//	err := p.Run(ctx)
package client
