// Package httpserver exposes the feed surface over HTTP: the consumer-facing
// feed pages under /feeds/{name} with long-poll support, and JSON management
// endpoints under /v1 for creating feeds, appending items, and reading stats.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: config.Default()})
//	s := httpserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
