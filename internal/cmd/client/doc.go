// Package client provides the `restfeeds` command-line client.
//
// The CLI talks to the feed server's HTTP API to perform common feed
// operations from a terminal. It is primarily intended for developers
// and operators.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. When using the standalone binary, it is
// read from the FEEDS_HTTP environment variable and defaults to
// http://127.0.0.1:8080.
//
// Usage
//
//	restfeeds feed create --name orders --mode data
//
//	restfeeds feed append \
//	    --feed orders --type com.example.order --id 123456 \
//	    --data '{"total":10}'
//
//	restfeeds feed entries --feed orders --offset 0
//	restfeeds feed list
//	restfeeds feed stats --feed orders
//
//	# Follow a feed with a durable cursor stored under --cursor-dir
//	restfeeds feed subscribe --feed orders --cursor-dir ./cursors
//
// Notes
//
//   - subscribe runs the polling consumer loop: it walks next links,
//     prints each item as JSON, and persists its cursor after every page
//     so a restart resumes where it left off.
//   - append with --operation delete publishes a tombstone for the id.
package client
