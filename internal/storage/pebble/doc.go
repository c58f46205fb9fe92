// Package pebblestore wraps a Pebble database with the durability policy
// and small helpers the feed log needs: batched atomic writes, bounded
// iterators for position scans, and an fsync mode selectable at startup.
package pebblestore
