// Package runtime wires storage and configuration into the handle the
// server services share: one Pebble database, one Config, and feed
// open/ensure helpers on top of both.
package runtime
