// Package id generates compact, time-ordered identifiers.
//
// The server uses these as default idempotency keys for feed entries whose
// publisher did not supply one: keys sort by creation time, are unique per
// process, and survive clock regressions by holding the last observed
// timestamp and bumping an in-millisecond sequence.
package id
