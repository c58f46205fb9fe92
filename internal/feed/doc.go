// Package feed implements the ordered feed log: position allocation,
// append with per-id compaction for data feeds, offset-based queries that
// tolerate compaction gaps, bounded blocking for long-polling, and
// time-based retention trims for event feeds.
//
// Entries live in Pebble under big-endian position keys, so a forward
// iterator yields them in allocation order. Appends commit entry, id index,
// and compaction delete in one batch; readers iterate a consistent view,
// which is what keeps scans from ever observing a half-compacted feed.
package feed
