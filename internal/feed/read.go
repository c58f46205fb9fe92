package feed

import (
	"github.com/cockroachdb/pebble"
)

// Query returns up to limit resolvable entries with position strictly
// greater than afterExclusive, ascending. An afterExclusive that lands on a
// compacted position is not an error: the seek transparently continues from
// the next surviving position. afterExclusive 0 means start of feed.
func (f *Feed) Query(afterExclusive uint64, limit int) ([]Entry, error) {
	return f.QueryFunc(afterExclusive, limit, nil)
}

// QueryFunc is Query with an optional keep predicate evaluated during the
// scan; entries rejected by keep do not count against limit.
func (f *Feed) QueryFunc(afterExclusive uint64, limit int, keep func(Entry) bool) ([]Entry, error) {
	hint := limit
	if hint <= 0 || hint > 64 {
		hint = 64
	}
	items := make([]Entry, 0, hint)
	if afterExclusive >= MaxPosition {
		return items, nil
	}

	low, hi := entryBounds(f.name)
	iter, err := f.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return items, err
	}
	defer iter.Close()

	start := KeyEntry(f.name, afterExclusive+1)
	for ok := iter.SeekGE(start); ok && (limit <= 0 || len(items) < limit); ok = iter.Next() {
		pos := positionFromKey(iter.Key())
		e, decoded := DecodeEntry(pos, iter.Value())
		if !decoded {
			continue
		}
		if keep != nil && !keep(e) {
			continue
		}
		items = append(items, e)
	}
	return items, nil
}

// Stats summarizes a feed's surviving entries.
type Stats struct {
	FirstPosition uint64 `json:"firstPosition"`
	LastPosition  uint64 `json:"lastPosition"`
	Count         uint64 `json:"count"`
	Bytes         uint64 `json:"bytes"`
}

// Stats scans the feed and reports first/last surviving positions, live
// entry count, and approximate stored bytes. LastPosition reflects the
// sequence head, which may exceed the last surviving entry after compaction.
func (f *Feed) Stats() (Stats, error) {
	var st Stats
	low, hi := entryBounds(f.name)
	iter, err := f.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return st, err
	}
	defer iter.Close()

	for ok := iter.First(); ok; ok = iter.Next() {
		pos := positionFromKey(iter.Key())
		if st.Count == 0 {
			st.FirstPosition = pos
		}
		st.Count++
		st.Bytes += uint64(len(iter.Value()))
	}
	st.LastPosition = f.seq.Last()
	return st, nil
}
