package feed

import (
	"context"
	"time"

	"github.com/cockroachdb/pebble"
)

// TrimBefore deletes entries created before cutoffMs. Intended for event
// feeds, whose entries are immutable until an explicit retention cutoff.
// Deletes are committed in batches of up to batchLimit keys with an
// optional throttle between commits. The scan stops at the first entry at
// or past the cutoff: creation times are assigned under the append lock,
// so they are non-decreasing in position order.
// Returns the number of deleted entries.
func (f *Feed) TrimBefore(ctx context.Context, cutoffMs int64, batchLimit int, throttle time.Duration) (int, error) {
	if batchLimit <= 0 {
		batchLimit = 1024
	}

	low, hi := entryBounds(f.name)
	iter, err := f.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	deleted := 0
	for ok := iter.First(); ok; {
		b := f.db.NewBatch()
		n := 0
		for ok && n < batchLimit {
			pos := positionFromKey(iter.Key())
			e, decoded := DecodeEntry(pos, iter.Value())
			if decoded && e.Created.UnixMilli() < cutoffMs {
				if err := b.Delete(iter.Key(), nil); err != nil {
					b.Close()
					return deleted, err
				}
				deleted++
				n++
				ok = iter.Next()
				continue
			}
			ok = false
			break
		}
		if n > 0 {
			if err := f.db.CommitBatch(ctx, b); err != nil {
				b.Close()
				return deleted, err
			}
			b.Close()
			if throttle > 0 {
				time.Sleep(throttle)
			}
		} else {
			b.Close()
		}
	}
	return deleted, nil
}
