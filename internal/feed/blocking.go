package feed

import (
	"context"
	"time"
)

// WaitForAppend blocks until a new append occurs, the timeout elapses, or
// ctx is cancelled. Returns true only when woken by an append. The long-poll
// fetch path uses this to hold an empty poll open for a bounded duration.
func (f *Feed) WaitForAppend(ctx context.Context, timeout time.Duration) bool {
	f.mu.Lock()
	ch := f.notifyCh
	f.mu.Unlock()

	if timeout <= 0 {
		select {
		case <-ch:
			return true
		case <-ctx.Done():
			return false
		}
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ch:
		return true
	case <-t.C:
		return false
	case <-ctx.Done():
		return false
	}
}
