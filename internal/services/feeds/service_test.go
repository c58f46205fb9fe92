package feedsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	cfgpkg "github.com/spaceone/rest-feeds/internal/config"
	"github.com/spaceone/rest-feeds/internal/feed"
	"github.com/spaceone/rest-feeds/internal/runtime"
	pebblestore "github.com/spaceone/rest-feeds/internal/storage/pebble"
	logpkg "github.com/spaceone/rest-feeds/pkg/log"
)

func newTestService(t *testing.T, cfg cfgpkg.Config) *Service {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfg})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	logger, _ := logpkg.ApplyConfig(&logpkg.Config{Level: "error"})
	return New(rt, logger)
}

func TestAppendAndFetchPaging(t *testing.T) {
	s := newTestService(t, cfgpkg.Default())
	ctx := context.Background()
	if _, err := s.Create(ctx, "orders", feed.ModeData, 0); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := s.Append(ctx, "orders", AppendRequest{Type: "com.example.order", ID: "123456", Data: []byte(`{"total":10}`)})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	second, err := s.Append(ctx, "orders", AppendRequest{Type: "com.example.order", ID: "777777", Data: []byte(`{"total":20}`)})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	// offset before both entries yields both, in order, with a next link
	// at the second position
	page, err := s.Fetch(ctx, "orders", FetchOptions{Offset: first.Position - 1})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].Position != first.Position || page.Items[1].Position != second.Position {
		t.Fatalf("unexpected items: %+v", page.Items)
	}
	wantSelf := offsetLink("/feeds/orders", first.Position-1)
	if page.Links.Self != wantSelf {
		t.Fatalf("self link %q, want %q", page.Links.Self, wantSelf)
	}
	if page.Links.Next != offsetLink("/feeds/orders", second.Position) {
		t.Fatalf("next link %q", page.Links.Next)
	}

	// offset at the last position yields an empty page without next
	page, err = s.Fetch(ctx, "orders", FetchOptions{Offset: second.Position})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(page.Items) != 0 || page.Links.Next != "" {
		t.Fatalf("tail page not empty: %+v", page)
	}
	if page.Links.Self != offsetLink("/feeds/orders", second.Position) {
		t.Fatalf("tail self link %q", page.Links.Self)
	}
}

func TestFetchAfterCompactionShowsOnlyLatest(t *testing.T) {
	s := newTestService(t, cfgpkg.Default())
	ctx := context.Background()
	if _, err := s.Create(ctx, "inventory", feed.ModeData, 0); err != nil {
		t.Fatalf("create: %v", err)
	}

	old, err := s.Append(ctx, "inventory", AppendRequest{Type: "t", ID: "A", Data: []byte(`{"state":1}`)})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	neu, err := s.Append(ctx, "inventory", AppendRequest{Type: "t", ID: "A", Data: []byte(`{"state":2}`)})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	offset := old.Position - 1
	page, err := s.Fetch(ctx, "inventory", FetchOptions{Offset: offset})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Position != neu.Position {
		t.Fatalf("compacted entry leaked: %+v", page.Items)
	}
	if page.Links.Self != offsetLink("/feeds/inventory", offset) {
		t.Fatalf("self must echo requested offset: %q", page.Links.Self)
	}
	if page.Links.Next != offsetLink("/feeds/inventory", neu.Position) {
		t.Fatalf("next must encode surviving position: %q", page.Links.Next)
	}
}

func TestFetchStrictlyIncreasingAcrossPages(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.FeedDefaults.PageLimit = 3
	s := newTestService(t, cfg)
	ctx := context.Background()
	if _, err := s.Create(ctx, "ev", feed.ModeEvent, 3); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 10; i++ {
		if _, err := s.Append(ctx, "ev", AppendRequest{Type: "t", ID: "x", Data: []byte(`1`)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	var offset uint64
	var prev uint64
	total := 0
	for {
		page, err := s.Fetch(ctx, "ev", FetchOptions{Offset: offset})
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if len(page.Items) == 0 {
			if page.Links.Next != "" {
				t.Fatalf("empty page with next link")
			}
			break
		}
		if page.Links.Next == "" {
			t.Fatalf("non-empty page without next link")
		}
		for _, it := range page.Items {
			if it.Position <= prev {
				t.Fatalf("position not strictly increasing: %d after %d", it.Position, prev)
			}
			prev = it.Position
			total++
		}
		offset = page.Items[len(page.Items)-1].Position
	}
	if total != 10 {
		t.Fatalf("want 10 items across pages, got %d", total)
	}
}

func TestFetchWithFilter(t *testing.T) {
	s := newTestService(t, cfgpkg.Default())
	ctx := context.Background()
	if _, err := s.Create(ctx, "mixed", feed.ModeEvent, 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Append(ctx, "mixed", AppendRequest{Type: "a", ID: "1", Data: []byte(`{"n":1}`)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	keep, err := s.Append(ctx, "mixed", AppendRequest{Type: "b", ID: "2", Data: []byte(`{"n":2}`)})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	page, err := s.Fetch(ctx, "mixed", FetchOptions{Filter: `type == "b" && json.n == 2.0`})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Position != keep.Position {
		t.Fatalf("filter wrong: %+v", page.Items)
	}

	if _, err := s.Fetch(ctx, "mixed", FetchOptions{Filter: `type ==`}); !errors.Is(err, ErrBadFilter) {
		t.Fatalf("want ErrBadFilter, got %v", err)
	}
}

func TestFetchLongPoll(t *testing.T) {
	s := newTestService(t, cfgpkg.Default())
	ctx := context.Background()
	if _, err := s.Create(ctx, "lp", feed.ModeEvent, 0); err != nil {
		t.Fatalf("create: %v", err)
	}

	type result struct {
		page int
		err  error
	}
	done := make(chan result, 1)
	go func() {
		page, err := s.Fetch(ctx, "lp", FetchOptions{Wait: 5 * time.Second})
		done <- result{page: len(page.Items), err: err}
	}()
	time.Sleep(20 * time.Millisecond)
	if _, err := s.Append(ctx, "lp", AppendRequest{Type: "t", ID: "1", Data: []byte(`1`)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	select {
	case r := <-done:
		if r.err != nil || r.page != 1 {
			t.Fatalf("long poll: %d items, err %v", r.page, r.err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("long poll never returned")
	}
}

func TestUnknownFeedWithoutAutoCreate(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.AllowAutoCreateFeeds = false
	s := newTestService(t, cfg)
	if _, err := s.Fetch(context.Background(), "ghost", FetchOptions{}); !errors.Is(err, ErrFeedNotFound) {
		t.Fatalf("want ErrFeedNotFound, got %v", err)
	}
}

func TestAppendDefaultsIdempotencyKey(t *testing.T) {
	s := newTestService(t, cfgpkg.Default())
	e, err := s.Append(context.Background(), "orders", AppendRequest{Type: "t", ID: "1", Data: []byte(`1`)})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if e.IdempotencyKey == "" {
		t.Fatalf("idempotency key not defaulted")
	}
}

func TestRetentionSweep(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.Retention.MaxAgeMs = 1 // everything older than 1ms ago
	s := newTestService(t, cfg)
	ctx := context.Background()
	if _, err := s.Create(ctx, "ev", feed.ModeEvent, 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create(ctx, "snap", feed.ModeData, 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Append(ctx, "ev", AppendRequest{Type: "t", ID: "1", Data: []byte(`1`)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.Append(ctx, "snap", AppendRequest{Type: "t", ID: "1", Data: []byte(`1`)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if err := s.SweepRetention(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	evPage, err := s.Fetch(ctx, "ev", FetchOptions{})
	if err != nil {
		t.Fatalf("fetch ev: %v", err)
	}
	if len(evPage.Items) != 0 {
		t.Fatalf("event feed not trimmed: %+v", evPage.Items)
	}
	snapPage, err := s.Fetch(ctx, "snap", FetchOptions{})
	if err != nil {
		t.Fatalf("fetch snap: %v", err)
	}
	if len(snapPage.Items) != 1 {
		t.Fatalf("data feed was trimmed: %+v", snapPage.Items)
	}
}
