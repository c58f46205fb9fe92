package client

import (
	"context"
	"testing"
)

func TestMemoryCursorStoreRoundTrip(t *testing.T) {
	s := NewMemoryCursorStore()
	ctx := context.Background()

	c, err := s.Load(ctx, "http://x/feeds/a")
	if err != nil {
		t.Fatalf("load unseen: %v", err)
	}
	if c.FeedURL != "http://x/feeds/a" || c.NextLink != "" {
		t.Fatalf("zero cursor: %+v", c)
	}

	c.NextLink = "http://x/feeds/a?offset=9"
	if err := s.Save(ctx, c); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, c.FeedURL)
	if err != nil || got != c {
		t.Fatalf("load: %+v err %v", got, err)
	}

	if err := s.Save(ctx, Cursor{}); err == nil {
		t.Fatalf("save without feed url must fail")
	}
}

func TestPebbleCursorStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenCursorStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	c := Cursor{FeedURL: "http://x/feeds/a", NextLink: "http://x/feeds/a?offset=42"}
	if err := s.Save(ctx, c); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := OpenCursorStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	got, err := s2.Load(ctx, c.FeedURL)
	if err != nil || got != c {
		t.Fatalf("load after reopen: %+v err %v", got, err)
	}

	other, err := s2.Load(ctx, "http://x/feeds/other")
	if err != nil || other.NextLink != "" {
		t.Fatalf("unseen feed: %+v err %v", other, err)
	}
}
