package runtime

import (
	"context"
	"testing"

	cfgpkg "github.com/spaceone/rest-feeds/internal/config"
	"github.com/spaceone/rest-feeds/internal/feed"
	pebblestore "github.com/spaceone/rest-feeds/internal/storage/pebble"
)

func openTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := Open(Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestOpenAndHealth(t *testing.T) {
	rt := openTestRuntime(t)
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestEnsureAndOpenFeed(t *testing.T) {
	rt := openTestRuntime(t)
	meta, err := rt.EnsureFeed("orders", feed.ModeData, 0)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	f, err := rt.OpenFeed(meta)
	if err != nil {
		t.Fatalf("open feed: %v", err)
	}
	if f.Name() != "orders" || f.Mode() != feed.ModeData {
		t.Fatalf("unexpected feed: %s %s", f.Name(), f.Mode())
	}
}
