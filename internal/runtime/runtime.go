package runtime

import (
	"context"
	"errors"
	"time"

	cfgpkg "github.com/spaceone/rest-feeds/internal/config"
	"github.com/spaceone/rest-feeds/internal/feed"
	pebblestore "github.com/spaceone/rest-feeds/internal/storage/pebble"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
}

// Runtime wires storage and config for a single-node instance.
type Runtime struct {
	db     *pebblestore.DB
	config cfgpkg.Config
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: opts.DataDir, Fsync: opts.Fsync, FsyncInterval: opts.FsyncInterval})
	if err != nil {
		return nil, err
	}
	return &Runtime{db: db, config: opts.Config}, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple storage health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// EnsureFeed registers a feed if absent and returns its meta.
func (r *Runtime) EnsureFeed(name string, mode feed.Mode, pageLimit int) (feed.Meta, error) {
	return feed.EnsureFeed(r.db, name, mode, pageLimit)
}

// OpenFeed opens the feed log for a registered feed.
func (r *Runtime) OpenFeed(meta feed.Meta) (*feed.Feed, error) {
	return feed.Open(r.db, meta.Name, meta.Mode)
}

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
