package feedsvc

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/spaceone/rest-feeds/internal/feed"
	"github.com/spaceone/rest-feeds/internal/runtime"
	"github.com/spaceone/rest-feeds/pkg/feedapi"
	"github.com/spaceone/rest-feeds/pkg/id"
	logpkg "github.com/spaceone/rest-feeds/pkg/log"
)

// Service provides the feed operations transports call into. It caches one
// open Feed per name so appenders and long-poll waiters share a sequencer
// and notify channel.
type Service struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
	keys   *id.Generator

	nameRe *regexp.Regexp

	mu    sync.Mutex
	feeds map[string]*feed.Feed
}

// New returns a Service bound to the runtime.
func New(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	re, err := regexp.Compile("^" + rt.Config().FeedNameRegex + "$")
	if err != nil {
		// fall back to the built-in default rather than accepting anything
		re = regexp.MustCompile("^[a-z0-9-_]{1,64}$")
		logger.Warn("invalid feed name regex, using default", logpkg.Err(err))
	}
	return &Service{
		rt:     rt,
		logger: logger.With(logpkg.Component("feeds")),
		keys:   id.NewGenerator(),
		nameRe: re,
		feeds:  make(map[string]*feed.Feed),
	}
}

// Create registers a feed with the given mode and optional page limit.
func (s *Service) Create(_ context.Context, name string, mode feed.Mode, pageLimit int) (feed.Meta, error) {
	if !s.nameRe.MatchString(name) {
		return feed.Meta{}, fmt.Errorf("%w: %q", ErrInvalidFeedName, name)
	}
	meta, err := s.rt.EnsureFeed(name, mode, pageLimit)
	if err != nil {
		return feed.Meta{}, err
	}
	s.logger.Info("feed ensured", logpkg.Str("feed", meta.Name), logpkg.Str("mode", string(meta.Mode)))
	return meta, nil
}

// open resolves a feed by name, auto-creating data feeds when the config
// allows it. The returned Feed is shared across callers.
func (s *Service) open(name string) (*feed.Feed, feed.Meta, error) {
	meta, found, err := feed.GetFeed(s.rt.DB(), name)
	if err != nil {
		return nil, feed.Meta{}, err
	}
	if !found {
		if !s.rt.Config().AllowAutoCreateFeeds || !s.nameRe.MatchString(name) {
			return nil, feed.Meta{}, fmt.Errorf("%w: %q", ErrFeedNotFound, name)
		}
		meta, err = s.rt.EnsureFeed(name, feed.ModeData, 0)
		if err != nil {
			return nil, feed.Meta{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.feeds[name]; ok {
		return f, meta, nil
	}
	f, err := s.rt.OpenFeed(meta)
	if err != nil {
		return nil, feed.Meta{}, err
	}
	s.feeds[name] = f
	return f, meta, nil
}

// Append publishes one entry. A missing idempotency key is filled with a
// server-generated time-ordered one so downstream consumers can always
// dedupe deliveries.
func (s *Service) Append(ctx context.Context, feedName string, req AppendRequest) (feed.Entry, error) {
	if limit := s.rt.Config().FeedDefaults.PayloadMaxBytes; limit > 0 && len(req.Data) > limit {
		return feed.Entry{}, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(req.Data))
	}
	f, _, err := s.open(feedName)
	if err != nil {
		return feed.Entry{}, err
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = s.keys.Next().String()
	}
	e, err := f.Append(ctx, feed.AppendRequest{
		Type:           req.Type,
		ID:             req.ID,
		Operation:      req.Operation,
		IdempotencyKey: req.IdempotencyKey,
		Data:           req.Data,
	})
	if err != nil {
		return feed.Entry{}, err
	}
	s.logger.Debug("entry appended",
		logpkg.Str("feed", feedName),
		logpkg.Uint64("position", e.Position),
		logpkg.Str("id", e.ID))
	return e, nil
}

// Fetch resolves a page of entries after opts.Offset and builds the wire
// page. An empty result with opts.Wait set holds the fetch open for new
// entries, bounded by the configured long-poll cap.
func (s *Service) Fetch(ctx context.Context, feedName string, opts FetchOptions) (feedapi.Page, error) {
	f, meta, err := s.open(feedName)
	if err != nil {
		return feedapi.Page{}, err
	}
	flt, err := newCELFilter(opts.Filter)
	if err != nil {
		return feedapi.Page{}, fmt.Errorf("%w: %v", ErrBadFilter, err)
	}

	limit := meta.PageLimit
	if limit <= 0 {
		limit = s.rt.Config().FeedDefaults.PageLimit
	}

	keep := func(e feed.Entry) bool { return flt.Eval(e) }
	items, err := f.QueryFunc(opts.Offset, limit, keep)
	if err != nil {
		return feedapi.Page{}, err
	}

	if len(items) == 0 && opts.Wait > 0 {
		wait := opts.Wait
		if bound := time.Duration(s.rt.Config().LongPollMaxMs) * time.Millisecond; bound > 0 && wait > bound {
			wait = bound
		}
		if f.WaitForAppend(ctx, wait) {
			items, err = f.QueryFunc(opts.Offset, limit, keep)
			if err != nil {
				return feedapi.Page{}, err
			}
		}
	}

	return BuildPage("/feeds/"+feedName, opts.Offset, items), nil
}

// List returns all registered feeds.
func (s *Service) List(_ context.Context) ([]feed.Meta, error) {
	return feed.ListFeeds(s.rt.DB())
}

// Stats reports a feed's stored state.
func (s *Service) Stats(_ context.Context, feedName string) (FeedStats, error) {
	f, meta, err := s.open(feedName)
	if err != nil {
		return FeedStats{}, err
	}
	st, err := f.Stats()
	if err != nil {
		return FeedStats{}, err
	}
	return FeedStats{Feed: meta.Name, Mode: meta.Mode, Stats: st}, nil
}

// TrimBefore removes event-feed entries created before the cutoff. Data
// feeds are not trimmed; compaction already bounds them.
func (s *Service) TrimBefore(ctx context.Context, feedName string, cutoffMs int64) (int, error) {
	f, meta, err := s.open(feedName)
	if err != nil {
		return 0, err
	}
	if meta.Mode != feed.ModeEvent {
		return 0, nil
	}
	return f.TrimBefore(ctx, cutoffMs, 0, 0)
}

// SweepRetention trims every event feed by the configured max age. No-op
// when retention is disabled.
func (s *Service) SweepRetention(ctx context.Context) error {
	maxAge := s.rt.Config().Retention.MaxAgeMs
	if maxAge <= 0 {
		return nil
	}
	cutoff := time.Now().UnixMilli() - maxAge
	metas, err := feed.ListFeeds(s.rt.DB())
	if err != nil {
		return err
	}
	for _, m := range metas {
		if m.Mode != feed.ModeEvent {
			continue
		}
		n, err := s.TrimBefore(ctx, m.Name, cutoff)
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.Info("retention trim", logpkg.Str("feed", m.Name), logpkg.Int("deleted", n))
		}
	}
	return nil
}
