package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spaceone/rest-feeds/pkg/feedapi"
	logpkg "github.com/spaceone/rest-feeds/pkg/log"
)

// ErrCursorPersistence is returned when the cursor store keeps failing past
// the retry policy's attempt budget. The poller stops rather than risk
// advancing past items whose progress it cannot record.
var ErrCursorPersistence = errors.New("client: cursor persistence failed")

// Options configures a Poller. Handler is required; everything else has a
// working default.
type Options struct {
	Handler Handler
	// Fetcher defaults to an HTTPFetcher with default settings.
	Fetcher PageFetcher
	// Store defaults to an in-memory store, losing progress on restart.
	Store CursorStore
	// PollInterval is the idle delay after an empty page, 5s when zero.
	PollInterval time.Duration
	// LongPollWait, when positive, is sent as the wait parameter so the
	// server holds empty fetches open instead of the client sleeping.
	LongPollWait time.Duration
	// FetchRetry bounds retries of transient fetch failures. Zero
	// MaxAttempts retries forever.
	FetchRetry RetryPolicy
	// PersistRetry bounds retries of cursor saves. Defaults to 5 attempts
	// of exponential backoff; exhaustion stops the poller with
	// ErrCursorPersistence.
	PersistRetry RetryPolicy
	Logger       logpkg.Logger
}

// Poller drives one consumer over one feed. It repeatedly fetches the page
// behind the cursor, hands every item to the handler in order, persists the
// advanced cursor, and follows the next link. Pages with a next link are
// followed immediately; an empty page idles for PollInterval before
// retrying the same URL.
type Poller struct {
	feedURL *url.URL
	opts    Options
	logger  logpkg.Logger
}

// NewPoller builds a poller for the given feed URL, e.g.
// "http://localhost:8080/feeds/orders". The URL must be absolute.
func NewPoller(feedURL string, opts Options) (*Poller, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("client: invalid feed url: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("client: feed url must be absolute: %s", feedURL)
	}
	if opts.Handler == nil {
		return nil, errors.New("client: Options.Handler is required")
	}
	if opts.Fetcher == nil {
		opts.Fetcher = &HTTPFetcher{}
	}
	if opts.Store == nil {
		opts.Store = NewMemoryCursorStore()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.FetchRetry == (RetryPolicy{}) {
		opts.FetchRetry = DefaultRetryPolicy()
	}
	if opts.PersistRetry == (RetryPolicy{}) {
		opts.PersistRetry = RetryPolicy{Type: BackoffExp, Base: 100 * time.Millisecond, Cap: 5 * time.Second, MaxAttempts: 5}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNullLogger()
	}
	return &Poller{
		feedURL: u,
		opts:    opts,
		logger:  logger.With(logpkg.Component("poller"), logpkg.Str("feed", feedURL)),
	}, nil
}

// Run polls until the context is cancelled or a fatal error occurs: a 4xx
// response, a handler error that keeps failing is NOT fatal (it retries
// forever), but cursor persistence exhaustion is.
func (p *Poller) Run(ctx context.Context) error {
	cursor, err := p.opts.Store.Load(ctx, p.feedURL.String())
	if err != nil {
		return fmt.Errorf("client: load cursor: %w", err)
	}
	if cursor.FeedURL == "" {
		cursor.FeedURL = p.feedURL.String()
	}

	var handlerAttempts uint32
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := p.pageURL(cursor)

		page, err := p.fetchWithRetry(ctx, target)
		if err != nil {
			return err
		}

		if err := p.processPage(ctx, page); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			handlerAttempts++
			p.logger.Warn("handler failed, page will be redelivered",
				logpkg.Err(err), logpkg.Uint64("attempts", uint64(handlerAttempts)))
			if !p.sleep(ctx, computeBackoff(p.opts.FetchRetry, handlerAttempts)) {
				return ctx.Err()
			}
			continue
		}
		handlerAttempts = 0

		if page.Links.Next != "" {
			next, err := p.resolveLink(page.Links.Next)
			if err != nil {
				return err
			}
			cursor.NextLink = next
			if err := p.persistWithRetry(ctx, cursor); err != nil {
				return err
			}
			// a page with items invites an immediate re-fetch
			continue
		}

		delay := p.opts.PollInterval
		if p.opts.LongPollWait > 0 {
			// server held the request open already
			delay = 0
		}
		if !p.sleep(ctx, delay) {
			return ctx.Err()
		}
	}
}

// pageURL resolves the URL to fetch next: the persisted next link when one
// exists, otherwise the feed URL itself, plus the wait parameter when long
// polling is on.
func (p *Poller) pageURL(c Cursor) string {
	raw := c.NextLink
	if raw == "" {
		raw = p.feedURL.String()
	}
	if p.opts.LongPollWait <= 0 {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("wait", p.opts.LongPollWait.String())
	u.RawQuery = q.Encode()
	return u.String()
}

// resolveLink makes a server-relative next link absolute against the feed URL.
func (p *Poller) resolveLink(link string) (string, error) {
	ref, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("client: malformed next link %q: %w", link, err)
	}
	return p.feedURL.ResolveReference(ref).String(), nil
}

// processPage hands items to the handler in order. The first handler error
// abandons the rest of the page; the cursor has not moved, so the whole
// page is redelivered.
func (p *Poller) processPage(ctx context.Context, page feedapi.Page) error {
	for _, item := range page.Items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.opts.Handler.HandleItem(ctx, item); err != nil {
			return fmt.Errorf("item at position %d: %w", item.Position, err)
		}
	}
	return nil
}

func (p *Poller) fetchWithRetry(ctx context.Context, target string) (feedapi.Page, error) {
	var attempts uint32
	for {
		page, err := p.opts.Fetcher.FetchPage(ctx, target)
		if err == nil {
			return page, nil
		}
		if ctx.Err() != nil {
			return feedapi.Page{}, ctx.Err()
		}
		if !errors.Is(err, ErrServerUnavailable) {
			return feedapi.Page{}, err
		}
		attempts++
		pol := p.opts.FetchRetry
		if pol.MaxAttempts > 0 && attempts >= pol.MaxAttempts {
			return feedapi.Page{}, err
		}
		p.logger.Warn("fetch failed, backing off", logpkg.Err(err), logpkg.Str("url", target))
		if !p.sleep(ctx, computeBackoff(pol, attempts)) {
			return feedapi.Page{}, ctx.Err()
		}
	}
}

func (p *Poller) persistWithRetry(ctx context.Context, c Cursor) error {
	var attempts uint32
	for {
		err := p.opts.Store.Save(ctx, c)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		attempts++
		pol := p.opts.PersistRetry
		if pol.MaxAttempts > 0 && attempts >= pol.MaxAttempts {
			return fmt.Errorf("%w: %v", ErrCursorPersistence, err)
		}
		p.logger.Warn("cursor save failed, backing off", logpkg.Err(err))
		if !p.sleep(ctx, computeBackoff(pol, attempts)) {
			return ctx.Err()
		}
	}
}

// sleep waits for d or context cancellation, reporting false on cancel.
func (p *Poller) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
