package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spaceone/rest-feeds/pkg/feedapi"
)

// ErrServerUnavailable marks transient fetch failures: network errors and
// 5xx responses. The poller retries these per its retry policy.
var ErrServerUnavailable = errors.New("client: feed server unavailable")

// RequestError marks non-retryable responses, 4xx from the server. The
// poller stops on these since retrying the same request cannot succeed.
type RequestError struct {
	Status int
	URL    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("client: request %s rejected with status %d", e.URL, e.Status)
}

// PageFetcher retrieves one feed page from a fully resolved URL.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (feedapi.Page, error)
}

// HTTPFetcher fetches feed pages over HTTP with a bounded per-request
// timeout. The zero value is usable.
type HTTPFetcher struct {
	// Client defaults to http.DefaultClient.
	Client *http.Client
	// Timeout bounds each request, 60s when zero. Keep it above the
	// server's long-poll window when wait is in use.
	Timeout time.Duration
	// Header is attached to every request, e.g. Authorization.
	Header http.Header
}

func (f *HTTPFetcher) FetchPage(ctx context.Context, url string) (feedapi.Page, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return feedapi.Page{}, err
	}
	for k, vs := range f.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if parent.Err() != nil {
			return feedapi.Page{}, parent.Err()
		}
		// request timeouts and network errors are transient
		return feedapi.Page{}, fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return feedapi.Page{}, fmt.Errorf("%w: status %d", ErrServerUnavailable, resp.StatusCode)
	default:
		return feedapi.Page{}, &RequestError{Status: resp.StatusCode, URL: url}
	}

	var page feedapi.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return feedapi.Page{}, fmt.Errorf("%w: malformed page: %v", ErrServerUnavailable, err)
	}
	return page, nil
}
