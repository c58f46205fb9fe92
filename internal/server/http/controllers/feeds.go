package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/spaceone/rest-feeds/internal/feed"
	"github.com/spaceone/rest-feeds/internal/runtime"
	feedsvc "github.com/spaceone/rest-feeds/internal/services/feeds"
	logpkg "github.com/spaceone/rest-feeds/pkg/log"
)

// FeedsController handles all feed-related HTTP endpoints.
//
// It serves the consumer-facing page endpoint under /feeds/{name} and the
// JSON management surface under /v1/feeds for publishers and operators.
type FeedsController struct {
	rt     *runtime.Runtime
	svc    *feedsvc.Service
	logger logpkg.Logger
}

// NewFeedsController creates a new feeds controller.
func NewFeedsController(rt *runtime.Runtime, svc *feedsvc.Service, logger logpkg.Logger) *FeedsController {
	return &FeedsController{rt: rt, svc: svc, logger: logger}
}

// RegisterRoutes registers all feed-related routes with the given mux.
//
// This method sets up HTTP endpoints for:
// - Page consumption (/feeds/{name})
// - Feed management (create, append, trim)
// - Statistics (/v1/feeds/stats)
func (c *FeedsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/feeds/", c.handleGetPage)
	mux.HandleFunc("/v1/feeds/create", c.handleCreate)
	mux.HandleFunc("/v1/feeds/append", c.handleAppend)
	mux.HandleFunc("/v1/feeds/trim", c.handleTrim)
	mux.HandleFunc("/v1/feeds/stats", c.handleStats)
}

// handleGetPage serves one feed page.
//
// Query parameters:
// - offset: exclusive position the consumer has processed up to (default 0)
// - filter: optional CEL expression evaluated per item
// - wait: optional long-poll duration for empty pages ("5s" or milliseconds)
func (c *FeedsController) handleGetPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !acceptsJSON(r) {
		writeError(w, http.StatusNotAcceptable, "Only application/json is served")
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/feeds/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusNotFound, "Unknown feed path")
		return
	}
	q := r.URL.Query()
	offset, ok := parseOffset(q.Get("offset"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid offset")
		return
	}
	page, err := c.svc.Fetch(r.Context(), name, feedsvc.FetchOptions{
		Offset: offset,
		Filter: q.Get("filter"),
		Wait:   parseWait(q.Get("wait")),
	})
	if err != nil {
		c.writeServiceError(w, err)
		return
	}
	writeJSON(w, page)
}

// handleCreate registers a feed.
//
// Expects a JSON body with "feed" and optional "mode" (data|event) and
// "page_limit" fields. Returns 201 Created; re-creating an existing feed
// with the same mode is a no-op 201.
func (c *FeedsController) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req createReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	mode := feed.Mode(req.Mode)
	switch mode {
	case "", feed.ModeData, feed.ModeEvent:
	default:
		writeError(w, http.StatusBadRequest, "Invalid feed mode")
		return
	}
	if _, err := c.svc.Create(r.Context(), req.Feed, mode, req.PageLimit); err != nil {
		c.writeServiceError(w, err)
		return
	}
	writeCreated(w)
}

// handleAppend appends one item to a feed and returns its position.
func (c *FeedsController) handleAppend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req appendReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	var op feed.Operation
	switch req.Operation {
	case "", string(feed.OpPut):
		op = feed.OpPut
	case string(feed.OpDelete):
		op = feed.OpDelete
	default:
		writeError(w, http.StatusBadRequest, "Invalid operation")
		return
	}
	entry, err := c.svc.Append(r.Context(), req.Feed, feedsvc.AppendRequest{
		Type:           req.Type,
		ID:             req.ID,
		Operation:      op,
		IdempotencyKey: req.IdempotencyKey,
		Data:           req.Data,
	})
	if err != nil {
		c.writeServiceError(w, err)
		return
	}
	writeJSON(w, appendResp{Position: entry.Position})
}

// handleTrim removes event feed items older than a cutoff timestamp.
//
// The "before" field accepts RFC3339 or Unix milliseconds.
func (c *FeedsController) handleTrim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req trimReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	cutoffMs := parseTimestamp(req.Before)
	if cutoffMs <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid cutoff timestamp")
		return
	}
	removed, err := c.svc.TrimBefore(r.Context(), req.Feed, cutoffMs)
	if err != nil {
		c.writeServiceError(w, err)
		return
	}
	writeJSON(w, trimResp{Removed: removed})
}

// handleStats returns statistics for one feed selected by ?feed=.
func (c *FeedsController) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	name := r.URL.Query().Get("feed")
	st, err := c.svc.Stats(r.Context(), name)
	if err != nil {
		c.writeServiceError(w, err)
		return
	}
	writeJSON(w, feedStatsJSON{
		Feed:          st.Feed,
		Mode:          string(st.Mode),
		FirstPosition: st.FirstPosition,
		LastPosition:  st.LastPosition,
		Count:         st.Count,
		Bytes:         st.Bytes,
	})
}

// writeServiceError maps service errors onto HTTP status codes.
func (c *FeedsController) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, feedsvc.ErrFeedNotFound):
		writeError(w, http.StatusNotFound, "Feed not found")
	case errors.Is(err, feedsvc.ErrInvalidFeedName):
		writeError(w, http.StatusBadRequest, "Invalid feed name")
	case errors.Is(err, feedsvc.ErrBadFilter):
		writeError(w, http.StatusBadRequest, "Invalid filter expression")
	case errors.Is(err, feedsvc.ErrPayloadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "Payload too large")
	case errors.Is(err, feed.ErrMissingID), errors.Is(err, feed.ErrMissingType):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, feed.ErrModeMismatch):
		writeError(w, http.StatusConflict, "Feed exists with a different mode")
	default:
		c.logger.Error("request failed", logpkg.Err(err))
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}
