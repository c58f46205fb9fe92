package controllers

import (
	"net/http"

	"github.com/spaceone/rest-feeds/internal/runtime"
	feedsvc "github.com/spaceone/rest-feeds/internal/services/feeds"
)

// GeneralController handles general HTTP endpoints like health and the
// feed registry listing.
type GeneralController struct {
	rt  *runtime.Runtime
	svc *feedsvc.Service
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime, svc *feedsvc.Service) *GeneralController {
	return &GeneralController{rt: rt, svc: svc}
}

// RegisterRoutes registers general routes with the given mux.
//
// This method sets up HTTP endpoints for:
// - Health checks (/v1/healthz)
// - Feed registry listing (/v1/feeds)
func (c *GeneralController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/healthz", c.handleHealth)
	mux.HandleFunc("/v1/feeds", c.handleListFeeds)
}

// handleHealth returns the health status of the service.
//
// Returns 200 OK with {"status": "ok"} if healthy, 503 Service Unavailable otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_serving")
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleListFeeds lists all registered feeds.
func (c *GeneralController) handleListFeeds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	metas, err := c.svc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list feeds")
		return
	}
	out := make([]feedInfoJSON, 0, len(metas))
	for _, m := range metas {
		out = append(out, feedInfoJSON{
			Feed:      m.Name,
			Mode:      string(m.Mode),
			PageLimit: m.PageLimit,
			CreatedMs: m.CreatedAtMs,
		})
	}
	writeJSON(w, map[string]any{"feeds": out})
}
