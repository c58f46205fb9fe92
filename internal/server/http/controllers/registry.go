package controllers

import (
	"net/http"

	"github.com/spaceone/rest-feeds/internal/runtime"
	feedsvc "github.com/spaceone/rest-feeds/internal/services/feeds"
	logpkg "github.com/spaceone/rest-feeds/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
//
// It provides a centralized way to register all controller routes.
type ControllerRegistry struct {
	general *GeneralController
	feeds   *FeedsController
}

// NewControllerRegistry creates a new controller registry.
func NewControllerRegistry(rt *runtime.Runtime, svc *feedsvc.Service, logger logpkg.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(rt, svc),
		feeds:   NewFeedsController(rt, svc, logger),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.feeds.RegisterRoutes(mux)
}
