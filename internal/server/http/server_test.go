package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spaceone/rest-feeds/pkg/feedapi"

	cfgpkg "github.com/spaceone/rest-feeds/internal/config"
	"github.com/spaceone/rest-feeds/internal/runtime"
	pebblestore "github.com/spaceone/rest-feeds/internal/storage/pebble"
	logpkg "github.com/spaceone/rest-feeds/pkg/log"
)

func newTestServer(t *testing.T, cfg cfgpkg.Config, opts ...Option) *Server {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfg})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	logger, _ := logpkg.ApplyConfig(&logpkg.Config{Level: "error", Format: "text"})
	return New(rt, logger, opts...)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t, cfgpkg.Default())
	w := do(t, s, http.MethodGet, "/v1/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestCreateAppendAndPage(t *testing.T) {
	s := newTestServer(t, cfgpkg.Default())
	if w := do(t, s, http.MethodPost, "/v1/feeds/create", `{"feed":"orders","mode":"data"}`); w.Code != http.StatusCreated {
		t.Fatalf("create status: %d %s", w.Code, w.Body.String())
	}
	w := do(t, s, http.MethodPost, "/v1/feeds/append", `{"feed":"orders","type":"com.example.order","id":"123456","data":{"total":10}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("append status: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Position uint64 `json:"position"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Position == 0 {
		t.Fatalf("append resp: %s err %v", w.Body.String(), err)
	}

	w = do(t, s, http.MethodGet, fmt.Sprintf("/feeds/orders?offset=%d", resp.Position-1), "")
	if w.Code != http.StatusOK {
		t.Fatalf("page status: %d %s", w.Code, w.Body.String())
	}
	var page feedapi.Page
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Meta.ID != "123456" {
		t.Fatalf("page items: %+v", page.Items)
	}
	if page.Links.Self == "" || page.Links.Next == "" {
		t.Fatalf("page links: %+v", page.Links)
	}
}

func TestPageBadOffset(t *testing.T) {
	s := newTestServer(t, cfgpkg.Default())
	if w := do(t, s, http.MethodGet, "/feeds/orders?offset=abc", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/feeds/orders?offset=-1", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("negative offset status: %d", w.Code)
	}
}

func TestPageNotAcceptable(t *testing.T) {
	s := newTestServer(t, cfgpkg.Default())
	req := httptest.NewRequest(http.MethodGet, "/feeds/orders", nil)
	req.Header.Set("Accept", "application/xml")
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusNotAcceptable {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestUnknownFeedIs404(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.AllowAutoCreateFeeds = false
	s := newTestServer(t, cfg)
	if w := do(t, s, http.MethodGet, "/feeds/ghost", ""); w.Code != http.StatusNotFound {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestCreateModeConflict(t *testing.T) {
	s := newTestServer(t, cfgpkg.Default())
	if w := do(t, s, http.MethodPost, "/v1/feeds/create", `{"feed":"orders","mode":"data"}`); w.Code != http.StatusCreated {
		t.Fatalf("create: %d", w.Code)
	}
	// same mode is idempotent
	if w := do(t, s, http.MethodPost, "/v1/feeds/create", `{"feed":"orders","mode":"data"}`); w.Code != http.StatusCreated {
		t.Fatalf("re-create: %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/v1/feeds/create", `{"feed":"orders","mode":"event"}`); w.Code != http.StatusConflict {
		t.Fatalf("conflicting mode: %d", w.Code)
	}
}

func TestInvalidFeedName(t *testing.T) {
	s := newTestServer(t, cfgpkg.Default())
	if w := do(t, s, http.MethodPost, "/v1/feeds/create", `{"feed":"Not Valid!","mode":"data"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("status: %d %s", w.Code, w.Body.String())
	}
}

func TestListAndStats(t *testing.T) {
	s := newTestServer(t, cfgpkg.Default())
	if w := do(t, s, http.MethodPost, "/v1/feeds/create", `{"feed":"orders","mode":"data"}`); w.Code != http.StatusCreated {
		t.Fatalf("create: %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/v1/feeds/append", `{"feed":"orders","type":"t","id":"1","data":1}`); w.Code != http.StatusOK {
		t.Fatalf("append: %d", w.Code)
	}
	w := do(t, s, http.MethodGet, "/v1/feeds", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"orders"`) {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}
	w = do(t, s, http.MethodGet, "/v1/feeds/stats?feed=orders", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"count":1`) {
		t.Fatalf("stats: %d %s", w.Code, w.Body.String())
	}
}

func TestAuthenticatorRejects(t *testing.T) {
	s := newTestServer(t, cfgpkg.Default(), WithAuthenticator(func(r *http.Request) error {
		if r.Header.Get("Authorization") != "Bearer token" {
			return fmt.Errorf("missing token")
		}
		return nil
	}))
	if w := do(t, s, http.MethodGet, "/v1/healthz", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("status without token: %d", w.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status with token: %d", w.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t, cfgpkg.Default())
	w := do(t, s, http.MethodGet, "/v1/healthz", "")
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id missing")
	}
}
