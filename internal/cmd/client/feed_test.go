package client

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newAPIStub(t *testing.T) (*httptest.Server, *map[string]string) {
	t.Helper()
	seen := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := new(bytes.Buffer)
		_, _ = body.ReadFrom(r.Body)
		seen[r.URL.Path] = body.String()
		switch r.URL.Path {
		case "/v1/feeds/create":
			w.WriteHeader(http.StatusCreated)
		case "/v1/feeds/append":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"position":42}`))
		case "/v1/feeds":
			_, _ = w.Write([]byte(`{"feeds":[{"feed":"orders","mode":"data"}]}`))
		case "/v1/feeds/stats":
			_, _ = w.Write([]byte(`{"feed":"orders","count":3}`))
		default:
			if strings.HasPrefix(r.URL.Path, "/feeds/") {
				_, _ = w.Write([]byte(`{"links":{"self":"/feeds/orders?offset=0"},"items":[]}`))
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func execute(t *testing.T, srv *httptest.Server, args ...string) string {
	t.Helper()
	cmd := NewFeedCommand(func() string { return srv.URL })
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v", args, err)
	}
	return buf.String()
}

func TestFeedCreateCommand(t *testing.T) {
	srv, seen := newAPIStub(t)
	out := execute(t, srv, "create", "--name", "orders", "--mode", "data")
	if !strings.Contains(out, "created: orders") {
		t.Fatalf("output: %s", out)
	}
	var req map[string]any
	if err := json.Unmarshal([]byte((*seen)["/v1/feeds/create"]), &req); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if req["feed"] != "orders" || req["mode"] != "data" {
		t.Fatalf("create body: %v", req)
	}
}

func TestFeedAppendCommand(t *testing.T) {
	srv, seen := newAPIStub(t)
	out := execute(t, srv, "append", "--feed", "orders", "--type", "t", "--id", "123", "--data", `{"total":10}`)
	if !strings.Contains(out, "position: 42") {
		t.Fatalf("output: %s", out)
	}
	if !strings.Contains((*seen)["/v1/feeds/append"], `"total":10`) {
		t.Fatalf("append body: %s", (*seen)["/v1/feeds/append"])
	}
}

func TestFeedAppendRejectsBadJSON(t *testing.T) {
	srv, _ := newAPIStub(t)
	cmd := NewFeedCommand(func() string { return srv.URL })
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"append", "--feed", "orders", "--id", "1", "--data", "{not json"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for invalid JSON data")
	}
}

func TestFeedListCommand(t *testing.T) {
	srv, _ := newAPIStub(t)
	out := execute(t, srv, "list")
	if !strings.Contains(out, `"orders"`) {
		t.Fatalf("output: %s", out)
	}
}

func TestFeedEntriesCommand(t *testing.T) {
	srv, _ := newAPIStub(t)
	out := execute(t, srv, "entries", "--feed", "orders", "--offset", "7")
	if !strings.Contains(out, `"self"`) {
		t.Fatalf("output: %s", out)
	}
}
