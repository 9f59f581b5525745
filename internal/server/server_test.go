package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lazypower/sable/internal/engine"
	"github.com/lazypower/sable/internal/store"
)

var epoch = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func testServer(t *testing.T, opts ...engine.Option) *Server {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	metrics := NewMetrics()
	opts = append([]engine.Option{
		engine.WithClock(func() time.Time { return epoch }),
		engine.WithObserver(metrics),
	}, opts...)
	return New(db, engine.New(db, opts...), "test-version", metrics)
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["db"] != true {
		t.Errorf("db = %v, want true", body["db"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("POST", "/api/emotions", strings.NewReader(`{"type":"joy","intensity":0.5}`))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("add emotion: status = %d; body: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest("GET", "/metrics", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	for _, want := range []string{
		`sable_emotions_added_total{kind="joy"} 1`,
		`sable_http_requests_total{method="POST",route="/api/emotions",status="201"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestErrorMapping(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		method, path, body string
		want               int
	}{
		{"POST", "/api/emotions", `{"type":"nostalgia","intensity":0.5}`, http.StatusBadRequest},
		{"POST", "/api/emotions", `not json`, http.StatusBadRequest},
		{"POST", "/api/body", `{"changes":{"mood":0.2}}`, http.StatusBadRequest},
		{"GET", "/api/memories/999", "", http.StatusNotFound},
		{"GET", "/api/memories/abc", "", http.StatusBadRequest},
		{"GET", "/api/memories?sort=random", "", http.StatusBadRequest},
		{"GET", "/api/memories?since=yesterday", "", http.StatusBadRequest},
		{"GET", "/api/memories/context?max_total=-1", "", http.StatusBadRequest},
		{"GET", "/api/memories/context?days_for_recent=200000", "", http.StatusBadRequest},
		{"POST", "/api/markers/reinforce", `{"cue":"nothing","outcome_valence":0.5}`, http.StatusNotFound},
		{"GET", "/api/markers/lookup", "", http.StatusBadRequest},
		{"PUT", "/api/traits/curiosity", `{"strength":2}`, http.StatusBadRequest},
		{"POST", "/api/analyze", `{}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)

		if w.Code != tt.want {
			t.Errorf("%s %s: status = %d, want %d; body: %s", tt.method, tt.path, w.Code, tt.want, w.Body.String())
			continue
		}
		var resp map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Errorf("%s %s: decode body: %v", tt.method, tt.path, err)
			continue
		}
		if resp["error"] == nil || resp["error"] == "" {
			t.Errorf("%s %s: expected error message in body", tt.method, tt.path)
		}
	}
}
