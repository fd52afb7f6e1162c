package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oremus-labs/scribe-bridge/internal/handlers"
)

func newTestServer(token string, origins []string) *Server {
	h := handlers.New(nil, nil, nil, nil, nil, nil, handlers.Options{})
	return NewServer(h, Options{APIToken: token, CORSAllowOrigins: origins})
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer("secret", nil)

	cases := []struct {
		name   string
		header func(*http.Request)
		want   int
	}{
		{name: "missing", header: func(*http.Request) {}, want: http.StatusUnauthorized},
		{name: "wrong bearer", header: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, want: http.StatusUnauthorized},
		// No datastore is wired, so an authorized call reaches the handler and reports 503.
		{name: "bearer", header: func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret") }, want: http.StatusServiceUnavailable},
		{name: "api key", header: func(r *http.Request) { r.Header.Set("X-API-Key", "secret") }, want: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/care-plans/s1", strings.NewReader(`{"care_plan":"x"}`))
			req.Header.Set("Content-Type", "application/json")
			tc.header(req)
			w := httptest.NewRecorder()
			srv.Engine().ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestPublicRoutesIgnoreToken(t *testing.T) {
	srv := newTestServer("secret", nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
}

func TestRequestIDIsEchoedOrGenerated(t *testing.T) {
	srv := newTestServer("", nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "req-42" {
		t.Fatalf("expected echoed request id, got %q", got)
	}

	w = httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer("", []string{"https://app.example.com"})
	req := httptest.NewRequest(http.MethodOptions, "/ask_heidi", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestOpenAPIRoute(t *testing.T) {
	srv := newTestServer("", nil)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"openapi"`) {
		t.Fatalf("expected openapi document, got %s", w.Body.String())
	}
}
