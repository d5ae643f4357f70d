package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"portfolio-live/internal/observability/logging"
)

func TestRequestIDMiddlewareGeneratesAndEchoesID(t *testing.T) {
	var seen string
	chain := requestIDMiddlewareWithGenerator(discardLogger(), func() string { return "generated-id" }, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/content", nil)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if seen != "generated-id" {
		t.Fatalf("expected generated request ID in context, got %q", seen)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "generated-id" {
		t.Fatalf("expected echoed request ID header, got %q", got)
	}
}

func TestRequestIDMiddlewarePropagatesVisitorID(t *testing.T) {
	var visitor string
	chain := requestIDMiddleware(discardLogger(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		visitor, _ = logging.VisitorIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/content", nil)
	req.Header.Set("X-Request-Id", "incoming-id")
	req.Header.Set("X-Visitor-Id", "visitor-42")
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if visitor != "visitor-42" {
		t.Fatalf("expected visitor ID in context, got %q", visitor)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "incoming-id" {
		t.Fatalf("expected incoming request ID echoed, got %q", got)
	}
}
