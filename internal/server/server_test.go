package server

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"portfolio-live/internal/analytics"
	"portfolio-live/internal/api"
	"portfolio-live/internal/auth"
	"portfolio-live/internal/relay"
	"portfolio-live/internal/storage"
)

func newTestHandler(t *testing.T) (*api.Handler, *storage.Storage) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewStorage(filepath.Join(dir, "store.json"))
	if err != nil {
		t.Fatalf("NewStorage error: %v", err)
	}
	sessions := auth.NewSessionManager(time.Hour)
	handler := api.NewHandler(store, sessions)
	handler.UploadsDir = filepath.Join(dir, "uploads")
	return handler, store
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{AddSource: false}))
}

func newTestServer(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	handler, _ := newTestHandler(t)
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	if cfg.UploadsDir == "" {
		cfg.UploadsDir = handler.UploadsDir
	}
	srv, err := New(handler, cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return srv.HTTPServer().Handler
}

func TestUnmatchedRouteReturnsNotFoundShape(t *testing.T) {
	chain := newTestServer(t, Config{})

	req := httptest.NewRequest(http.MethodGet, "/nonexistent/route", nil)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["error"] != "Rota não encontrada" {
		t.Fatalf("unexpected error message %q", payload["error"])
	}
	if payload["code"] != api.CodeNotFound {
		t.Fatalf("expected code NOT_FOUND, got %q", payload["code"])
	}
	if payload["path"] != "/nonexistent/route" {
		t.Fatalf("expected requested path in body, got %q", payload["path"])
	}
}

func TestHealthServedThroughChain(t *testing.T) {
	chain := newTestServer(t, Config{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != "OK" {
		t.Fatalf("expected status OK, got %q", payload.Status)
	}
	if _, err := time.Parse(time.RFC3339, payload.Timestamp); err != nil {
		t.Fatalf("expected RFC3339 timestamp, got %q: %v", payload.Timestamp, err)
	}
}

func TestBodyLimitRejectsOversizedPayloads(t *testing.T) {
	chain := newTestServer(t, Config{MaxBodyBytes: 128})

	body := bytes.Repeat([]byte("a"), 1024)
	req := httptest.NewRequest(http.MethodPost, "/api/feedback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["code"] != api.CodePayloadTooLarge {
		t.Fatalf("expected code PAYLOAD_TOO_LARGE, got %q", payload["code"])
	}
}

func TestRecoveryMiddlewareConvertsPanics(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	chain := recoveryMiddleware(discardLogger(), panicking)

	req := httptest.NewRequest(http.MethodGet, "/api/content", nil)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["code"] != api.CodeInternalError {
		t.Fatalf("expected code INTERNAL_ERROR, got %q", payload["code"])
	}
}

func TestGzipCompressionNegotiation(t *testing.T) {
	handler, store := newTestHandler(t)
	published := true
	body, _ := json.Marshal(map[string]string{"text": strings.Repeat("portfolio ", 500)})
	if _, err := store.UpsertContentSection("projects", storage.ContentSectionUpdate{
		Body:      body,
		Published: &published,
	}); err != nil {
		t.Fatalf("UpsertContentSection error: %v", err)
	}
	srv, err := New(handler, Config{Logger: discardLogger(), UploadsDir: handler.UploadsDir})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	chain := srv.HTTPServer().Handler

	req := httptest.NewRequest(http.MethodGet, "/api/content", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if encoding := rec.Header().Get("Content-Encoding"); encoding != "gzip" {
		t.Fatalf("expected gzip encoding, got %q", encoding)
	}
	reader, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip reader error: %v", err)
	}
	decompressed, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("decompress error: %v", err)
	}
	if !bytes.Contains(decompressed, []byte("projects")) {
		t.Fatal("expected decompressed body to contain the section key")
	}
}

func TestTLSFilesReportsConfiguredPair(t *testing.T) {
	handler, _ := newTestHandler(t)
	srv, err := New(handler, Config{
		Logger:     discardLogger(),
		UploadsDir: handler.UploadsDir,
		TLS:        TLSConfig{CertFile: " cert.pem ", KeyFile: "key.pem"},
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	cert, key := srv.TLSFiles()
	if cert != "cert.pem" || key != "key.pem" {
		t.Fatalf("expected trimmed pair, got %q and %q", cert, key)
	}
	if srv.HTTPServer().TLSConfig == nil {
		t.Fatal("expected TLS config on the HTTP server when a pair is set")
	}
}

func TestRateLimitRejectionsBypassLoggingAndCapture(t *testing.T) {
	recorder := analytics.NewRecorder()
	chain := newTestServer(t, Config{
		Recorder:  recorder,
		RateLimit: RateLimitConfig{Window: time.Minute, MaxRequests: 1},
	})

	first := httptest.NewRequest(http.MethodGet, "/health", nil)
	first.RemoteAddr = "10.1.2.3:5000"
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	second := httptest.NewRequest(http.MethodGet, "/health", nil)
	second.RemoteAddr = "10.1.2.3:5001"
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, second)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	// The rejection is answered ahead of the capture middleware, so only the
	// served request shows up in the recorder.
	summary := recorder.Snapshot(10)
	if summary.TotalRequests != 1 {
		t.Fatalf("expected 1 recorded request, got %d", summary.TotalRequests)
	}
	if count, ok := summary.StatusClasses["4xx"]; ok && count > 0 {
		t.Fatalf("rate-limited response must not be tallied, got %d 4xx entries", count)
	}
}

func TestWebsocketUpgradeBypassesChainOnAnyPath(t *testing.T) {
	handler, _ := newTestHandler(t)
	rel := relay.New(relay.NewRegistry(), relay.Config{Logger: discardLogger()})
	srv, err := New(handler, Config{
		Logger:     discardLogger(),
		UploadsDir: handler.UploadsDir,
		Relay:      rel,
		RateLimit:  RateLimitConfig{Window: time.Minute, MaxRequests: 1},
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	ts := httptest.NewServer(srv.HTTPServer().Handler)
	t.Cleanup(ts.Close)

	// Exhaust the one-request quota so the upgrade below only succeeds if it
	// never reaches the rate limiter.
	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		resp, err := http.Get(ts.URL + "/health")
		if err != nil {
			t.Fatalf("GET /health #%d: %v", i+1, err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("GET /health #%d: expected %d, got %d", i+1, want, resp.StatusCode)
		}
	}

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/any/path/at/all"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101 Switching Protocols, got %d", resp.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for rel.ConnectionCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 1 relay connection, have %d", rel.ConnectionCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
