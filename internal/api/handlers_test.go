package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"portfolio-live/internal/analytics"
	"portfolio-live/internal/auth"
	"portfolio-live/internal/storage"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewStorage(filepath.Join(dir, "store.json"))
	if err != nil {
		t.Fatalf("NewStorage returned error: %v", err)
	}
	handler := NewHandler(store, auth.NewSessionManager(time.Hour))
	handler.UploadsDir = filepath.Join(dir, "uploads")
	handler.Recorder = analytics.NewRecorder()
	handler.Version = "test"
	return handler
}

func adminToken(t *testing.T, handler *Handler) string {
	t.Helper()
	account, err := handler.Store.EnsureAdminAccount("admin", "correct horse battery")
	if err != nil {
		t.Fatalf("EnsureAdminAccount returned error: %v", err)
	}
	token, _, err := handler.Sessions.Create(account.ID)
	if err != nil {
		t.Fatalf("Create session returned error: %v", err)
	}
	return token
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	handler(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), dest); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
}

func TestHealthReportsRuntimeStats(t *testing.T) {
	handler := newTestHandler(t)

	recorder := doJSON(t, handler.Health, http.MethodGet, "/health", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var payload struct {
		Status  string             `json:"status"`
		Uptime  float64            `json:"uptime"`
		Memory  map[string]float64 `json:"memory"`
		Version string             `json:"version"`
	}
	decodeBody(t, recorder, &payload)
	if payload.Status != "OK" {
		t.Fatalf("expected status OK, got %q", payload.Status)
	}
	if payload.Version != "test" {
		t.Fatalf("expected version test, got %q", payload.Version)
	}
	if _, ok := payload.Memory["allocBytes"]; !ok {
		t.Fatal("expected memory.allocBytes in health payload")
	}

	recorder = doJSON(t, handler.Health, http.MethodPost, "/health", "", nil)
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for POST, got %d", recorder.Code)
	}
}

func TestRequireAdminRejectsMissingAndBogusTokens(t *testing.T) {
	handler := newTestHandler(t)

	recorder := doJSON(t, handler.AdminOverview, http.MethodGet, "/api/admin/overview", "", nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", recorder.Code)
	}
	var body map[string]string
	decodeBody(t, recorder, &body)
	if body["code"] != CodeUnauthorized {
		t.Fatalf("expected code UNAUTHORIZED, got %q", body["code"])
	}

	recorder = doJSON(t, handler.AdminOverview, http.MethodGet, "/api/admin/overview", "not-a-token", nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bogus token, got %d", recorder.Code)
	}
}

func TestAdminLoginLogoutFlow(t *testing.T) {
	handler := newTestHandler(t)
	if _, err := handler.Store.EnsureAdminAccount("admin", "correct horse battery"); err != nil {
		t.Fatalf("EnsureAdminAccount returned error: %v", err)
	}

	recorder := doJSON(t, handler.AdminLogin, http.MethodPost, "/api/admin/login", "", map[string]string{
		"username": "admin",
		"password": "wrong",
	})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", recorder.Code)
	}

	recorder = doJSON(t, handler.AdminLogin, http.MethodPost, "/api/admin/login", "", map[string]string{
		"username": "admin",
		"password": "correct horse battery",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for login, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var login struct {
		Token string `json:"token"`
		Admin struct {
			Username string `json:"username"`
		} `json:"admin"`
	}
	decodeBody(t, recorder, &login)
	if login.Token == "" {
		t.Fatal("expected a session token")
	}
	if login.Admin.Username != "admin" {
		t.Fatalf("expected admin username, got %q", login.Admin.Username)
	}

	recorder = doJSON(t, handler.AdminOverview, http.MethodGet, "/api/admin/overview", login.Token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for overview with token, got %d", recorder.Code)
	}

	recorder = doJSON(t, handler.AdminLogout, http.MethodPost, "/api/admin/logout", login.Token, nil)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for logout, got %d", recorder.Code)
	}

	recorder = doJSON(t, handler.AdminOverview, http.MethodGet, "/api/admin/overview", login.Token, nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", recorder.Code)
	}
}

func TestAdminOverviewCountsEntities(t *testing.T) {
	handler := newTestHandler(t)
	token := adminToken(t, handler)

	published := true
	if _, err := handler.Store.UpsertContentSection("profile", storage.ContentSectionUpdate{Published: &published}); err != nil {
		t.Fatalf("UpsertContentSection returned error: %v", err)
	}
	if _, err := handler.Store.UpsertContentSection("backlog", storage.ContentSectionUpdate{}); err != nil {
		t.Fatalf("UpsertContentSection returned error: %v", err)
	}
	if _, err := handler.Store.UpsertTranslation("pt-BR", map[string]string{"hello": "olá"}); err != nil {
		t.Fatalf("UpsertTranslation returned error: %v", err)
	}

	recorder := doJSON(t, handler.AdminOverview, http.MethodGet, "/api/admin/overview", token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var overview struct {
		ContentSections   int `json:"contentSections"`
		PublishedSections int `json:"publishedSections"`
		Locales           int `json:"locales"`
	}
	decodeBody(t, recorder, &overview)
	if overview.ContentSections != 2 {
		t.Fatalf("expected 2 content sections, got %d", overview.ContentSections)
	}
	if overview.PublishedSections != 1 {
		t.Fatalf("expected 1 published section, got %d", overview.PublishedSections)
	}
	if overview.Locales != 1 {
		t.Fatalf("expected 1 locale, got %d", overview.Locales)
	}
}
