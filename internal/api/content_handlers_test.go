package api

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestContentLifecycle(t *testing.T) {
	handler := newTestHandler(t)
	token := adminToken(t, handler)

	recorder := doJSON(t, handler.ContentByKey, http.MethodGet, "/api/content/profile", "", nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before creation, got %d", recorder.Code)
	}

	recorder = doJSON(t, handler.ContentByKey, http.MethodPut, "/api/content/profile", token, map[string]interface{}{
		"title":     "About me",
		"body":      map[string]string{"markdown": "hello"},
		"published": true,
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for upsert, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = doJSON(t, handler.ContentByKey, http.MethodGet, "/api/content/profile", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 after upsert, got %d", recorder.Code)
	}
	var section struct {
		Key       string          `json:"key"`
		Title     string          `json:"title"`
		Body      json.RawMessage `json:"body"`
		Published bool            `json:"published"`
	}
	decodeBody(t, recorder, &section)
	if section.Key != "profile" || section.Title != "About me" || !section.Published {
		t.Fatalf("unexpected section %+v", section)
	}

	recorder = doJSON(t, handler.ContentIndex, http.MethodGet, "/api/content", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for index, got %d", recorder.Code)
	}
	var sections []json.RawMessage
	decodeBody(t, recorder, &sections)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}

	recorder = doJSON(t, handler.ContentByKey, http.MethodDelete, "/api/content/profile", token, nil)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for delete, got %d", recorder.Code)
	}
	recorder = doJSON(t, handler.ContentByKey, http.MethodDelete, "/api/content/profile", token, nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 deleting twice, got %d", recorder.Code)
	}
}

func TestContentWritesRequireAdmin(t *testing.T) {
	handler := newTestHandler(t)

	recorder := doJSON(t, handler.ContentByKey, http.MethodPut, "/api/content/profile", "", map[string]interface{}{
		"title": "About me",
	})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", recorder.Code)
	}
	recorder = doJSON(t, handler.ContentByKey, http.MethodDelete, "/api/content/profile", "", nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", recorder.Code)
	}
}

func TestContentRejectsUnknownFields(t *testing.T) {
	handler := newTestHandler(t)
	token := adminToken(t, handler)

	recorder := doJSON(t, handler.ContentByKey, http.MethodPut, "/api/content/profile", token, map[string]interface{}{
		"title":      "About me",
		"unexpected": true,
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", recorder.Code)
	}
	var body map[string]string
	decodeBody(t, recorder, &body)
	if body["code"] != CodeBadRequest {
		t.Fatalf("expected code BAD_REQUEST, got %q", body["code"])
	}
}
