package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"portfolio-live/internal/storage"
)

// ContentIndex serves GET /api/content.
func (h *Handler) ContentIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.Store.ListContentSections())
}

// ContentByKey serves GET/PUT/DELETE /api/content/{key}.
func (h *Handler) ContentByKey(w http.ResponseWriter, r *http.Request) {
	key := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/content/"), "/")
	if key == "" || strings.Contains(key, "/") {
		writeError(w, http.StatusNotFound, CodeNotFound, "content section not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		section, ok := h.Store.GetContentSection(key)
		if !ok {
			writeError(w, http.StatusNotFound, CodeNotFound, "content section not found")
			return
		}
		writeJSON(w, http.StatusOK, section)
	case http.MethodPut:
		if _, ok := h.requireAdmin(w, r); !ok {
			return
		}
		var payload struct {
			Title     *string         `json:"title"`
			Body      json.RawMessage `json:"body"`
			Published *bool           `json:"published"`
		}
		if err := decodeJSON(r, &payload); err != nil {
			writeDecodeError(w, err)
			return
		}
		section, err := h.Store.UpsertContentSection(key, storage.ContentSectionUpdate{
			Title:     payload.Title,
			Body:      payload.Body,
			Published: payload.Published,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
		if section.Published {
			h.publishUpdate("content", map[string]interface{}{"key": section.Key})
		}
		writeJSON(w, http.StatusOK, section)
	case http.MethodDelete:
		if _, ok := h.requireAdmin(w, r); !ok {
			return
		}
		if err := h.Store.DeleteContentSection(key); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, CodeNotFound, "content section not found")
				return
			}
			writeError(w, http.StatusInternalServerError, CodeInternalError, "failed to delete content section")
			return
		}
		h.publishUpdate("content", map[string]interface{}{"key": key, "deleted": true})
		writeJSON(w, http.StatusNoContent, nil)
	default:
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	}
}

// publishUpdate pushes a server-originated update through the relay so open
// pages refresh without polling.
func (h *Handler) publishUpdate(resource string, detail map[string]interface{}) {
	if h.Relay == nil {
		return
	}
	body := map[string]interface{}{"resource": resource}
	for key, value := range detail {
		body[key] = value
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return
	}
	h.Relay.Publish(payload)
}
