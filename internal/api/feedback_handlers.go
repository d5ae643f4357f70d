package api

import (
	"errors"
	"net/http"
	"strings"

	"portfolio-live/internal/storage"
)

const (
	maxFeedbackNameLength    = 120
	maxFeedbackMessageLength = 4000
)

// FeedbackIndex serves POST (public submission) and GET (admin listing) on
// /api/feedback.
func (h *Handler) FeedbackIndex(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.submitFeedback(w, r)
	case http.MethodGet:
		if _, ok := h.requireAdmin(w, r); !ok {
			return
		}
		writeJSON(w, http.StatusOK, h.Store.ListFeedback())
	default:
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	}
}

// FeedbackByID serves DELETE /api/feedback/{id}.
func (h *Handler) FeedbackByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/feedback/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, CodeNotFound, "feedback entry not found")
		return
	}
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
		return
	}
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	if err := h.Store.DeleteFeedback(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "feedback entry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternalError, "failed to delete feedback entry")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
		Rating  int    `json:"rating"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeDecodeError(w, err)
		return
	}

	name := strings.TrimSpace(payload.Name)
	message := strings.TrimSpace(payload.Message)
	email := strings.TrimSpace(payload.Email)
	switch {
	case name == "":
		writeError(w, http.StatusBadRequest, CodeBadRequest, "name is required")
		return
	case len(name) > maxFeedbackNameLength:
		writeError(w, http.StatusBadRequest, CodeBadRequest, "name is too long")
		return
	case message == "":
		writeError(w, http.StatusBadRequest, CodeBadRequest, "message is required")
		return
	case len(message) > maxFeedbackMessageLength:
		writeError(w, http.StatusBadRequest, CodeBadRequest, "message is too long")
		return
	case email != "" && !looksLikeEmail(email):
		writeError(w, http.StatusBadRequest, CodeBadRequest, "email address is invalid")
		return
	case payload.Rating < 0 || payload.Rating > 5:
		writeError(w, http.StatusBadRequest, CodeBadRequest, "rating must be between 1 and 5, or 0 when unrated")
		return
	}

	entry, err := h.Store.CreateFeedback(storage.CreateFeedbackParams{
		Name:    name,
		Email:   email,
		Message: message,
		Rating:  payload.Rating,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternalError, "failed to record feedback")
		return
	}
	if h.Recorder != nil {
		h.Recorder.RecordEvent("feedback_submitted")
	}
	writeJSON(w, http.StatusCreated, entry)
}

func looksLikeEmail(value string) bool {
	at := strings.Index(value, "@")
	if at <= 0 || at == len(value)-1 {
		return false
	}
	domain := value[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(value, " \t")
}
