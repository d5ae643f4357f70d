package api

import (
	"net/http"
	"strings"

	"portfolio-live/internal/models"
)

const (
	minFontScale = 0.5
	maxFontScale = 3.0
)

// AccessibilityByVisitor serves GET/PUT /api/accessibility/{visitorID}.
// Profiles are keyed by an opaque identifier the frontend mints and stores
// client-side, so no authentication is involved.
func (h *Handler) AccessibilityByVisitor(w http.ResponseWriter, r *http.Request) {
	visitorID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/accessibility/"), "/")
	if visitorID == "" || strings.Contains(visitorID, "/") {
		writeError(w, http.StatusNotFound, CodeNotFound, "accessibility profile not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		profile, ok := h.Store.GetAccessibilityProfile(visitorID)
		if !ok {
			writeError(w, http.StatusNotFound, CodeNotFound, "accessibility profile not found")
			return
		}
		writeJSON(w, http.StatusOK, profile)
	case http.MethodPut:
		var payload struct {
			HighContrast  bool    `json:"highContrast"`
			ReducedMotion bool    `json:"reducedMotion"`
			FontScale     float64 `json:"fontScale"`
		}
		if err := decodeJSON(r, &payload); err != nil {
			writeDecodeError(w, err)
			return
		}
		if payload.FontScale != 0 && (payload.FontScale < minFontScale || payload.FontScale > maxFontScale) {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "fontScale is out of range")
			return
		}
		profile, err := h.Store.UpsertAccessibilityProfile(models.AccessibilityProfile{
			VisitorID:     visitorID,
			HighContrast:  payload.HighContrast,
			ReducedMotion: payload.ReducedMotion,
			FontScale:     payload.FontScale,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, profile)
	default:
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	}
}
