package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"portfolio-live/internal/models"
	"portfolio-live/internal/storage"
)

// AdminLogin serves POST /api/admin/login. Successful authentication issues a
// bearer token the admin panel stores for subsequent requests.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
		return
	}
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeDecodeError(w, err)
		return
	}
	username := strings.TrimSpace(payload.Username)
	if username == "" || payload.Password == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "username and password are required")
		return
	}

	account, err := h.Store.AuthenticateAdmin(username, payload.Password)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternalError, "authentication failed")
		return
	}

	token, expiresAt, err := h.sessionManager().Create(account.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternalError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":     token,
		"expiresAt": expiresAt.UTC().Format(time.RFC3339),
		"admin": map[string]string{
			"id":       account.ID,
			"username": account.Username,
		},
	})
}

// AdminLogout serves POST /api/admin/logout. Revoking an unknown token still
// succeeds so a stale panel tab can always log out cleanly.
func (h *Handler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
		return
	}
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
		return
	}
	if err := h.sessionManager().Revoke(token); err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternalError, "failed to revoke session")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// AdminOverview serves GET /api/admin/overview with the dashboard counters.
func (h *Handler) AdminOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
		return
	}
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	published := 0
	sections := h.Store.ListContentSections()
	for _, section := range sections {
		if section.Published {
			published++
		}
	}

	payload := map[string]interface{}{
		"contentSections":   len(sections),
		"publishedSections": published,
		"locales":           len(h.Store.ListLocales()),
		"images":            len(h.Store.ListMediaAssets(models.MediaKindImage)),
		"audioTracks":       len(h.Store.ListMediaAssets(models.MediaKindAudio)),
		"themes":            len(h.Store.ListThemes()),
		"feedbackEntries":   len(h.Store.ListFeedback()),
		"analyticsEvents":   h.Store.CountAnalyticsEvents(),
	}
	if h.Relay != nil {
		payload["liveConnections"] = h.Relay.ConnectionCount()
	}
	writeJSON(w, http.StatusOK, payload)
}
