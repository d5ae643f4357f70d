package api

import (
	"net/http"
	"runtime"
	"strings"
	"time"

	"portfolio-live/internal/analytics"
	"portfolio-live/internal/auth"
	"portfolio-live/internal/relay"
	"portfolio-live/internal/storage"
)

// Handler bundles the collaborators shared by every route group.
type Handler struct {
	Store      storage.Repository
	Sessions   *auth.SessionManager
	Relay      *relay.Relay
	Queue      analytics.Queue
	Recorder   *analytics.Recorder
	Processor  *UploadProcessor
	UploadsDir string
	Version    string
	StartedAt  time.Time
}

func NewHandler(store storage.Repository, sessions *auth.SessionManager) *Handler {
	if sessions == nil {
		sessions = auth.NewSessionManager(24 * time.Hour)
	}
	return &Handler{
		Store:     store,
		Sessions:  sessions,
		StartedAt: time.Now().UTC(),
	}
}

func (h *Handler) sessionManager() *auth.SessionManager {
	if h.Sessions == nil {
		h.Sessions = auth.NewSessionManager(24 * time.Hour)
	}
	return h.Sessions
}

// requireAdmin validates the bearer token and returns the admin ID. A false
// return means the response has already been written.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
		return "", false
	}
	adminID, _, ok, err := h.sessionManager().Validate(token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternalError, "session validation failed")
		return "", false
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "session expired or invalid")
		return "", false
	}
	return adminID, true
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Health reports process liveness plus coarse runtime stats.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
		return
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	uptime := time.Since(h.StartedAt)
	payload := map[string]interface{}{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    uptime.Seconds(),
		"memory": map[string]uint64{
			"allocBytes":      memStats.Alloc,
			"totalAllocBytes": memStats.TotalAlloc,
			"sysBytes":        memStats.Sys,
			"numGC":           uint64(memStats.NumGC),
		},
		"version": h.Version,
	}
	writeJSON(w, http.StatusOK, payload)
}
