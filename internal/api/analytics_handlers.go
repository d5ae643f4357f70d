package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"portfolio-live/internal/models"
	"portfolio-live/internal/observability/logging"
)

// maxAnalyticsBatch bounds how many events one ingest request may carry.
const maxAnalyticsBatch = 50

// AnalyticsEvents serves POST /api/analytics/events, the public ingest
// endpoint. Events are pushed onto the queue; persistence happens in the
// worker so the request returns as soon as the batch is accepted.
func (h *Handler) AnalyticsEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
		return
	}

	var payload struct {
		Events []struct {
			Name       string    `json:"name"`
			Path       string    `json:"path"`
			Referrer   string    `json:"referrer"`
			OccurredAt time.Time `json:"occurredAt"`
		} `json:"events"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeDecodeError(w, err)
		return
	}
	if len(payload.Events) == 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "events array is required")
		return
	}
	if len(payload.Events) > maxAnalyticsBatch {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "too many events in one batch")
		return
	}

	visitorID, _ := logging.VisitorIDFromContext(r.Context())
	userAgent := r.UserAgent()
	now := time.Now().UTC()

	accepted := 0
	for _, raw := range payload.Events {
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			continue
		}
		occurredAt := raw.OccurredAt
		if occurredAt.IsZero() || occurredAt.After(now) {
			occurredAt = now
		}
		event := models.AnalyticsEvent{
			ID:         uuid.NewString(),
			VisitorID:  visitorID,
			Name:       name,
			Path:       strings.TrimSpace(raw.Path),
			Referrer:   strings.TrimSpace(raw.Referrer),
			UserAgent:  userAgent,
			OccurredAt: occurredAt,
		}
		if h.Queue != nil {
			if err := h.Queue.Publish(r.Context(), event); err != nil {
				continue
			}
		}
		if h.Recorder != nil {
			h.Recorder.RecordEvent(name)
		}
		accepted++
	}

	if accepted == 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "no valid events in batch")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"accepted": accepted})
}

// AnalyticsSummary serves GET /api/analytics/summary for the admin panel. It
// merges the in-process request counters with the persisted event totals.
func (h *Handler) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
		return
	}
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	payload := map[string]interface{}{
		"storedEvents": h.Store.CountAnalyticsEvents(),
		"recentEvents": h.Store.ListAnalyticsEvents(100),
	}
	if h.Recorder != nil {
		payload["requests"] = h.Recorder.Snapshot(10)
	}
	writeJSON(w, http.StatusOK, payload)
}
