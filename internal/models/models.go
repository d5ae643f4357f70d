package models

import (
	"encoding/json"
	"time"
)

// ContentSection holds one editable block of the portfolio site (profile,
// projects, backlog, contact). The body is arbitrary structured content whose
// shape is owned by the frontend.
type ContentSection struct {
	Key       string          `json:"key"`
	Title     string          `json:"title"`
	Body      json.RawMessage `json:"body"`
	Published bool            `json:"published"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Translation is the dictionary for one locale.
type Translation struct {
	Locale    string            `json:"locale"`
	Entries   map[string]string `json:"entries"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// MediaKind distinguishes the two asset families served by the API.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindAudio MediaKind = "audio"
)

// MediaAsset describes one uploaded file living under the uploads directory.
type MediaAsset struct {
	ID           string    `json:"id"`
	Kind         MediaKind `json:"kind"`
	FileName     string    `json:"fileName"`
	OriginalName string    `json:"originalName"`
	ContentType  string    `json:"contentType"`
	SizeBytes    int64     `json:"sizeBytes"`
	Alt          string    `json:"alt,omitempty"`
	Processed    bool      `json:"processed"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// Theme is a named colour palette selectable by the frontend.
type Theme struct {
	Name      string            `json:"name"`
	Palette   map[string]string `json:"palette"`
	Active    bool              `json:"active"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// FeedbackEntry is a message submitted through the public contact form.
type FeedbackEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Message   string    `json:"message"`
	Rating    int       `json:"rating,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AnalyticsEvent records one client-side interaction reported by the site.
type AnalyticsEvent struct {
	ID         string    `json:"id"`
	VisitorID  string    `json:"visitorId,omitempty"`
	Name       string    `json:"name"`
	Path       string    `json:"path,omitempty"`
	Referrer   string    `json:"referrer,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// AccessibilityProfile stores per-visitor display preferences keyed by an
// opaque visitor identifier minted on the client.
type AccessibilityProfile struct {
	VisitorID     string    `json:"visitorId"`
	HighContrast  bool      `json:"highContrast"`
	ReducedMotion bool      `json:"reducedMotion"`
	FontScale     float64   `json:"fontScale,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// AdminAccount authenticates the owner of the site against the admin panel.
// PasswordHash is a PBKDF2 encoded hash and never serialises to JSON.
type AdminAccount struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
