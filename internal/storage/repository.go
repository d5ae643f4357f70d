package storage

import (
	"context"
	"encoding/json"
	"errors"

	"portfolio-live/internal/models"
)

// Repository exposes the datastore operations required by the API handlers
// and the analytics worker. Two implementations exist: the JSON file store
// used for development and single-instance deployments, and the Postgres
// repository behind the same contract.
type Repository interface {
	Ping(ctx context.Context) error

	ListContentSections() []models.ContentSection
	GetContentSection(key string) (models.ContentSection, bool)
	UpsertContentSection(key string, update ContentSectionUpdate) (models.ContentSection, error)
	DeleteContentSection(key string) error

	ListLocales() []string
	GetTranslation(locale string) (models.Translation, bool)
	UpsertTranslation(locale string, entries map[string]string) (models.Translation, error)
	DeleteTranslation(locale string) error

	CreateMediaAsset(params CreateMediaAssetParams) (models.MediaAsset, error)
	ListMediaAssets(kind models.MediaKind) []models.MediaAsset
	GetMediaAsset(id string) (models.MediaAsset, bool)
	MarkMediaAssetProcessed(id string) (models.MediaAsset, error)
	DeleteMediaAsset(id string) (models.MediaAsset, error)

	ListThemes() []models.Theme
	GetTheme(name string) (models.Theme, bool)
	UpsertTheme(name string, palette map[string]string) (models.Theme, error)
	SetActiveTheme(name string) (models.Theme, error)
	DeleteTheme(name string) error

	CreateFeedback(params CreateFeedbackParams) (models.FeedbackEntry, error)
	ListFeedback() []models.FeedbackEntry
	DeleteFeedback(id string) error

	AppendAnalyticsEvents(events []models.AnalyticsEvent) error
	ListAnalyticsEvents(limit int) []models.AnalyticsEvent
	CountAnalyticsEvents() int

	GetAccessibilityProfile(visitorID string) (models.AccessibilityProfile, bool)
	UpsertAccessibilityProfile(profile models.AccessibilityProfile) (models.AccessibilityProfile, error)

	EnsureAdminAccount(username, password string) (models.AdminAccount, error)
	AuthenticateAdmin(username, password string) (models.AdminAccount, error)
}

// ContentSectionUpdate carries the mutable fields of a content section.
// Nil pointers leave the stored value untouched.
type ContentSectionUpdate struct {
	Title     *string
	Body      json.RawMessage
	Published *bool
}

// CreateMediaAssetParams captures a finished upload ready to be recorded.
type CreateMediaAssetParams struct {
	Kind         models.MediaKind
	FileName     string
	OriginalName string
	ContentType  string
	SizeBytes    int64
	Alt          string
}

// CreateFeedbackParams carries a validated contact-form submission.
type CreateFeedbackParams struct {
	Name    string
	Email   string
	Message string
	Rating  int
}

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidCredentials is returned when admin authentication fails. The
// handler maps it to a 401 without leaking which part was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")
