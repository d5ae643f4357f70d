package storage

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"

	"portfolio-live/internal/models"
)

const (
	passwordHashSaltLength = 16
	passwordHashKeyLength  = 32
	passwordHashIterations = 120000
)

// analyticsRetainLimit bounds how many events the JSON store keeps on disk.
// Older events are dropped once the ceiling is reached.
const analyticsRetainLimit = 10000

type dataset struct {
	Content       map[string]models.ContentSection       `json:"content"`
	Translations  map[string]models.Translation          `json:"translations"`
	Media         map[string]models.MediaAsset           `json:"media"`
	Themes        map[string]models.Theme                `json:"themes"`
	Feedback      map[string]models.FeedbackEntry        `json:"feedback"`
	Analytics     []models.AnalyticsEvent                `json:"analytics"`
	Accessibility map[string]models.AccessibilityProfile `json:"accessibility"`
	Admins        map[string]models.AdminAccount         `json:"admins"`
}

// Storage is the JSON file backed Repository implementation. All state lives
// in memory guarded by a single mutex; every mutation is persisted through an
// atomic temp-file rename.
type Storage struct {
	mu       sync.RWMutex
	filePath string
	data     dataset
	// persistOverride allows tests to intercept persist operations.
	persistOverride func(dataset) error
}

func newDataset() dataset {
	return dataset{
		Content:       make(map[string]models.ContentSection),
		Translations:  make(map[string]models.Translation),
		Media:         make(map[string]models.MediaAsset),
		Themes:        make(map[string]models.Theme),
		Feedback:      make(map[string]models.FeedbackEntry),
		Accessibility: make(map[string]models.AccessibilityProfile),
		Admins:        make(map[string]models.AdminAccount),
	}
}

func (s *Storage) ensureDatasetInitializedLocked() {
	if s.data.Content == nil {
		s.data.Content = make(map[string]models.ContentSection)
	}
	if s.data.Translations == nil {
		s.data.Translations = make(map[string]models.Translation)
	}
	if s.data.Media == nil {
		s.data.Media = make(map[string]models.MediaAsset)
	}
	if s.data.Themes == nil {
		s.data.Themes = make(map[string]models.Theme)
	}
	if s.data.Feedback == nil {
		s.data.Feedback = make(map[string]models.FeedbackEntry)
	}
	if s.data.Accessibility == nil {
		s.data.Accessibility = make(map[string]models.AccessibilityProfile)
	}
	if s.data.Admins == nil {
		s.data.Admins = make(map[string]models.AdminAccount)
	}
}

// NewStorage opens (or creates) the JSON datastore at the provided path.
func NewStorage(path string) (*Storage, error) {
	store := &Storage{filePath: path}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Storage) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	file, err := os.Open(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		s.data = newDataset()
		return nil
	} else if err != nil {
		return fmt.Errorf("open store file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&s.data); err != nil {
		if errors.Is(err, io.EOF) {
			s.data = newDataset()
			return nil
		}
		return fmt.Errorf("decode store file: %w", err)
	}

	s.ensureDatasetInitializedLocked()
	return nil
}

func (s *Storage) persistLocked() error {
	if s.persistOverride != nil {
		return s.persistOverride(s.data)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "store-*.json")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpPath := tmpFile.Name()
	success := false
	defer func() {
		if !success {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	encoder := json.NewEncoder(tmpFile)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.data); err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("flush store file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmpPath, s.filePath); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	success = true
	return nil
}

// Ping reports whether the backing file location is still writable.
func (s *Storage) Ping(ctx context.Context) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	dir := filepath.Dir(s.filePath)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path %s is not a directory", dir)
	}
	return nil
}

// --- content sections ---

func (s *Storage) ListContentSections() []models.ContentSection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sections := make([]models.ContentSection, 0, len(s.data.Content))
	for _, section := range s.data.Content {
		sections = append(sections, cloneContentSection(section))
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].Key < sections[j].Key })
	return sections
}

func (s *Storage) GetContentSection(key string) (models.ContentSection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	section, ok := s.data.Content[key]
	if !ok {
		return models.ContentSection{}, false
	}
	return cloneContentSection(section), true
}

func (s *Storage) UpsertContentSection(key string, update ContentSectionUpdate) (models.ContentSection, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return models.ContentSection{}, fmt.Errorf("section key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	section, exists := s.data.Content[key]
	if !exists {
		section = models.ContentSection{Key: key}
	}
	if update.Title != nil {
		section.Title = strings.TrimSpace(*update.Title)
	}
	if update.Body != nil {
		section.Body = append(json.RawMessage(nil), update.Body...)
	}
	if update.Published != nil {
		section.Published = *update.Published
	}
	section.UpdatedAt = time.Now().UTC()
	s.data.Content[key] = section
	if err := s.persistLocked(); err != nil {
		return models.ContentSection{}, err
	}
	return cloneContentSection(section), nil
}

func (s *Storage) DeleteContentSection(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data.Content[key]; !exists {
		return ErrNotFound
	}
	delete(s.data.Content, key)
	return s.persistLocked()
}

// --- translations ---

func (s *Storage) ListLocales() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	locales := make([]string, 0, len(s.data.Translations))
	for locale := range s.data.Translations {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	return locales
}

func (s *Storage) GetTranslation(locale string) (models.Translation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	translation, ok := s.data.Translations[locale]
	if !ok {
		return models.Translation{}, false
	}
	return cloneTranslation(translation), true
}

func (s *Storage) UpsertTranslation(locale string, entries map[string]string) (models.Translation, error) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return models.Translation{}, fmt.Errorf("locale is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	translation := models.Translation{
		Locale:    locale,
		Entries:   make(map[string]string, len(entries)),
		UpdatedAt: time.Now().UTC(),
	}
	for key, value := range entries {
		translation.Entries[key] = value
	}
	s.data.Translations[locale] = translation
	if err := s.persistLocked(); err != nil {
		return models.Translation{}, err
	}
	return cloneTranslation(translation), nil
}

func (s *Storage) DeleteTranslation(locale string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data.Translations[locale]; !exists {
		return ErrNotFound
	}
	delete(s.data.Translations, locale)
	return s.persistLocked()
}

// --- media assets ---

func (s *Storage) CreateMediaAsset(params CreateMediaAssetParams) (models.MediaAsset, error) {
	if params.FileName == "" {
		return models.MediaAsset{}, fmt.Errorf("file name is required")
	}
	if params.Kind != models.MediaKindImage && params.Kind != models.MediaKindAudio {
		return models.MediaAsset{}, fmt.Errorf("unsupported media kind %q", params.Kind)
	}
	asset := models.MediaAsset{
		ID:           uuid.NewString(),
		Kind:         params.Kind,
		FileName:     params.FileName,
		OriginalName: params.OriginalName,
		ContentType:  params.ContentType,
		SizeBytes:    params.SizeBytes,
		Alt:          strings.TrimSpace(params.Alt),
		UploadedAt:   time.Now().UTC(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Media[asset.ID] = asset
	if err := s.persistLocked(); err != nil {
		return models.MediaAsset{}, err
	}
	return asset, nil
}

func (s *Storage) ListMediaAssets(kind models.MediaKind) []models.MediaAsset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	assets := make([]models.MediaAsset, 0, len(s.data.Media))
	for _, asset := range s.data.Media {
		if kind != "" && asset.Kind != kind {
			continue
		}
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].UploadedAt.After(assets[j].UploadedAt) })
	return assets
}

func (s *Storage) GetMediaAsset(id string) (models.MediaAsset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	asset, ok := s.data.Media[id]
	return asset, ok
}

func (s *Storage) MarkMediaAssetProcessed(id string) (models.MediaAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	asset, ok := s.data.Media[id]
	if !ok {
		return models.MediaAsset{}, ErrNotFound
	}
	asset.Processed = true
	s.data.Media[id] = asset
	if err := s.persistLocked(); err != nil {
		return models.MediaAsset{}, err
	}
	return asset, nil
}

func (s *Storage) DeleteMediaAsset(id string) (models.MediaAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	asset, ok := s.data.Media[id]
	if !ok {
		return models.MediaAsset{}, ErrNotFound
	}
	delete(s.data.Media, id)
	if err := s.persistLocked(); err != nil {
		return models.MediaAsset{}, err
	}
	return asset, nil
}

// --- themes ---

func (s *Storage) ListThemes() []models.Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	themes := make([]models.Theme, 0, len(s.data.Themes))
	for _, theme := range s.data.Themes {
		themes = append(themes, cloneTheme(theme))
	}
	sort.Slice(themes, func(i, j int) bool { return themes[i].Name < themes[j].Name })
	return themes
}

func (s *Storage) GetTheme(name string) (models.Theme, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	theme, ok := s.data.Themes[name]
	if !ok {
		return models.Theme{}, false
	}
	return cloneTheme(theme), true
}

func (s *Storage) UpsertTheme(name string, palette map[string]string) (models.Theme, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Theme{}, fmt.Errorf("theme name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	theme, exists := s.data.Themes[name]
	if !exists {
		theme = models.Theme{Name: name}
	}
	theme.Palette = make(map[string]string, len(palette))
	for key, value := range palette {
		theme.Palette[key] = value
	}
	theme.UpdatedAt = time.Now().UTC()
	s.data.Themes[name] = theme
	if err := s.persistLocked(); err != nil {
		return models.Theme{}, err
	}
	return cloneTheme(theme), nil
}

func (s *Storage) SetActiveTheme(name string) (models.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	selected, ok := s.data.Themes[name]
	if !ok {
		return models.Theme{}, ErrNotFound
	}
	for key, theme := range s.data.Themes {
		if theme.Active != (key == name) {
			theme.Active = key == name
			s.data.Themes[key] = theme
		}
	}
	selected.Active = true
	s.data.Themes[name] = selected
	if err := s.persistLocked(); err != nil {
		return models.Theme{}, err
	}
	return cloneTheme(selected), nil
}

func (s *Storage) DeleteTheme(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data.Themes[name]; !exists {
		return ErrNotFound
	}
	delete(s.data.Themes, name)
	return s.persistLocked()
}

// --- feedback ---

func (s *Storage) CreateFeedback(params CreateFeedbackParams) (models.FeedbackEntry, error) {
	entry := models.FeedbackEntry{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(params.Name),
		Email:     strings.TrimSpace(params.Email),
		Message:   strings.TrimSpace(params.Message),
		Rating:    params.Rating,
		CreatedAt: time.Now().UTC(),
	}
	if entry.Name == "" {
		return models.FeedbackEntry{}, fmt.Errorf("name is required")
	}
	if entry.Message == "" {
		return models.FeedbackEntry{}, fmt.Errorf("message is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Feedback[entry.ID] = entry
	if err := s.persistLocked(); err != nil {
		return models.FeedbackEntry{}, err
	}
	return entry, nil
}

func (s *Storage) ListFeedback() []models.FeedbackEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]models.FeedbackEntry, 0, len(s.data.Feedback))
	for _, entry := range s.data.Feedback {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries
}

func (s *Storage) DeleteFeedback(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data.Feedback[id]; !exists {
		return ErrNotFound
	}
	delete(s.data.Feedback, id)
	return s.persistLocked()
}

// --- analytics ---

func (s *Storage) AppendAnalyticsEvents(events []models.AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range events {
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		if event.OccurredAt.IsZero() {
			event.OccurredAt = time.Now().UTC()
		}
		s.data.Analytics = append(s.data.Analytics, event)
	}
	if overflow := len(s.data.Analytics) - analyticsRetainLimit; overflow > 0 {
		s.data.Analytics = append([]models.AnalyticsEvent(nil), s.data.Analytics[overflow:]...)
	}
	return s.persistLocked()
}

func (s *Storage) ListAnalyticsEvents(limit int) []models.AnalyticsEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := len(s.data.Analytics)
	if limit <= 0 || limit > total {
		limit = total
	}
	events := make([]models.AnalyticsEvent, limit)
	copy(events, s.data.Analytics[total-limit:])
	return events
}

func (s *Storage) CountAnalyticsEvents() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Analytics)
}

// --- accessibility ---

func (s *Storage) GetAccessibilityProfile(visitorID string) (models.AccessibilityProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.data.Accessibility[visitorID]
	return profile, ok
}

func (s *Storage) UpsertAccessibilityProfile(profile models.AccessibilityProfile) (models.AccessibilityProfile, error) {
	profile.VisitorID = strings.TrimSpace(profile.VisitorID)
	if profile.VisitorID == "" {
		return models.AccessibilityProfile{}, fmt.Errorf("visitor id is required")
	}
	profile.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Accessibility[profile.VisitorID] = profile
	if err := s.persistLocked(); err != nil {
		return models.AccessibilityProfile{}, err
	}
	return profile, nil
}

// --- admin accounts ---

// EnsureAdminAccount creates the admin account when it does not exist yet and
// otherwise refreshes its password hash so credential rotation through the
// environment takes effect on restart.
func (s *Storage) EnsureAdminAccount(username, password string) (models.AdminAccount, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.AdminAccount{}, fmt.Errorf("admin username is required")
	}
	if password == "" {
		return models.AdminAccount{}, fmt.Errorf("admin password is required")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return models.AdminAccount{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	account, exists := s.data.Admins[username]
	if !exists {
		account = models.AdminAccount{
			ID:        uuid.NewString(),
			Username:  username,
			CreatedAt: time.Now().UTC(),
		}
	}
	account.PasswordHash = hash
	s.data.Admins[username] = account
	if err := s.persistLocked(); err != nil {
		return models.AdminAccount{}, err
	}
	return account, nil
}

func (s *Storage) AuthenticateAdmin(username, password string) (models.AdminAccount, error) {
	s.mu.RLock()
	account, exists := s.data.Admins[strings.TrimSpace(username)]
	s.mu.RUnlock()
	if !exists {
		return models.AdminAccount{}, ErrInvalidCredentials
	}
	if err := verifyPassword(account.PasswordHash, password); err != nil {
		return models.AdminAccount{}, err
	}
	return account, nil
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, passwordHashSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	derived := pbkdf2.Key([]byte(password), salt, passwordHashIterations, passwordHashKeyLength, sha256.New)
	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedKey := base64.RawStdEncoding.EncodeToString(derived)
	return fmt.Sprintf("pbkdf2$sha256$%d$%s$%s", passwordHashIterations, encodedSalt, encodedKey), nil
}

func verifyPassword(encodedHash, candidate string) error {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 5 {
		return fmt.Errorf("verify password: invalid hash format")
	}
	if parts[0] != "pbkdf2" || parts[1] != "sha256" {
		return fmt.Errorf("verify password: unsupported hash identifier")
	}
	iterations, err := strconv.Atoi(parts[2])
	if err != nil || iterations <= 0 {
		return fmt.Errorf("verify password: invalid iteration count")
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return fmt.Errorf("verify password: decode salt: %w", err)
	}
	storedKey, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("verify password: decode hash: %w", err)
	}
	derived := pbkdf2.Key([]byte(candidate), salt, iterations, len(storedKey), sha256.New)
	if len(derived) != len(storedKey) || subtle.ConstantTimeCompare(derived, storedKey) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

func cloneContentSection(section models.ContentSection) models.ContentSection {
	cloned := section
	if section.Body != nil {
		cloned.Body = append(json.RawMessage(nil), section.Body...)
	}
	return cloned
}

func cloneTranslation(translation models.Translation) models.Translation {
	cloned := translation
	if translation.Entries != nil {
		cloned.Entries = make(map[string]string, len(translation.Entries))
		for key, value := range translation.Entries {
			cloned.Entries[key] = value
		}
	}
	return cloned
}

func cloneTheme(theme models.Theme) models.Theme {
	cloned := theme
	if theme.Palette != nil {
		cloned.Palette = make(map[string]string, len(theme.Palette))
		for key, value := range theme.Palette {
			cloned.Palette[key] = value
		}
	}
	return cloned
}
