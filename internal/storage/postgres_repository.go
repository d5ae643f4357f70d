package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio-live/internal/models"
)

type postgresRepository struct {
	pool *pgxpool.Pool
	cfg  PostgresConfig
}

// NewPostgresRepository opens a Postgres backed repository and applies the
// embedded schema migrations before returning.
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (Repository, error) {
	cfg.normalize()
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections >= 0 {
		poolCfg.MinConns = cfg.MinConnections
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckInterval > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckInterval
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if poolCfg.ConnConfig.RuntimeParams == nil {
		poolCfg.ConnConfig.RuntimeParams = make(map[string]string)
	}
	poolCfg.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := applyMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &postgresRepository{pool: pool, cfg: cfg}, nil
}

func (r *postgresRepository) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.cfg.OperationTimeout)
}

// Close releases the connection pool, respecting the caller's deadline.
func (r *postgresRepository) Close(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		r.pool.Close()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (r *postgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// --- content sections ---

func (r *postgresRepository) ListContentSections() []models.ContentSection {
	ctx, cancel := r.opContext()
	defer cancel()
	rows, err := r.pool.Query(ctx, `SELECT key, title, body, published, updated_at FROM content_sections ORDER BY key`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var sections []models.ContentSection
	for rows.Next() {
		section, err := scanContentSection(rows)
		if err != nil {
			return nil
		}
		sections = append(sections, section)
	}
	return sections
}

func (r *postgresRepository) GetContentSection(key string) (models.ContentSection, bool) {
	ctx, cancel := r.opContext()
	defer cancel()
	row := r.pool.QueryRow(ctx, `SELECT key, title, body, published, updated_at FROM content_sections WHERE key = $1`, key)
	section, err := scanContentSection(row)
	if err != nil {
		return models.ContentSection{}, false
	}
	return section, true
}

func (r *postgresRepository) UpsertContentSection(key string, update ContentSectionUpdate) (models.ContentSection, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return models.ContentSection{}, fmt.Errorf("section key is required")
	}
	existing, ok := r.GetContentSection(key)
	if !ok {
		existing = models.ContentSection{Key: key}
	}
	if update.Title != nil {
		existing.Title = strings.TrimSpace(*update.Title)
	}
	if update.Body != nil {
		existing.Body = append(json.RawMessage(nil), update.Body...)
	}
	if update.Published != nil {
		existing.Published = *update.Published
	}
	existing.UpdatedAt = time.Now().UTC()

	ctx, cancel := r.opContext()
	defer cancel()
	_, err := r.pool.Exec(ctx, `INSERT INTO content_sections (key, title, body, published, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE SET title = $2, body = $3, published = $4, updated_at = $5`,
		existing.Key, existing.Title, nullableJSON(existing.Body), existing.Published, existing.UpdatedAt)
	if err != nil {
		return models.ContentSection{}, fmt.Errorf("upsert content section %s: %w", key, err)
	}
	return existing, nil
}

func (r *postgresRepository) DeleteContentSection(key string) error {
	ctx, cancel := r.opContext()
	defer cancel()
	tag, err := r.pool.Exec(ctx, `DELETE FROM content_sections WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete content section %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- translations ---

func (r *postgresRepository) ListLocales() []string {
	ctx, cancel := r.opContext()
	defer cancel()
	rows, err := r.pool.Query(ctx, `SELECT locale FROM translations ORDER BY locale`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var locales []string
	for rows.Next() {
		var locale string
		if err := rows.Scan(&locale); err != nil {
			return nil
		}
		locales = append(locales, locale)
	}
	return locales
}

func (r *postgresRepository) GetTranslation(locale string) (models.Translation, bool) {
	ctx, cancel := r.opContext()
	defer cancel()
	var (
		translation models.Translation
		rawEntries  []byte
	)
	row := r.pool.QueryRow(ctx, `SELECT locale, entries, updated_at FROM translations WHERE locale = $1`, locale)
	if err := row.Scan(&translation.Locale, &rawEntries, &translation.UpdatedAt); err != nil {
		return models.Translation{}, false
	}
	if err := json.Unmarshal(rawEntries, &translation.Entries); err != nil {
		return models.Translation{}, false
	}
	return translation, true
}

func (r *postgresRepository) UpsertTranslation(locale string, entries map[string]string) (models.Translation, error) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return models.Translation{}, fmt.Errorf("locale is required")
	}
	if entries == nil {
		entries = map[string]string{}
	}
	encoded, err := json.Marshal(entries)
	if err != nil {
		return models.Translation{}, fmt.Errorf("encode translation entries: %w", err)
	}
	translation := models.Translation{Locale: locale, Entries: entries, UpdatedAt: time.Now().UTC()}

	ctx, cancel := r.opContext()
	defer cancel()
	_, err = r.pool.Exec(ctx, `INSERT INTO translations (locale, entries, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (locale) DO UPDATE SET entries = $2, updated_at = $3`,
		translation.Locale, encoded, translation.UpdatedAt)
	if err != nil {
		return models.Translation{}, fmt.Errorf("upsert translation %s: %w", locale, err)
	}
	return translation, nil
}

func (r *postgresRepository) DeleteTranslation(locale string) error {
	ctx, cancel := r.opContext()
	defer cancel()
	tag, err := r.pool.Exec(ctx, `DELETE FROM translations WHERE locale = $1`, locale)
	if err != nil {
		return fmt.Errorf("delete translation %s: %w", locale, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- media assets ---

func (r *postgresRepository) CreateMediaAsset(params CreateMediaAssetParams) (models.MediaAsset, error) {
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
	ctx, cancel := r.opContext()
	defer cancel()
	_, err := r.pool.Exec(ctx, `INSERT INTO media_assets (id, kind, file_name, original_name, content_type, size_bytes, alt, processed, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		asset.ID, string(asset.Kind), asset.FileName, asset.OriginalName, asset.ContentType, asset.SizeBytes, asset.Alt, asset.Processed, asset.UploadedAt)
	if err != nil {
		return models.MediaAsset{}, fmt.Errorf("insert media asset: %w", err)
	}
	return asset, nil
}

func (r *postgresRepository) ListMediaAssets(kind models.MediaKind) []models.MediaAsset {
	ctx, cancel := r.opContext()
	defer cancel()
	query := `SELECT id, kind, file_name, original_name, content_type, size_bytes, alt, processed, uploaded_at FROM media_assets`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = $1`
		args = append(args, string(kind))
	}
	query += ` ORDER BY uploaded_at DESC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var assets []models.MediaAsset
	for rows.Next() {
		asset, err := scanMediaAsset(rows)
		if err != nil {
			return nil
		}
		assets = append(assets, asset)
	}
	return assets
}

func (r *postgresRepository) GetMediaAsset(id string) (models.MediaAsset, bool) {
	ctx, cancel := r.opContext()
	defer cancel()
	row := r.pool.QueryRow(ctx, `SELECT id, kind, file_name, original_name, content_type, size_bytes, alt, processed, uploaded_at FROM media_assets WHERE id = $1`, id)
	asset, err := scanMediaAsset(row)
	if err != nil {
		return models.MediaAsset{}, false
	}
	return asset, true
}

func (r *postgresRepository) MarkMediaAssetProcessed(id string) (models.MediaAsset, error) {
	ctx, cancel := r.opContext()
	defer cancel()
	tag, err := r.pool.Exec(ctx, `UPDATE media_assets SET processed = TRUE WHERE id = $1`, id)
	if err != nil {
		return models.MediaAsset{}, fmt.Errorf("mark media asset processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.MediaAsset{}, ErrNotFound
	}
	asset, _ := r.GetMediaAsset(id)
	return asset, nil
}

func (r *postgresRepository) DeleteMediaAsset(id string) (models.MediaAsset, error) {
	asset, ok := r.GetMediaAsset(id)
	if !ok {
		return models.MediaAsset{}, ErrNotFound
	}
	ctx, cancel := r.opContext()
	defer cancel()
	if _, err := r.pool.Exec(ctx, `DELETE FROM media_assets WHERE id = $1`, id); err != nil {
		return models.MediaAsset{}, fmt.Errorf("delete media asset %s: %w", id, err)
	}
	return asset, nil
}

// --- themes ---

func (r *postgresRepository) ListThemes() []models.Theme {
	ctx, cancel := r.opContext()
	defer cancel()
	rows, err := r.pool.Query(ctx, `SELECT name, palette, active, updated_at FROM themes ORDER BY name`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var themes []models.Theme
	for rows.Next() {
		theme, err := scanTheme(rows)
		if err != nil {
			return nil
		}
		themes = append(themes, theme)
	}
	return themes
}

func (r *postgresRepository) GetTheme(name string) (models.Theme, bool) {
	ctx, cancel := r.opContext()
	defer cancel()
	row := r.pool.QueryRow(ctx, `SELECT name, palette, active, updated_at FROM themes WHERE name = $1`, name)
	theme, err := scanTheme(row)
	if err != nil {
		return models.Theme{}, false
	}
	return theme, true
}

func (r *postgresRepository) UpsertTheme(name string, palette map[string]string) (models.Theme, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Theme{}, fmt.Errorf("theme name is required")
	}
	if palette == nil {
		palette = map[string]string{}
	}
	encoded, err := json.Marshal(palette)
	if err != nil {
		return models.Theme{}, fmt.Errorf("encode theme palette: %w", err)
	}
	theme := models.Theme{Name: name, Palette: palette, UpdatedAt: time.Now().UTC()}
	if existing, ok := r.GetTheme(name); ok {
		theme.Active = existing.Active
	}

	ctx, cancel := r.opContext()
	defer cancel()
	_, err = r.pool.Exec(ctx, `INSERT INTO themes (name, palette, active, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET palette = $2, active = $3, updated_at = $4`,
		theme.Name, encoded, theme.Active, theme.UpdatedAt)
	if err != nil {
		return models.Theme{}, fmt.Errorf("upsert theme %s: %w", name, err)
	}
	return theme, nil
}

func (r *postgresRepository) SetActiveTheme(name string) (models.Theme, error) {
	ctx, cancel := r.opContext()
	defer cancel()
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Theme{}, fmt.Errorf("begin theme transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `UPDATE themes SET active = TRUE WHERE name = $1`, name)
	if err != nil {
		return models.Theme{}, fmt.Errorf("activate theme %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return models.Theme{}, ErrNotFound
	}
	if _, err := tx.Exec(ctx, `UPDATE themes SET active = FALSE WHERE name <> $1 AND active`, name); err != nil {
		return models.Theme{}, fmt.Errorf("deactivate other themes: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Theme{}, fmt.Errorf("commit theme transaction: %w", err)
	}
	theme, _ := r.GetTheme(name)
	return theme, nil
}

func (r *postgresRepository) DeleteTheme(name string) error {
	ctx, cancel := r.opContext()
	defer cancel()
	tag, err := r.pool.Exec(ctx, `DELETE FROM themes WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete theme %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- feedback ---

func (r *postgresRepository) CreateFeedback(params CreateFeedbackParams) (models.FeedbackEntry, error) {
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
	ctx, cancel := r.opContext()
	defer cancel()
	_, err := r.pool.Exec(ctx, `INSERT INTO feedback_entries (id, name, email, message, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.Name, entry.Email, entry.Message, entry.Rating, entry.CreatedAt)
	if err != nil {
		return models.FeedbackEntry{}, fmt.Errorf("insert feedback: %w", err)
	}
	return entry, nil
}

func (r *postgresRepository) ListFeedback() []models.FeedbackEntry {
	ctx, cancel := r.opContext()
	defer cancel()
	rows, err := r.pool.Query(ctx, `SELECT id, name, email, message, rating, created_at FROM feedback_entries ORDER BY created_at DESC`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var entries []models.FeedbackEntry
	for rows.Next() {
		var entry models.FeedbackEntry
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.Email, &entry.Message, &entry.Rating, &entry.CreatedAt); err != nil {
			return nil
		}
		entries = append(entries, entry)
	}
	return entries
}

func (r *postgresRepository) DeleteFeedback(id string) error {
	ctx, cancel := r.opContext()
	defer cancel()
	tag, err := r.pool.Exec(ctx, `DELETE FROM feedback_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete feedback %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- analytics ---

func (r *postgresRepository) AppendAnalyticsEvents(events []models.AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}
	ctx, cancel := r.opContext()
	defer cancel()
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin analytics transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	for _, event := range events {
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		if event.OccurredAt.IsZero() {
			event.OccurredAt = time.Now().UTC()
		}
		_, err := tx.Exec(ctx, `INSERT INTO analytics_events (id, visitor_id, name, path, referrer, user_agent, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (id) DO NOTHING`,
			event.ID, event.VisitorID, event.Name, event.Path, event.Referrer, event.UserAgent, event.OccurredAt)
		if err != nil {
			return fmt.Errorf("insert analytics event %s: %w", event.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit analytics transaction: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListAnalyticsEvents(limit int) []models.AnalyticsEvent {
	if limit <= 0 {
		limit = 100
	}
	ctx, cancel := r.opContext()
	defer cancel()
	rows, err := r.pool.Query(ctx, `SELECT id, visitor_id, name, path, referrer, user_agent, occurred_at
		FROM analytics_events ORDER BY occurred_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var events []models.AnalyticsEvent
	for rows.Next() {
		var event models.AnalyticsEvent
		if err := rows.Scan(&event.ID, &event.VisitorID, &event.Name, &event.Path, &event.Referrer, &event.UserAgent, &event.OccurredAt); err != nil {
			return nil
		}
		events = append(events, event)
	}
	// Reverse into chronological order to match the JSON store.
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events
}

func (r *postgresRepository) CountAnalyticsEvents() int {
	ctx, cancel := r.opContext()
	defer cancel()
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM analytics_events`).Scan(&count); err != nil {
		return 0
	}
	return count
}

// --- accessibility ---

func (r *postgresRepository) GetAccessibilityProfile(visitorID string) (models.AccessibilityProfile, bool) {
	ctx, cancel := r.opContext()
	defer cancel()
	var profile models.AccessibilityProfile
	row := r.pool.QueryRow(ctx, `SELECT visitor_id, high_contrast, reduced_motion, font_scale, updated_at
		FROM accessibility_profiles WHERE visitor_id = $1`, visitorID)
	if err := row.Scan(&profile.VisitorID, &profile.HighContrast, &profile.ReducedMotion, &profile.FontScale, &profile.UpdatedAt); err != nil {
		return models.AccessibilityProfile{}, false
	}
	return profile, true
}

func (r *postgresRepository) UpsertAccessibilityProfile(profile models.AccessibilityProfile) (models.AccessibilityProfile, error) {
	profile.VisitorID = strings.TrimSpace(profile.VisitorID)
	if profile.VisitorID == "" {
		return models.AccessibilityProfile{}, fmt.Errorf("visitor id is required")
	}
	profile.UpdatedAt = time.Now().UTC()
	ctx, cancel := r.opContext()
	defer cancel()
	_, err := r.pool.Exec(ctx, `INSERT INTO accessibility_profiles (visitor_id, high_contrast, reduced_motion, font_scale, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (visitor_id) DO UPDATE SET high_contrast = $2, reduced_motion = $3, font_scale = $4, updated_at = $5`,
		profile.VisitorID, profile.HighContrast, profile.ReducedMotion, profile.FontScale, profile.UpdatedAt)
	if err != nil {
		return models.AccessibilityProfile{}, fmt.Errorf("upsert accessibility profile: %w", err)
	}
	return profile, nil
}

// --- admin accounts ---

func (r *postgresRepository) EnsureAdminAccount(username, password string) (models.AdminAccount, error) {
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
	account := models.AdminAccount{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	ctx, cancel := r.opContext()
	defer cancel()
	row := r.pool.QueryRow(ctx, `INSERT INTO admin_accounts (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO UPDATE SET password_hash = $3
		RETURNING id, created_at`,
		account.ID, account.Username, account.PasswordHash, account.CreatedAt)
	if err := row.Scan(&account.ID, &account.CreatedAt); err != nil {
		return models.AdminAccount{}, fmt.Errorf("ensure admin account %s: %w", username, err)
	}
	return account, nil
}

func (r *postgresRepository) AuthenticateAdmin(username, password string) (models.AdminAccount, error) {
	ctx, cancel := r.opContext()
	defer cancel()
	var account models.AdminAccount
	row := r.pool.QueryRow(ctx, `SELECT id, username, password_hash, created_at FROM admin_accounts WHERE username = $1`,
		strings.TrimSpace(username))
	if err := row.Scan(&account.ID, &account.Username, &account.PasswordHash, &account.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AdminAccount{}, ErrInvalidCredentials
		}
		return models.AdminAccount{}, fmt.Errorf("load admin account %s: %w", username, err)
	}
	if err := verifyPassword(account.PasswordHash, password); err != nil {
		return models.AdminAccount{}, err
	}
	return account, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContentSection(row rowScanner) (models.ContentSection, error) {
	var (
		section models.ContentSection
		body    []byte
	)
	if err := row.Scan(&section.Key, &section.Title, &body, &section.Published, &section.UpdatedAt); err != nil {
		return models.ContentSection{}, err
	}
	if body != nil {
		section.Body = json.RawMessage(body)
	}
	return section, nil
}

func scanMediaAsset(row rowScanner) (models.MediaAsset, error) {
	var (
		asset models.MediaAsset
		kind  string
	)
	if err := row.Scan(&asset.ID, &kind, &asset.FileName, &asset.OriginalName, &asset.ContentType, &asset.SizeBytes, &asset.Alt, &asset.Processed, &asset.UploadedAt); err != nil {
		return models.MediaAsset{}, err
	}
	asset.Kind = models.MediaKind(kind)
	return asset, nil
}

func scanTheme(row rowScanner) (models.Theme, error) {
	var (
		theme      models.Theme
		rawPalette []byte
	)
	if err := row.Scan(&theme.Name, &rawPalette, &theme.Active, &theme.UpdatedAt); err != nil {
		return models.Theme{}, err
	}
	if err := json.Unmarshal(rawPalette, &theme.Palette); err != nil {
		return models.Theme{}, err
	}
	return theme, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

var _ Repository = (*postgresRepository)(nil)
