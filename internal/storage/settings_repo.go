package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SettingsUpdate carries a partial update of a user's AI settings.
// Nil fields are left unchanged.
type SettingsUpdate struct {
	DefaultProvider *string
	ClaudeModel     *string
	GeminiModel     *string
	OpenAIModel     *string
}

// SettingsStore defines the interface for AI settings operations.
type SettingsStore interface {
	// Get gets a user's settings. Returns ErrNotFound when none exist yet.
	Get(ctx context.Context, userID int64) (*AISettings, error)
	// SaveKey upserts an API key for one provider ("claude", "gemini",
	// "openai" or "tts"), creating the settings row if needed.
	SaveKey(ctx context.Context, userID int64, provider, key string) error
	// Update applies a partial preferences update, creating the row if needed.
	Update(ctx context.Context, userID int64, update SettingsUpdate) error
}

// SettingsRepo provides methods for AI settings operations.
// It implements the SettingsStore interface.
type SettingsRepo struct {
	db *sql.DB
}

// NewSettingsRepo creates a new SettingsRepo.
func NewSettingsRepo(db *sql.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// Get gets a user's settings. Returns ErrNotFound when none exist yet.
func (r *SettingsRepo) Get(ctx context.Context, userID int64) (*AISettings, error) {
	var s AISettings
	var claudeKey, geminiKey, openaiKey, claudeModel, geminiModel, openaiModel, ttsKey sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, default_provider, claude_api_key, gemini_api_key, openai_api_key,
		        claude_model, gemini_model, openai_model, tts_api_key
		 FROM ai_settings WHERE user_id = ?`,
		userID,
	).Scan(&s.UserID, &s.DefaultProvider, &claudeKey, &geminiKey, &openaiKey, &claudeModel, &geminiModel, &openaiModel, &ttsKey)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ai settings: %w", err)
	}

	s.ClaudeAPIKey = claudeKey.String
	s.GeminiAPIKey = geminiKey.String
	s.OpenAIAPIKey = openaiKey.String
	s.ClaudeModel = claudeModel.String
	s.GeminiModel = geminiModel.String
	s.OpenAIModel = openaiModel.String
	s.TTSAPIKey = ttsKey.String

	return &s, nil
}

// SaveKey upserts an API key for one provider, creating the settings row if needed.
func (r *SettingsRepo) SaveKey(ctx context.Context, userID int64, provider, key string) error {
	var column string
	switch provider {
	case "claude":
		column = "claude_api_key"
	case "gemini":
		column = "gemini_api_key"
	case "openai":
		column = "openai_api_key"
	case "tts":
		column = "tts_api_key"
	default:
		return fmt.Errorf("unknown provider %q", provider)
	}

	query := fmt.Sprintf(
		"INSERT INTO ai_settings (user_id, %s) VALUES (?, ?) ON CONFLICT(user_id) DO UPDATE SET %s = excluded.%s",
		column, column, column,
	)
	if _, err := r.db.ExecContext(ctx, query, userID, key); err != nil {
		return fmt.Errorf("failed to save %s api key: %w", provider, err)
	}
	return nil
}

// Update applies a partial preferences update, creating the row if needed.
func (r *SettingsRepo) Update(ctx context.Context, userID int64, update SettingsUpdate) error {
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO ai_settings (user_id) VALUES (?) ON CONFLICT(user_id) DO NOTHING",
		userID,
	); err != nil {
		return fmt.Errorf("failed to ensure ai settings row: %w", err)
	}

	set := func(column string, value *string) error {
		if value == nil {
			return nil
		}
		query := fmt.Sprintf("UPDATE ai_settings SET %s = ? WHERE user_id = ?", column)
		if _, err := r.db.ExecContext(ctx, query, *value, userID); err != nil {
			return fmt.Errorf("failed to update %s: %w", column, err)
		}
		return nil
	}

	if err := set("default_provider", update.DefaultProvider); err != nil {
		return err
	}
	if err := set("claude_model", update.ClaudeModel); err != nil {
		return err
	}
	if err := set("gemini_model", update.GeminiModel); err != nil {
		return err
	}
	return set("openai_model", update.OpenAIModel)
}
