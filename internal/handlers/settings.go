package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"geoguru/internal/contextutil"
	"geoguru/internal/llm"
	"geoguru/internal/storage"
)

// KeyValidator probes a provider API with a candidate key.
type KeyValidator interface {
	ValidateKey(ctx context.Context, provider, apiKey string) llm.KeyValidation
}

// SettingsHandler manages per-user AI provider settings.
type SettingsHandler struct {
	store     storage.SettingsStore
	validator KeyValidator
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(store storage.SettingsStore, validator KeyValidator) *SettingsHandler {
	return &SettingsHandler{
		store:     store,
		validator: validator,
	}
}

// SettingsView is the masked settings payload. Keys are never returned in
// full; only the last four characters survive.
type SettingsView struct {
	DefaultProvider string `json:"default_provider,omitempty"`
	ClaudeAPIKey    string `json:"claude_api_key,omitempty"`
	GeminiAPIKey    string `json:"gemini_api_key,omitempty"`
	OpenAIAPIKey    string `json:"openai_api_key,omitempty"`
	ClaudeModel     string `json:"claude_model,omitempty"`
	GeminiModel     string `json:"gemini_model,omitempty"`
	OpenAIModel     string `json:"openai_model,omitempty"`
	TTSAPIKey       string `json:"tts_api_key,omitempty"`
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	last4 := key
	if len(key) > 4 {
		last4 = key[len(key)-4:]
	}
	return strings.Repeat("•", 20) + last4
}

// Get returns the caller's settings with masked keys, plus the static model
// catalogs.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := contextutil.UserIDFromContext(ctx)

	settings, err := h.store.Get(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to load settings", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to load settings")
		return
	}

	view := SettingsView{}
	if settings != nil {
		view = SettingsView{
			DefaultProvider: settings.DefaultProvider,
			ClaudeAPIKey:    maskKey(settings.ClaudeAPIKey),
			GeminiAPIKey:    maskKey(settings.GeminiAPIKey),
			OpenAIAPIKey:    maskKey(settings.OpenAIAPIKey),
			ClaudeModel:     settings.ClaudeModel,
			GeminiModel:     settings.GeminiModel,
			OpenAIModel:     settings.OpenAIModel,
			TTSAPIKey:       maskKey(settings.TTSAPIKey),
		}
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"settings": view,
		"models": map[string][]llm.ModelInfo{
			"claude": llm.ClaudeModels,
			"gemini": llm.GeminiModels,
			"openai": llm.OpenAIModels,
		},
	})
}

// UpdateRequest is a partial preferences update; absent fields are untouched.
type UpdateRequest struct {
	DefaultProvider *string `json:"default_provider"`
	ClaudeModel     *string `json:"claude_model"`
	GeminiModel     *string `json:"gemini_model"`
	OpenAIModel     *string `json:"openai_model"`
}

// Update applies a partial preferences update.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := contextutil.UserIDFromContext(ctx)

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.store.Update(ctx, userID, storage.SettingsUpdate{
		DefaultProvider: req.DefaultProvider,
		ClaudeModel:     req.ClaudeModel,
		GeminiModel:     req.GeminiModel,
		OpenAIModel:     req.OpenAIModel,
	})
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to update settings", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to update settings")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

// ValidateKeyRequest carries a candidate provider key.
type ValidateKeyRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
}

// ValidateKey probes the provider with the key and stores it when valid.
func (h *SettingsHandler) ValidateKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := contextutil.UserIDFromContext(ctx)

	var req ValidateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Provider == "" || req.APIKey == "" {
		writeJSON(w, r, http.StatusBadRequest, llm.KeyValidation{Valid: false, Error: "Missing provider or API key"})
		return
	}

	result := h.validator.ValidateKey(ctx, req.Provider, req.APIKey)

	if result.Valid {
		if err := h.store.SaveKey(ctx, userID, req.Provider, req.APIKey); err != nil {
			contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to save API key", "provider", req.Provider, "error", err)
			writeError(w, r, http.StatusInternalServerError, "Failed to save API key")
			return
		}
	}

	writeJSON(w, r, http.StatusOK, result)
}

// Models lists the models available to the caller for one provider, probing
// the provider when a key is stored and falling back to the static catalog.
func (h *SettingsHandler) Models(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := contextutil.UserIDFromContext(ctx)
	provider := chi.URLParam(r, "provider")

	settings, err := h.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, r, http.StatusOK, map[string]any{"models": []llm.ModelInfo{}, "error": "No settings found"})
			return
		}
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to load settings", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to load settings")
		return
	}

	apiKey := settings.KeyFor(provider)
	// Anthropic has no public model listing; the static catalog is all there is.
	if apiKey == "" || provider == llm.ProviderClaude {
		catalog := llm.Catalog(provider)
		if catalog == nil {
			catalog = []llm.ModelInfo{}
		}
		writeJSON(w, r, http.StatusOK, map[string]any{"models": catalog})
		return
	}

	result := h.validator.ValidateKey(ctx, provider, apiKey)
	models := result.Models
	if len(models) == 0 {
		models = llm.Catalog(provider)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"models": models})
}
