package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"geoguru/internal/contextutil"
	"geoguru/internal/storage"
	"geoguru/internal/tts"
)

// Synthesizer generates audio for text. Preset and custom voices take
// different API paths upstream.
type Synthesizer interface {
	Generate(ctx context.Context, apiKey, text, voiceID string) (*tts.Audio, error)
	ValidateKey(ctx context.Context, apiKey string) (bool, string)
}

// TTSHandler serves text-to-speech endpoints.
type TTSHandler struct {
	settings storage.SettingsStore
	client   Synthesizer
	// synthesizeCustom is a hook over the realtime websocket path.
	synthesizeCustom func(ctx context.Context, apiKey, text, voiceID, voiceType string) (*tts.Audio, error)
}

// NewTTSHandler creates a new TTSHandler.
func NewTTSHandler(settings storage.SettingsStore, client Synthesizer) *TTSHandler {
	return &TTSHandler{
		settings:         settings,
		client:           client,
		synthesizeCustom: tts.SynthesizeCustom,
	}
}

// Voices lists the preset voices.
func (h *TTSHandler) Voices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string][]tts.Voice{"voices": tts.PresetVoices})
}

// GenerateRequest is a synthesis request. VoiceType selects the custom-voice
// realtime path when set to "designed" or "cloned".
type TTSGenerateRequest struct {
	Text      string `json:"text"`
	VoiceID   string `json:"voice_id"`
	VoiceType string `json:"voice_type,omitempty"`
}

// Generate synthesizes audio with the caller's stored TTS key.
func (h *TTSHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	userID, _ := contextutil.UserIDFromContext(ctx)

	var req TTSGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, r, http.StatusBadRequest, "Missing text")
		return
	}
	if req.VoiceID == "" {
		req.VoiceID = tts.PresetVoices[0].VoiceID
	}

	apiKey, status, msg := h.apiKey(ctx, userID)
	if apiKey == "" {
		writeError(w, r, status, msg)
		return
	}

	var audio *tts.Audio
	var err error
	if req.VoiceType == "designed" || req.VoiceType == "cloned" {
		audio, err = h.synthesizeCustom(ctx, apiKey, req.Text, req.VoiceID, req.VoiceType)
	} else {
		audio, err = h.client.Generate(ctx, apiKey, req.Text, req.VoiceID)
	}
	if err != nil {
		logger.ErrorContext(ctx, "tts generation failed", "voice_id", req.VoiceID, "error", err)
		writeError(w, r, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, audio)
}

// TTSValidateRequest carries a candidate DashScope key.
type TTSValidateRequest struct {
	APIKey string `json:"api_key"`
}

// ValidateKey probes DashScope with the key and stores it when valid.
func (h *TTSHandler) ValidateKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := contextutil.UserIDFromContext(ctx)

	var req TTSValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	valid, errMsg := h.client.ValidateKey(ctx, req.APIKey)
	if valid {
		if err := h.settings.SaveKey(ctx, userID, "tts", req.APIKey); err != nil {
			contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to save TTS key", "error", err)
			writeError(w, r, http.StatusInternalServerError, "Failed to save API key")
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]any{"valid": true, "message": "API key is valid!"})
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{"valid": false, "error": errMsg})
}

func (h *TTSHandler) apiKey(ctx context.Context, userID int64) (string, int, string) {
	settings, err := h.settings.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", http.StatusBadRequest, "Please add your TTS API key in Settings"
		}
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to load settings", "error", err)
		return "", http.StatusInternalServerError, "Failed to load settings"
	}
	if settings.TTSAPIKey == "" {
		return "", http.StatusBadRequest, "Please add your TTS API key in Settings"
	}
	return settings.TTSAPIKey, 0, ""
}
