// Package tts generates spoken audio for revision content through the
// DashScope Qwen3-TTS service. Preset voices go through the HTTP generation
// endpoint; custom voices stream over the realtime websocket API.
package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	dashscopeBaseURL = "https://dashscope-intl.aliyuncs.com"

	generationPath    = "/api/v1/services/aigc/multimodal-generation/generation"
	customizationPath = "/api/v1/services/audio/tts/customization"

	flashModel       = "qwen3-tts-flash"
	voiceDesignModel = "qwen-voice-design"
	designTarget     = "qwen3-tts-vd-realtime-2025-12-16"
)

// Voice describes a selectable preset voice.
type Voice struct {
	VoiceID     string `json:"voice_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Language    string `json:"language"`
}

// PresetVoices are the built-in Qwen3-TTS voices.
var PresetVoices = []Voice{
	{VoiceID: "Cherry", Name: "Cherry", Description: "Female, Friendly", Language: "en"},
	{VoiceID: "Ethan", Name: "Ethan", Description: "Male, Standard", Language: "en"},
	{VoiceID: "Serena", Name: "Serena", Description: "Female, Professional", Language: "en"},
	{VoiceID: "Chelsie", Name: "Chelsie", Description: "Female, Warm", Language: "en"},
}

// Audio is a finished synthesis result.
type Audio struct {
	Base64 string `json:"audio_base64"`
	Format string `json:"format"`
}

// Client calls the DashScope TTS APIs. BaseURL is a field so tests can point
// it at a local server.
type Client struct {
	BaseURL string
	client  *http.Client
}

// NewClient creates a TTS client against the real DashScope endpoint.
func NewClient() *Client {
	return &Client{
		BaseURL: dashscopeBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type generationRequest struct {
	Model string `json:"model"`
	Input struct {
		Text         string `json:"text"`
		Voice        string `json:"voice"`
		LanguageType string `json:"language_type"`
	} `json:"input"`
}

type generationResponse struct {
	Output struct {
		Audio struct {
			URL  string `json:"url"`
			Data string `json:"data"`
		} `json:"audio"`
	} `json:"output"`
}

// Generate synthesizes text with a preset voice. The API returns either a URL
// to fetch finished audio from or base64 PCM; both paths end in WAV bytes.
func (c *Client) Generate(ctx context.Context, apiKey, text, voiceID string) (*Audio, error) {
	if text == "" {
		return nil, fmt.Errorf("no text provided")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key provided")
	}

	payload := generationRequest{Model: flashModel}
	payload.Input.Text = text
	payload.Input.Voice = voiceID
	payload.Input.LanguageType = "English"

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+generationPath, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tts API error: %d - %s", resp.StatusCode, string(raw))
	}

	var result generationResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	switch {
	case result.Output.Audio.URL != "":
		audioBytes, err := c.fetchAudio(ctx, result.Output.Audio.URL)
		if err != nil {
			return nil, err
		}
		return &Audio{
			Base64: base64.StdEncoding.EncodeToString(audioBytes),
			Format: "wav",
		}, nil
	case result.Output.Audio.Data != "":
		pcm, err := base64.StdEncoding.DecodeString(result.Output.Audio.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode audio data: %w", err)
		}
		return &Audio{
			Base64: base64.StdEncoding.EncodeToString(PCMToWAV(pcm, DefaultSampleRate)),
			Format: "wav",
		}, nil
	default:
		return nil, fmt.Errorf("no audio in response")
	}
}

func (c *Client) fetchAudio(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio fetch failed: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

type customizationRequest struct {
	Model string `json:"model"`
	Input struct {
		Action      string `json:"action"`
		TargetModel string `json:"target_model"`
	} `json:"input"`
}

// ValidateKey probes the voice customization list endpoint with the key.
func (c *Client) ValidateKey(ctx context.Context, apiKey string) (bool, string) {
	if apiKey == "" {
		return false, "API key is empty"
	}

	payload := customizationRequest{Model: voiceDesignModel}
	payload.Input.Action = "list"
	payload.Input.TargetModel = designTarget

	body, err := json.Marshal(payload)
	if err != nil {
		return false, err.Error()
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+customizationPath, bytes.NewBuffer(body))
	if err != nil {
		return false, err.Error()
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Sprintf("Connection error: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, ""
	case http.StatusUnauthorized:
		return false, "Invalid API key"
	default:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return false, fmt.Sprintf("API error: %s", string(raw))
	}
}
