package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Validator probes provider APIs with a user-supplied key and returns whether
// the key works plus the models it can use. Base URLs are fields so tests can
// point them at a local server.
type Validator struct {
	AnthropicBaseURL string
	OpenAIBaseURL    string
	GeminiBaseURL    string
	client           *http.Client
}

// NewValidator creates a validator against the real provider endpoints.
func NewValidator() *Validator {
	return &Validator{
		AnthropicBaseURL: anthropicBaseURL,
		OpenAIBaseURL:    openaiBaseURL,
		GeminiBaseURL:    geminiBaseURL,
		client:           &http.Client{Timeout: 10 * time.Second},
	}
}

// ValidateKey checks the API key against the named provider.
func (v *Validator) ValidateKey(ctx context.Context, provider, apiKey string) KeyValidation {
	switch provider {
	case ProviderClaude:
		return v.validateClaude(ctx, apiKey)
	case ProviderOpenAI:
		return v.validateOpenAI(ctx, apiKey)
	case ProviderGemini:
		return v.validateGemini(ctx, apiKey)
	default:
		return KeyValidation{Valid: false, Error: fmt.Sprintf("unknown provider: %s", provider)}
	}
}

// validateClaude sends a minimal one-token message. Anthropic returns 400 for
// some malformed-but-authenticated requests, so 400 still means the key works.
func (v *Validator) validateClaude(ctx context.Context, apiKey string) KeyValidation {
	payload := anthropicRequest{
		Model:     DefaultClaudeModel,
		MaxTokens: 1,
		Messages:  []ChatMessage{{Role: "user", Content: "hi"}},
	}
	body, _ := json.Marshal(payload)

	url := fmt.Sprintf("%s/v1/messages", v.AnthropicBaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return KeyValidation{Valid: false, Error: err.Error()}
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return KeyValidation{Valid: false, Error: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusBadRequest:
		return KeyValidation{Valid: true, Models: ClaudeModels}
	case resp.StatusCode == http.StatusUnauthorized:
		return KeyValidation{Valid: false, Error: "Invalid API key"}
	default:
		return KeyValidation{Valid: false, Error: fmt.Sprintf("Error: %d", resp.StatusCode)}
	}
}

// validateOpenAI lists models and filters to chat-capable ones.
func (v *Validator) validateOpenAI(ctx context.Context, apiKey string) KeyValidation {
	url := fmt.Sprintf("%s/v1/models", v.OpenAIBaseURL)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return KeyValidation{Valid: false, Error: err.Error()}
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))

	resp, err := v.client.Do(req)
	if err != nil {
		return KeyValidation{Valid: false, Error: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		return KeyValidation{Valid: false, Error: "Invalid API key"}
	}
	if resp.StatusCode != http.StatusOK {
		return KeyValidation{Valid: false, Error: fmt.Sprintf("Error: %d", resp.StatusCode)}
	}

	var listing struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return KeyValidation{Valid: false, Error: err.Error()}
	}

	friendly := map[string]string{
		"gpt-4o":        "GPT-4o (Latest)",
		"gpt-4o-mini":   "GPT-4o Mini (Fast)",
		"gpt-4-turbo":   "GPT-4 Turbo",
		"gpt-4":         "GPT-4",
		"gpt-3.5-turbo": "GPT-3.5 Turbo",
		"o1":            "o1 (Reasoning)",
		"o1-mini":       "o1 Mini",
		"o1-preview":    "o1 Preview",
	}

	var models []ModelInfo
	for _, m := range listing.Data {
		if !isChatModel(m.ID) {
			continue
		}
		name := m.ID
		if f, ok := friendly[m.ID]; ok {
			name = f
		}
		models = append(models, ModelInfo{ID: m.ID, Name: name})
	}

	// Newest first
	sort.Slice(models, func(i, j int) bool { return models[i].ID > models[j].ID })
	if len(models) > 15 {
		models = models[:15]
	}
	if len(models) == 0 {
		models = OpenAIModels
	}
	return KeyValidation{Valid: true, Models: models}
}

func isChatModel(id string) bool {
	chat := false
	for _, prefix := range []string{"gpt-4", "gpt-3.5", "o1", "o3"} {
		if strings.Contains(id, prefix) {
			chat = true
			break
		}
	}
	if !chat {
		return false
	}
	for _, excluded := range []string{"instruct", "audio", "realtime"} {
		if strings.Contains(id, excluded) {
			return false
		}
	}
	return true
}

// validateGemini lists models with the key as a query parameter.
func (v *Validator) validateGemini(ctx context.Context, apiKey string) KeyValidation {
	url := fmt.Sprintf("%s/v1beta/models?key=%s", v.GeminiBaseURL, apiKey)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return KeyValidation{Valid: false, Error: err.Error()}
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return KeyValidation{Valid: false, Error: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return KeyValidation{Valid: false, Error: "Invalid API key"}
	case http.StatusOK:
	default:
		return KeyValidation{Valid: false, Error: fmt.Sprintf("Error: %d", resp.StatusCode)}
	}

	var listing struct {
		Models []struct {
			Name        string `json:"name"`
			DisplayName string `json:"displayName"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return KeyValidation{Valid: false, Error: err.Error()}
	}

	var models []ModelInfo
	for _, m := range listing.Models {
		name := strings.TrimPrefix(m.Name, "models/")
		if !strings.Contains(strings.ToLower(name), "gemini") {
			continue
		}
		display := m.DisplayName
		if display == "" {
			display = name
		}
		models = append(models, ModelInfo{ID: name, Name: display})
	}

	sort.Slice(models, func(i, j int) bool { return models[i].Name > models[j].Name })
	if len(models) > 10 {
		models = models[:10]
	}
	if len(models) == 0 {
		models = GeminiModels
	}
	return KeyValidation{Valid: true, Models: models}
}
