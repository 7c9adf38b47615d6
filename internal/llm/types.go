package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_provider.go -package=mocks geoguru/internal/llm Provider

import (
	"context"
	"fmt"
)

// Provider is a generative text completion backend.
type Provider interface {
	// Complete sends a single-turn prompt and returns the model's text reply.
	Complete(ctx context.Context, prompt, model string, maxTokens int) (string, error)
}

// ModelInfo describes a selectable model for the settings UI.
type ModelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// KeyValidation is the outcome of probing a provider with an API key.
type KeyValidation struct {
	Valid  bool        `json:"valid"`
	Error  string      `json:"error,omitempty"`
	Models []ModelInfo `json:"models,omitempty"`
}

// EmbeddingError reports a failed embedding call. Status is zero when the
// request never reached the server.
type EmbeddingError struct {
	Status  int
	Message string
}

func (e *EmbeddingError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("embedding request failed: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("embedding request failed: %s", e.Message)
}
