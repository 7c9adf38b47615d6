package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"geoguru/internal/contextutil"
)

// EmbeddingsClient is a client for an OpenAI-compatible embeddings API.
// BaseURLs is an ordered list of endpoints; each call tries them in order and
// the first success wins, so a regional outage degrades to the next endpoint
// instead of failing the call.
type EmbeddingsClient struct {
	BaseURLs     []string
	APIKey       string
	Model        string
	ExpectedSize int // Expected vector size for validation
	client       *http.Client
}

// NewEmbeddingsClient creates a new embeddings client.
// expectedSize is the expected vector size (from EMBEDDING_VECTOR_SIZE config).
// All embeddings returned by Embed will be validated against this size.
func NewEmbeddingsClient(baseURLs []string, apiKey, model string, expectedSize int) *EmbeddingsClient {
	return &EmbeddingsClient{
		BaseURLs:     baseURLs,
		APIKey:       apiKey,
		Model:        model,
		ExpectedSize: expectedSize,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

// EmbeddingsRequest represents the request payload for the embeddings API.
type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingData represents a single embedding in the response.
type EmbeddingData struct {
	Embedding []float64 `json:"embedding"`
}

// EmbeddingsResponse represents the response from the embeddings API.
type EmbeddingsResponse struct {
	Data []EmbeddingData `json:"data"`
}

// Embed generates an embedding for the given text. All failures are returned
// as *EmbeddingError.
func (c *EmbeddingsClient) Embed(ctx context.Context, text string) ([]float32, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(c.BaseURLs) == 0 {
		return nil, &EmbeddingError{Message: "no embedding endpoints configured"}
	}

	var lastErr *EmbeddingError
	for _, baseURL := range c.BaseURLs {
		vec, err := c.embedAt(ctx, baseURL, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err
		logger.WarnContext(ctx, "embedding endpoint failed", "base_url", baseURL, "error", err)
	}
	return nil, lastErr
}

func (c *EmbeddingsClient) embedAt(ctx context.Context, baseURL, text string) ([]float32, *EmbeddingError) {
	url := fmt.Sprintf("%s/v1/embeddings", baseURL)

	payload := EmbeddingsRequest{
		Model: c.Model,
		Input: []string{text},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &EmbeddingError{Message: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, &EmbeddingError{Message: fmt.Sprintf("failed to create request: %v", err)}
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &EmbeddingError{Message: fmt.Sprintf("failed to send request: %v", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &EmbeddingError{Status: resp.StatusCode, Message: string(raw)}
	}

	var embeddingsResp EmbeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingsResp); err != nil {
		return nil, &EmbeddingError{Message: fmt.Sprintf("failed to decode response: %v", err)}
	}

	if len(embeddingsResp.Data) != 1 {
		return nil, &EmbeddingError{Message: fmt.Sprintf("expected 1 embedding, got %d", len(embeddingsResp.Data))}
	}

	data := embeddingsResp.Data[0]
	if len(data.Embedding) != c.ExpectedSize {
		return nil, &EmbeddingError{Message: fmt.Sprintf("embedding has size %d, expected %d", len(data.Embedding), c.ExpectedSize)}
	}

	vec := make([]float32, len(data.Embedding))
	for i, v := range data.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
