package llm

import "fmt"

// Provider names accepted by the settings and chat endpoints.
const (
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// NewProvider returns the client for the named provider.
func NewProvider(name, apiKey string) (Provider, error) {
	switch name {
	case ProviderClaude:
		return NewAnthropicClient(apiKey), nil
	case ProviderGemini:
		return NewGeminiClient(apiKey), nil
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}

// DefaultModel returns the fallback model for the named provider.
func DefaultModel(name string) string {
	switch name {
	case ProviderClaude:
		return DefaultClaudeModel
	case ProviderGemini:
		return DefaultGeminiModel
	case ProviderOpenAI:
		return DefaultOpenAIModel
	default:
		return ""
	}
}
