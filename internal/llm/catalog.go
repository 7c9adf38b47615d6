package llm

// Static model catalogs, served when a live model listing is unavailable for
// the provider.

var ClaudeModels = []ModelInfo{
	{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4 (Latest)"},
	{ID: "claude-opus-4-20250514", Name: "Claude Opus 4"},
	{ID: "claude-haiku-4-5-20251001", Name: "Claude Haiku 4.5 (Fast)"},
}

var GeminiModels = []ModelInfo{
	{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash (Latest)"},
	{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro"},
	{ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash"},
}

var OpenAIModels = []ModelInfo{
	{ID: "gpt-4o", Name: "GPT-4o (Latest)"},
	{ID: "gpt-4o-mini", Name: "GPT-4o Mini (Fast)"},
	{ID: "gpt-4-turbo", Name: "GPT-4 Turbo"},
}

// Catalog returns the static model list for the named provider.
func Catalog(provider string) []ModelInfo {
	switch provider {
	case ProviderClaude:
		return ClaudeModels
	case ProviderGemini:
		return GeminiModels
	case ProviderOpenAI:
		return OpenAIModels
	default:
		return nil
	}
}
