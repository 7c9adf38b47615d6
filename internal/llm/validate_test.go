package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testValidator(serverURL string) *Validator {
	return &Validator{
		AnthropicBaseURL: serverURL,
		OpenAIBaseURL:    serverURL,
		GeminiBaseURL:    serverURL,
		client:           &http.Client{Timeout: 5 * time.Second},
	}
}

func TestValidator_ValidateKey_UnknownProvider(t *testing.T) {
	v := testValidator("http://unused")

	result := v.ValidateKey(context.Background(), "cohere", "key")
	if result.Valid {
		t.Error("unknown provider validated as true")
	}
}

func TestValidator_ValidateClaude(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantValid bool
	}{
		{"ok means valid", http.StatusOK, true},
		{"bad request still means valid key", http.StatusBadRequest, true},
		{"unauthorized means invalid", http.StatusUnauthorized, false},
		{"server error means invalid", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/messages" {
					t.Errorf("path = %s, want /v1/messages", r.URL.Path)
				}
				if got := r.Header.Get("x-api-key"); got != "sk-ant-test" {
					t.Errorf("x-api-key = %q, want sk-ant-test", got)
				}
				if got := r.Header.Get("anthropic-version"); got == "" {
					t.Error("anthropic-version header not set")
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			result := testValidator(server.URL).ValidateKey(context.Background(), ProviderClaude, "sk-ant-test")
			if result.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", result.Valid, tt.wantValid)
			}
			if tt.wantValid && len(result.Models) == 0 {
				t.Error("valid key returned no models")
			}
		})
	}
}

func TestValidator_ValidateOpenAI_FiltersChatModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("path = %s, want /v1/models", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data": [
			{"id": "gpt-4o"},
			{"id": "gpt-4o-mini"},
			{"id": "gpt-4o-audio-preview"},
			{"id": "gpt-3.5-turbo-instruct"},
			{"id": "whisper-1"},
			{"id": "o1-mini"}
		]}`))
	}))
	defer server.Close()

	result := testValidator(server.URL).ValidateKey(context.Background(), ProviderOpenAI, "sk-test")
	if !result.Valid {
		t.Fatalf("Valid = false, error = %s", result.Error)
	}

	got := make(map[string]bool, len(result.Models))
	for _, m := range result.Models {
		got[m.ID] = true
	}
	for _, want := range []string{"gpt-4o", "gpt-4o-mini", "o1-mini"} {
		if !got[want] {
			t.Errorf("models missing %s: %v", want, result.Models)
		}
	}
	for _, excluded := range []string{"gpt-4o-audio-preview", "gpt-3.5-turbo-instruct", "whisper-1"} {
		if got[excluded] {
			t.Errorf("models should not include %s: %v", excluded, result.Models)
		}
	}
}

func TestValidator_ValidateOpenAI_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	result := testValidator(server.URL).ValidateKey(context.Background(), ProviderOpenAI, "bad")
	if result.Valid {
		t.Error("unauthorized key validated as true")
	}
	if result.Error != "Invalid API key" {
		t.Errorf("error = %q, want Invalid API key", result.Error)
	}
}

func TestValidator_ValidateOpenAI_EmptyListFallsBackToCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{"id": "whisper-1"}]}`))
	}))
	defer server.Close()

	result := testValidator(server.URL).ValidateKey(context.Background(), ProviderOpenAI, "sk-test")
	if !result.Valid {
		t.Fatalf("Valid = false, error = %s", result.Error)
	}
	if len(result.Models) != len(OpenAIModels) {
		t.Errorf("models = %v, want static catalog", result.Models)
	}
}

func TestValidator_ValidateGemini(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantValid bool
	}{
		{
			name:      "valid key lists models",
			status:    http.StatusOK,
			body:      `{"models": [{"name": "models/gemini-2.0-flash", "displayName": "Gemini 2.0 Flash"}, {"name": "models/text-embedding-004", "displayName": "Embedding"}]}`,
			wantValid: true,
		},
		{"bad request means invalid", http.StatusBadRequest, "", false},
		{"unauthorized means invalid", http.StatusUnauthorized, "", false},
		{"forbidden means invalid", http.StatusForbidden, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("key"); got != "gem-test" {
					t.Errorf("key param = %q, want gem-test", got)
				}
				w.WriteHeader(tt.status)
				if tt.body != "" {
					_, _ = w.Write([]byte(tt.body))
				}
			}))
			defer server.Close()

			result := testValidator(server.URL).ValidateKey(context.Background(), ProviderGemini, "gem-test")
			if result.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", result.Valid, tt.wantValid)
			}
			if tt.wantValid {
				for _, m := range result.Models {
					if m.ID == "text-embedding-004" {
						t.Errorf("non-gemini model kept: %v", result.Models)
					}
				}
			}
		})
	}
}
