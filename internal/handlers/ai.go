package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"geoguru/internal/contextutil"
	"geoguru/internal/llm"
	"geoguru/internal/storage"
)

// jsonArrayPattern pulls the first JSON array out of a model reply, which
// often surrounds it with prose or code fences.
var jsonArrayPattern = regexp.MustCompile(`\[[\s\S]*\]`)

// AIHandler serves settings-driven provider calls: free-form chat and
// exam-question generation.
type AIHandler struct {
	settings  storage.SettingsStore
	revision  storage.RevisionStore
	// newProvider is a factory hook so tests can substitute a fake provider.
	newProvider func(name, apiKey string) (llm.Provider, error)
}

// NewAIHandler creates a new AIHandler.
func NewAIHandler(settings storage.SettingsStore, revision storage.RevisionStore) *AIHandler {
	return &AIHandler{
		settings:    settings,
		revision:    revision,
		newProvider: llm.NewProvider,
	}
}

// resolveProvider loads the caller's settings and builds the configured
// provider client. The returned message is user-facing when err is non-nil.
func (h *AIHandler) resolveProvider(r *http.Request) (llm.Provider, string, int, string) {
	ctx := r.Context()
	userID, _ := contextutil.UserIDFromContext(ctx)

	settings, err := h.settings.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", http.StatusBadRequest, "Please configure AI settings first"
		}
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to load settings", "error", err)
		return nil, "", http.StatusInternalServerError, "Failed to load settings"
	}

	providerName := settings.DefaultProvider
	if providerName == "" {
		providerName = llm.ProviderClaude
	}

	apiKey := settings.KeyFor(providerName)
	if apiKey == "" {
		return nil, "", http.StatusBadRequest,
			fmt.Sprintf("Please add your %s API key in Settings", capitalize(providerName))
	}

	provider, err := h.newProvider(providerName, apiKey)
	if err != nil {
		return nil, "", http.StatusBadRequest, err.Error()
	}

	return provider, settings.ModelFor(providerName), 0, ""
}

// ChatRequest represents the free-form chat payload.
type ChatRequest struct {
	Message string `json:"message"`
}

// Chat relays a single message to the user's configured provider.
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, r, http.StatusBadRequest, "Missing message")
		return
	}

	provider, model, status, msg := h.resolveProvider(r)
	if provider == nil {
		writeError(w, r, status, msg)
		return
	}

	reply, err := provider.Complete(ctx, req.Message, model, 0)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "chat completion failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"response": reply})
}

// GenerateRequest asks for variations of an existing exam question.
type GenerateRequest struct {
	QuestionID   string `json:"question_id"`
	NumQuestions int    `json:"num_questions"`
}

// GeneratedQuestion is one question parsed from the model's JSON array.
type GeneratedQuestion struct {
	QuestionText string `json:"question_text"`
	CommandWord  string `json:"command_word"`
	Marks        int    `json:"marks"`
	MarkScheme   string `json:"mark_scheme"`
}

// GenerateQuestions asks the provider for similar exam questions and persists
// the ones it returns.
func (h *AIHandler) GenerateQuestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.QuestionID == "" {
		writeError(w, r, http.StatusBadRequest, "Missing question_id")
		return
	}
	if req.NumQuestions <= 0 {
		req.NumQuestions = 3
	}

	original, err := h.revision.GetQuestion(ctx, req.QuestionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Question not found")
			return
		}
		logger.ErrorContext(ctx, "failed to load question", "question_id", req.QuestionID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to load question")
		return
	}

	provider, model, status, msg := h.resolveProvider(r)
	if provider == nil {
		writeError(w, r, status, msg)
		return
	}

	prompt := buildGeneratePrompt(original, req.NumQuestions)

	reply, err := provider.Complete(ctx, prompt, model, 0)
	if err != nil {
		logger.ErrorContext(ctx, "question generation failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	match := jsonArrayPattern.FindString(reply)
	if match == "" {
		writeError(w, r, http.StatusInternalServerError, "Could not parse AI response")
		return
	}

	var generated []GeneratedQuestion
	if err := json.Unmarshal([]byte(match), &generated); err != nil {
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("Invalid JSON from AI: %v", err))
		return
	}

	saved := make([]storage.Question, 0, len(generated))
	for _, g := range generated {
		q := &storage.Question{
			TopicID:      original.TopicID,
			QuestionText: g.QuestionText,
			CommandWord:  g.CommandWord,
			Marks:        g.Marks,
			MarkScheme:   g.MarkScheme,
			AIGenerated:  true,
		}
		if err := h.revision.InsertQuestion(ctx, q); err != nil {
			logger.WarnContext(ctx, "failed to save generated question", "error", err)
			continue
		}
		saved = append(saved, *q)
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"questions": saved,
		"generated": len(saved),
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func buildGeneratePrompt(original *storage.Question, numQuestions int) string {
	commandWord := original.CommandWord
	if commandWord == "" {
		commandWord = "describe"
	}
	marks := original.Marks
	if marks == 0 {
		marks = 2
	}

	return fmt.Sprintf(`Generate %d similar IGCSE Geography exam questions based on this question:

Original Question: %s
Command Word: %s
Marks: %d
Topic: %s

Requirements:
1. Use the same command word (%s)
2. Target the same mark allocation (%d marks)
3. Test similar concepts but with different scenarios/examples
4. Follow IGCSE Geography exam style

Return ONLY a JSON array with this format:
[
  {"question_text": "...", "command_word": "%s", "marks": %d, "mark_scheme": "..."}
]`,
		numQuestions,
		original.QuestionText,
		commandWord,
		marks,
		original.TopicID,
		commandWord,
		marks,
		commandWord,
		marks,
	)
}
