package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"geoguru/internal/contextutil"
	"geoguru/internal/storage"
)

// RevisionHandler serves the syllabus content: topics, flashcards, quiz
// questions, and recall questions.
type RevisionHandler struct {
	store storage.RevisionStore
}

// NewRevisionHandler creates a new RevisionHandler.
func NewRevisionHandler(store storage.RevisionStore) *RevisionHandler {
	return &RevisionHandler{store: store}
}

// Theme groups a theme's topics for the topic listing.
type Theme struct {
	ThemeNumber int          `json:"theme_number"`
	ThemeName   string       `json:"theme_name"`
	Topics      []ThemeTopic `json:"topics"`
}

type ThemeTopic struct {
	ID            string `json:"id"`
	TopicNumber   int    `json:"topic_number"`
	TopicName     string `json:"topic_name"`
	TextbookPages string `json:"textbook_pages,omitempty"`
}

// ListTopics returns all topics grouped by theme, in syllabus order.
func (h *RevisionHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	topics, err := h.store.ListTopics(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list topics", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to load topics")
		return
	}

	var themes []Theme
	for _, t := range topics {
		if len(themes) == 0 || themes[len(themes)-1].ThemeNumber != t.ThemeNumber {
			themes = append(themes, Theme{
				ThemeNumber: t.ThemeNumber,
				ThemeName:   t.ThemeName,
			})
		}
		last := &themes[len(themes)-1]
		last.Topics = append(last.Topics, ThemeTopic{
			ID:            t.ID,
			TopicNumber:   t.TopicNumber,
			TopicName:     t.TopicName,
			TextbookPages: t.TextbookPages,
		})
	}
	if themes == nil {
		themes = []Theme{}
	}

	writeJSON(w, r, http.StatusOK, themes)
}

// TopicDetail bundles a topic with its definitions and questions.
type TopicDetail struct {
	Topic       *storage.Topic      `json:"topic"`
	Definitions []storage.Definition `json:"definitions"`
	Questions   []storage.Question   `json:"questions"`
}

// GetTopic returns one topic with its definitions and questions.
func (h *RevisionHandler) GetTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	topicID := chi.URLParam(r, "id")

	topic, err := h.store.GetTopic(ctx, topicID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.ErrorContext(ctx, "failed to get topic", "topic_id", topicID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to load topic")
		return
	}

	definitions, err := h.store.DefinitionsByTopic(ctx, topicID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load definitions", "topic_id", topicID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to load topic")
		return
	}

	questions, err := h.store.QuestionsByTopic(ctx, topicID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load questions", "topic_id", topicID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to load topic")
		return
	}

	writeJSON(w, r, http.StatusOK, TopicDetail{
		Topic:       topic,
		Definitions: definitions,
		Questions:   questions,
	})
}

// Flashcards returns a topic's term/definition pairs.
func (h *RevisionHandler) Flashcards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	topicID := chi.URLParam(r, "id")

	definitions, err := h.store.DefinitionsByTopic(ctx, topicID)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to load flashcards", "topic_id", topicID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to load flashcards")
		return
	}
	if definitions == nil {
		definitions = []storage.Definition{}
	}
	writeJSON(w, r, http.StatusOK, definitions)
}

// Quiz returns a topic's exam questions.
func (h *RevisionHandler) Quiz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	topicID := chi.URLParam(r, "id")

	questions, err := h.store.QuestionsByTopic(ctx, topicID)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to load quiz", "topic_id", topicID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to load quiz")
		return
	}
	if questions == nil {
		questions = []storage.Question{}
	}
	writeJSON(w, r, http.StatusOK, questions)
}

// TestYourselfItem is a numbered short-answer prompt.
type TestYourselfItem struct {
	Number   int    `json:"number"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// TestYourself returns a topic's recall questions ordered by number.
func (h *RevisionHandler) TestYourself(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	topicID := chi.URLParam(r, "id")

	items, err := h.store.TestYourselfByTopic(ctx, topicID)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to load test-yourself", "topic_id", topicID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to load questions")
		return
	}

	formatted := make([]TestYourselfItem, 0, len(items))
	for _, item := range items {
		formatted = append(formatted, TestYourselfItem{
			Number:   item.QuestionNumber,
			Question: item.Question,
			Answer:   item.Answer,
		})
	}
	writeJSON(w, r, http.StatusOK, formatted)
}

// Progress returns a placeholder progress summary. Per-user tracking is not
// stored yet.
func Progress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"by_topic": []any{},
		"overall": map[string]int{
			"questions_attempted": 0,
			"questions_correct":   0,
			"accuracy":            0,
		},
		"weak_points_count": 0,
	})
}
