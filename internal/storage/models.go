package storage

import "time"

// Document lifecycle statuses. A document starts pending, moves to
// processing once ingestion begins, and terminates in ready or error.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusError      = "error"
)

// DocumentRecord represents an uploaded source file tracked through ingestion.
type DocumentRecord struct {
	ID        string
	Filename  string
	ObjectKey string // blob store key where the raw upload lives
	SizeBytes int64
	PageCount int
	Status    string
	Error     string // set only when Status == StatusError
	CreatedAt time.Time
}

// ChunkRecord is a contiguous, overlapping slice of a document page's text.
// ChunkIndex increases monotonically within a document and is the tie-break
// for ranking ties. The embedding may be nil when the embedding call failed
// or the row predates re-embedding; such chunks are skipped by retrieval.
type ChunkRecord struct {
	ID         string
	DocumentID string
	ChunkIndex int
	Page       int
	Content    string
	TokenCount int
	Embedding  []float32
}

// Topic is one syllabus topic within a theme.
type Topic struct {
	ID            string `json:"id"`
	ThemeNumber   int    `json:"theme_number"`
	ThemeName     string `json:"theme_name"`
	TopicNumber   int    `json:"topic_number"`
	TopicName     string `json:"topic_name"`
	TextbookPages string `json:"textbook_pages,omitempty"`
}

// Definition is a flashcard term/definition pair for a topic.
type Definition struct {
	ID         int64  `json:"id"`
	TopicID    string `json:"topic_id"`
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Question is an exam-style question belonging to a topic.
type Question struct {
	ID           string `json:"id"`
	TopicID      string `json:"topic_id"`
	QuestionText string `json:"question_text"`
	CommandWord  string `json:"command_word,omitempty"`
	Marks        int    `json:"marks"`
	MarkScheme   string `json:"mark_scheme,omitempty"`
	AIGenerated  bool   `json:"ai_generated"`
}

// TestYourselfItem is a short recall question from the study guide.
type TestYourselfItem struct {
	TopicID        string `json:"topic_id"`
	QuestionNumber int    `json:"number"`
	Question       string `json:"question"`
	Answer         string `json:"answer"`
}

// User is an application account. Passwords are stored and compared as
// plaintext.
type User struct {
	ID          int64
	Username    string
	Password    string
	DisplayName string
}

// AISettings holds a user's provider keys and model choices.
type AISettings struct {
	UserID          int64
	DefaultProvider string
	ClaudeAPIKey    string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	ClaudeModel     string
	GeminiModel     string
	OpenAIModel     string
	TTSAPIKey       string
}

// KeyFor returns the stored API key for a provider name, or "".
func (s AISettings) KeyFor(provider string) string {
	switch provider {
	case "claude":
		return s.ClaudeAPIKey
	case "gemini":
		return s.GeminiAPIKey
	case "openai":
		return s.OpenAIAPIKey
	}
	return ""
}

// ModelFor returns the stored model choice for a provider name, or "".
func (s AISettings) ModelFor(provider string) string {
	switch provider {
	case "claude":
		return s.ClaudeModel
	case "gemini":
		return s.GeminiModel
	case "openai":
		return s.OpenAIModel
	}
	return ""
}
