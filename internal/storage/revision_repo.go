package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// RevisionStore defines the interface for syllabus content reads plus
// persistence of AI-generated questions.
type RevisionStore interface {
	// ListTopics returns all topics ordered by theme then topic number.
	ListTopics(ctx context.Context) ([]Topic, error)
	// GetTopic gets a topic by ID. Returns ErrNotFound if not found.
	GetTopic(ctx context.Context, id string) (*Topic, error)
	// DefinitionsByTopic returns a topic's flashcard definitions.
	DefinitionsByTopic(ctx context.Context, topicID string) ([]Definition, error)
	// QuestionsByTopic returns a topic's exam questions.
	QuestionsByTopic(ctx context.Context, topicID string) ([]Question, error)
	// GetQuestion gets a question by ID. Returns ErrNotFound if not found.
	GetQuestion(ctx context.Context, id string) (*Question, error)
	// InsertQuestion persists a question (used for AI-generated ones).
	InsertQuestion(ctx context.Context, q *Question) error
	// TestYourselfByTopic returns a topic's recall questions ordered by number.
	TestYourselfByTopic(ctx context.Context, topicID string) ([]TestYourselfItem, error)
}

// RevisionRepo provides methods for revision content operations.
// It implements the RevisionStore interface.
type RevisionRepo struct {
	db *sql.DB
}

// NewRevisionRepo creates a new RevisionRepo.
func NewRevisionRepo(db *sql.DB) *RevisionRepo {
	return &RevisionRepo{db: db}
}

// ListTopics returns all topics ordered by theme then topic number.
func (r *RevisionRepo) ListTopics(ctx context.Context) ([]Topic, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, theme_number, theme_name, topic_number, topic_name, COALESCE(textbook_pages, '') FROM topics ORDER BY theme_number, topic_number",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query topics: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var topics []Topic
	for rows.Next() {
		var t Topic
		if err := rows.Scan(&t.ID, &t.ThemeNumber, &t.ThemeName, &t.TopicNumber, &t.TopicName, &t.TextbookPages); err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return topics, nil
}

// GetTopic gets a topic by ID. Returns ErrNotFound if not found.
func (r *RevisionRepo) GetTopic(ctx context.Context, id string) (*Topic, error) {
	var t Topic
	err := r.db.QueryRowContext(ctx,
		"SELECT id, theme_number, theme_name, topic_number, topic_name, COALESCE(textbook_pages, '') FROM topics WHERE id = ?",
		id,
	).Scan(&t.ID, &t.ThemeNumber, &t.ThemeName, &t.TopicNumber, &t.TopicName, &t.TextbookPages)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query topic: %w", err)
	}

	return &t, nil
}

// DefinitionsByTopic returns a topic's flashcard definitions.
func (r *RevisionRepo) DefinitionsByTopic(ctx context.Context, topicID string) ([]Definition, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, topic_id, term, definition FROM definitions WHERE topic_id = ? ORDER BY id",
		topicID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query definitions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var defs []Definition
	for rows.Next() {
		var d Definition
		if err := rows.Scan(&d.ID, &d.TopicID, &d.Term, &d.Definition); err != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}
		defs = append(defs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return defs, nil
}

// QuestionsByTopic returns a topic's exam questions.
func (r *RevisionRepo) QuestionsByTopic(ctx context.Context, topicID string) ([]Question, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, topic_id, question_text, COALESCE(command_word, ''), marks, COALESCE(mark_scheme, ''), ai_generated FROM questions WHERE topic_id = ? ORDER BY id",
		topicID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var questions []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.TopicID, &q.QuestionText, &q.CommandWord, &q.Marks, &q.MarkScheme, &q.AIGenerated); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return questions, nil
}

// GetQuestion gets a question by ID. Returns ErrNotFound if not found.
func (r *RevisionRepo) GetQuestion(ctx context.Context, id string) (*Question, error) {
	var q Question
	err := r.db.QueryRowContext(ctx,
		"SELECT id, topic_id, question_text, COALESCE(command_word, ''), marks, COALESCE(mark_scheme, ''), ai_generated FROM questions WHERE id = ?",
		id,
	).Scan(&q.ID, &q.TopicID, &q.QuestionText, &q.CommandWord, &q.Marks, &q.MarkScheme, &q.AIGenerated)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query question: %w", err)
	}

	return &q, nil
}

// InsertQuestion persists a question (used for AI-generated ones).
func (r *RevisionRepo) InsertQuestion(ctx context.Context, q *Question) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO questions (id, topic_id, question_text, command_word, marks, mark_scheme, ai_generated) VALUES (?, ?, ?, ?, ?, ?, ?)",
		q.ID, q.TopicID, q.QuestionText, q.CommandWord, q.Marks, q.MarkScheme, q.AIGenerated,
	)
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}
	return nil
}

// TestYourselfByTopic returns a topic's recall questions ordered by number.
func (r *RevisionRepo) TestYourselfByTopic(ctx context.Context, topicID string) ([]TestYourselfItem, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT topic_id, question_number, question, answer FROM test_yourself WHERE topic_id = ? ORDER BY question_number",
		topicID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query test yourself items: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var items []TestYourselfItem
	for rows.Next() {
		var item TestYourselfItem
		if err := rows.Scan(&item.TopicID, &item.QuestionNumber, &item.Question, &item.Answer); err != nil {
			return nil, fmt.Errorf("failed to scan test yourself item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}
