// Package rag assembles grounded answers: it builds a prompt from ranked
// chunks, delegates to a chat-completion collaborator, and formats source
// citations.
package rag

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"geoguru/internal/contextutil"
	"geoguru/internal/retrieval"
)

var (
	// ErrNoRelevantContent means retrieval produced nothing to ground an
	// answer on. The chat collaborator is never called in this case.
	ErrNoRelevantContent = errors.New("no relevant content found")

	// ErrEmptyGeneration means the chat collaborator returned an empty or
	// whitespace-only reply.
	ErrEmptyGeneration = errors.New("model returned an empty answer")
)

// ChatFunc is the single-call chat-completion collaborator.
type ChatFunc func(ctx context.Context, prompt string) (string, error)

// Source is a citation for one (document, page) pair backing the answer.
type Source struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Page       int    `json:"page"`
}

// Answer is a generated reply with its supporting citations. HTML holds the
// markdown reply rendered for the web client.
type Answer struct {
	Text    string   `json:"answer"`
	HTML    string   `json:"answer_html"`
	Sources []Source `json:"sources"`
}

// Assembler builds prompts from ranked chunks and renders replies.
type Assembler struct {
	markdown goldmark.Markdown
}

func NewAssembler() *Assembler {
	return &Assembler{
		markdown: goldmark.New(),
	}
}

// Answer builds a prompt from the ranked chunks, calls chat once, and returns
// the reply with deduplicated sources. filenames maps document IDs to display
// names for citation tags.
func (a *Assembler) Answer(
	ctx context.Context,
	question string,
	chunks []retrieval.ScoredChunk,
	filenames map[string]string,
	chat ChatFunc,
) (*Answer, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(chunks) == 0 {
		return nil, ErrNoRelevantContent
	}

	prompt := a.buildPrompt(question, chunks, filenames)

	reply, err := chat(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return nil, ErrEmptyGeneration
	}

	var buf bytes.Buffer
	if err := a.markdown.Convert([]byte(reply), &buf); err != nil {
		logger.WarnContext(ctx, "failed to render answer markdown", "error", err)
		buf.Reset()
	}

	return &Answer{
		Text:    reply,
		HTML:    buf.String(),
		Sources: collectSources(chunks, filenames),
	}, nil
}

// buildPrompt tags each chunk with its source page, and with the filename
// when the chunks span more than one document.
func (a *Assembler) buildPrompt(question string, chunks []retrieval.ScoredChunk, filenames map[string]string) string {
	multiDoc := false
	firstDoc := chunks[0].Chunk.DocumentID
	for _, sc := range chunks[1:] {
		if sc.Chunk.DocumentID != firstDoc {
			multiDoc = true
			break
		}
	}

	var b strings.Builder
	b.WriteString("You are a revision assistant. Answer the question using the study material below. ")
	b.WriteString("Answer primarily from this material and cite the page numbers you used. ")
	b.WriteString("If the material does not cover the question, say so.\n\nStudy material:\n")

	for _, sc := range chunks {
		if multiDoc {
			name := filenames[sc.Chunk.DocumentID]
			if name == "" {
				name = sc.Chunk.DocumentID
			}
			fmt.Fprintf(&b, "\n[%s, page %d]\n", name, sc.Chunk.Page)
		} else {
			fmt.Fprintf(&b, "\n[page %d]\n", sc.Chunk.Page)
		}
		b.WriteString(sc.Chunk.Content)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	return b.String()
}

// collectSources deduplicates citations per (document, page), preserving the
// chunks' ranked order.
func collectSources(chunks []retrieval.ScoredChunk, filenames map[string]string) []Source {
	type key struct {
		doc  string
		page int
	}
	seen := make(map[key]struct{}, len(chunks))
	sources := make([]Source, 0, len(chunks))

	for _, sc := range chunks {
		k := key{doc: sc.Chunk.DocumentID, page: sc.Chunk.Page}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		sources = append(sources, Source{
			DocumentID: sc.Chunk.DocumentID,
			Filename:   filenames[sc.Chunk.DocumentID],
			Page:       sc.Chunk.Page,
		})
	}
	return sources
}
