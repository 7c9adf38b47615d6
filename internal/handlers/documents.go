package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"geoguru/internal/contextutil"
	"geoguru/internal/extract"
	"geoguru/internal/ingest"
	"geoguru/internal/llm"
	"geoguru/internal/rag"
	"geoguru/internal/retrieval"
	"geoguru/internal/storage"
	"geoguru/internal/vectorindex"
)

// maxUploadBytes bounds PDF uploads.
const maxUploadBytes = 32 << 20

// Retriever ranks stored chunks against a query.
type Retriever interface {
	Retrieve(ctx context.Context, query retrieval.Query) ([]retrieval.ScoredChunk, error)
}

// Ingestor runs the ingestion pipeline for one document.
type Ingestor interface {
	Process(ctx context.Context, documentID string, pages []ingest.PageText) error
}

// Answerer assembles a grounded answer from ranked chunks.
type Answerer interface {
	Answer(ctx context.Context, question string, chunks []retrieval.ScoredChunk, filenames map[string]string, chat rag.ChatFunc) (*rag.Answer, error)
}

// BlobStore stores raw uploads.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
}

// DocumentsHandler manages uploaded study documents and questions over them.
type DocumentsHandler struct {
	documents storage.DocumentStore
	chunks    storage.ChunkStore
	settings  storage.SettingsStore
	blobs     BlobStore
	pipeline  Ingestor
	engine    Retriever
	assembler Answerer
	embedder  ingest.Embedder
	index     vectorindex.Index // nil when no vector index is configured
	topK      int

	newProvider func(name, apiKey string) (llm.Provider, error)
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(
	documents storage.DocumentStore,
	chunks storage.ChunkStore,
	settings storage.SettingsStore,
	blobs BlobStore,
	pipeline Ingestor,
	engine Retriever,
	assembler Answerer,
	embedder ingest.Embedder,
	index vectorindex.Index,
	topK int,
) *DocumentsHandler {
	return &DocumentsHandler{
		documents:   documents,
		chunks:      chunks,
		settings:    settings,
		blobs:       blobs,
		pipeline:    pipeline,
		engine:      engine,
		assembler:   assembler,
		embedder:    embedder,
		index:       index,
		topK:        topK,
		newProvider: llm.NewProvider,
	}
}

// DocumentView is the document payload returned to clients.
type DocumentView struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"size_bytes"`
	PageCount int       `json:"page_count"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func documentView(doc *storage.DocumentRecord) DocumentView {
	return DocumentView{
		ID:        doc.ID,
		Filename:  doc.Filename,
		SizeBytes: doc.SizeBytes,
		PageCount: doc.PageCount,
		Status:    doc.Status,
		Error:     doc.Error,
		CreatedAt: doc.CreatedAt,
	}
}

// Upload accepts a multipart PDF, stores the raw bytes, extracts page text,
// and runs ingestion synchronously. The response carries the document in its
// final state (ready or error).
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Missing file")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		writeError(w, r, http.StatusBadRequest, "Only PDF files are supported")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Failed to read upload")
		return
	}

	doc := &storage.DocumentRecord{
		ID:        uuid.New().String(),
		Filename:  header.Filename,
		SizeBytes: int64(len(data)),
	}
	doc.ObjectKey = doc.ID

	if err := h.documents.Create(ctx, doc); err != nil {
		logger.ErrorContext(ctx, "failed to create document", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to create document")
		return
	}

	if err := h.blobs.Put(ctx, doc.ObjectKey, bytes.NewReader(data), doc.SizeBytes, "application/pdf"); err != nil {
		logger.ErrorContext(ctx, "failed to store upload", "document_id", doc.ID, "error", err)
		h.failDocument(ctx, doc.ID, fmt.Sprintf("failed to store upload: %v", err))
		writeError(w, r, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	pageTexts, err := extract.Pages(ctx, bytes.NewReader(data), doc.SizeBytes)
	if err != nil {
		logger.ErrorContext(ctx, "failed to extract PDF text", "document_id", doc.ID, "error", err)
		h.failDocument(ctx, doc.ID, fmt.Sprintf("failed to extract text: %v", err))
		writeError(w, r, http.StatusInternalServerError, "Failed to extract text from PDF")
		return
	}

	pages := make([]ingest.PageText, 0, len(pageTexts))
	for i, text := range pageTexts {
		pages = append(pages, ingest.PageText{Number: i + 1, Text: text})
	}

	if err := h.pipeline.Process(ctx, doc.ID, pages); err != nil {
		logger.ErrorContext(ctx, "ingestion failed", "document_id", doc.ID, "error", err)
	}

	final, err := h.documents.GetByID(ctx, doc.ID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to reload document", "document_id", doc.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to load document")
		return
	}

	writeJSON(w, r, http.StatusCreated, documentView(final))
}

// failDocument records a pre-ingestion failure on the document row. The
// status guard requires passing through processing to reach error.
func (h *DocumentsHandler) failDocument(ctx context.Context, documentID, message string) {
	logger := contextutil.LoggerFromContext(ctx)
	if err := h.documents.MarkProcessing(ctx, documentID); err != nil {
		logger.ErrorContext(ctx, "failed to mark document processing", "document_id", documentID, "error", err)
		return
	}
	if err := h.documents.MarkError(ctx, documentID, message); err != nil {
		logger.ErrorContext(ctx, "failed to mark document error", "document_id", documentID, "error", err)
	}
}

// List returns all documents, newest first.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docs, err := h.documents.List(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list documents", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	views := make([]DocumentView, 0, len(docs))
	for i := range docs {
		views = append(views, documentView(&docs[i]))
	}
	writeJSON(w, r, http.StatusOK, views)
}

// Delete removes a document and everything derived from it: vector index
// points, chunk rows, the stored blob, and finally the record itself.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	documentID := chi.URLParam(r, "id")

	doc, err := h.documents.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Document not found")
			return
		}
		logger.ErrorContext(ctx, "failed to load document", "document_id", documentID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to load document")
		return
	}

	if h.index != nil {
		ids, err := h.chunks.ListIDsByDocument(ctx, documentID)
		if err != nil {
			logger.ErrorContext(ctx, "failed to list chunk IDs", "document_id", documentID, "error", err)
			writeError(w, r, http.StatusInternalServerError, "Failed to delete document")
			return
		}
		if len(ids) > 0 {
			if err := h.index.Delete(ctx, ids); err != nil {
				// Orphaned points are harmless: retrieval only ever scores
				// IDs fetched from the chunk rows being deleted below.
				logger.WarnContext(ctx, "failed to delete index points", "document_id", documentID, "error", err)
			}
		}
	}

	if err := h.chunks.DeleteByDocument(ctx, documentID); err != nil {
		logger.ErrorContext(ctx, "failed to delete chunks", "document_id", documentID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to delete document")
		return
	}

	if err := h.blobs.Remove(ctx, doc.ObjectKey); err != nil {
		logger.WarnContext(ctx, "failed to remove stored upload", "document_id", documentID, "error", err)
	}

	if err := h.documents.Delete(ctx, documentID); err != nil {
		logger.ErrorContext(ctx, "failed to delete document", "document_id", documentID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to delete document")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

// AskRequest is a question over the uploaded documents.
type AskRequest struct {
	Question    string   `json:"question"`
	DocumentIDs []string `json:"document_ids"`
}

// Ask embeds the question, retrieves the best chunks, and assembles a cited
// answer through the user's configured provider. When retrieval finds nothing
// relevant, the response says so honestly instead of asking the model to
// invent an answer.
func (h *DocumentsHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, r, http.StatusBadRequest, "Missing question")
		return
	}

	embedding, err := h.embedder.Embed(ctx, req.Question)
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed question", "error", err)
		writeError(w, r, http.StatusBadGateway, "Failed to process question")
		return
	}

	chunks, err := h.engine.Retrieve(ctx, retrieval.Query{
		Text:        req.Question,
		Embedding:   embedding,
		DocumentIDs: req.DocumentIDs,
		TopK:        h.topK,
	})
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Retrieval failed")
		return
	}

	filenames, err := h.documentNames(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load document names", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to load documents")
		return
	}

	chat, status, msg := h.chatFunc(r)
	if chat == nil {
		writeError(w, r, status, msg)
		return
	}

	answer, err := h.assembler.Answer(ctx, req.Question, chunks, filenames, chat)
	if err != nil {
		switch {
		case errors.Is(err, rag.ErrNoRelevantContent):
			writeJSON(w, r, http.StatusOK, rag.Answer{
				Text:    "I couldn't find anything relevant to that question in your uploaded documents.",
				Sources: []rag.Source{},
			})
		case errors.Is(err, rag.ErrEmptyGeneration):
			writeError(w, r, http.StatusBadGateway, "The model returned an empty answer")
		default:
			logger.ErrorContext(ctx, "answer assembly failed", "error", err)
			writeError(w, r, http.StatusInternalServerError, "Failed to generate answer")
		}
		return
	}

	writeJSON(w, r, http.StatusOK, answer)
}

func (h *DocumentsHandler) documentNames(ctx context.Context) (map[string]string, error) {
	docs, err := h.documents.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(docs))
	for _, doc := range docs {
		names[doc.ID] = doc.Filename
	}
	return names, nil
}

// chatFunc builds the chat collaborator from the caller's AI settings. The
// returned message is user-facing when the func is nil.
func (h *DocumentsHandler) chatFunc(r *http.Request) (rag.ChatFunc, int, string) {
	ctx := r.Context()
	userID, _ := contextutil.UserIDFromContext(ctx)

	settings, err := h.settings.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, http.StatusBadRequest, "Please configure AI settings first"
		}
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to load settings", "error", err)
		return nil, http.StatusInternalServerError, "Failed to load settings"
	}

	providerName := settings.DefaultProvider
	if providerName == "" {
		providerName = llm.ProviderClaude
	}

	apiKey := settings.KeyFor(providerName)
	if apiKey == "" {
		return nil, http.StatusBadRequest,
			fmt.Sprintf("Please add your %s API key in Settings", capitalize(providerName))
	}

	provider, err := h.newProvider(providerName, apiKey)
	if err != nil {
		return nil, http.StatusBadRequest, err.Error()
	}

	model := settings.ModelFor(providerName)
	return func(ctx context.Context, prompt string) (string, error) {
		return provider.Complete(ctx, prompt, model, 0)
	}, 0, ""
}
