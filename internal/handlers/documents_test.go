package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"geoguru/internal/llm"
	"geoguru/internal/rag"
	"geoguru/internal/retrieval"
	"geoguru/internal/storage"
	storage_mocks "geoguru/internal/storage/mocks"
)

type fakeDocumentStore struct {
	docs []storage.DocumentRecord
}

func (f *fakeDocumentStore) Create(_ context.Context, _ *storage.DocumentRecord) error { return nil }

func (f *fakeDocumentStore) GetByID(_ context.Context, id string) (*storage.DocumentRecord, error) {
	for i := range f.docs {
		if f.docs[i].ID == id {
			return &f.docs[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeDocumentStore) List(_ context.Context) ([]storage.DocumentRecord, error) {
	return f.docs, nil
}

func (f *fakeDocumentStore) MarkProcessing(_ context.Context, _ string) error      { return nil }
func (f *fakeDocumentStore) MarkReady(_ context.Context, _ string, _ int) error    { return nil }
func (f *fakeDocumentStore) MarkError(_ context.Context, _ string, _ string) error { return nil }
func (f *fakeDocumentStore) Delete(_ context.Context, _ string) error              { return nil }

func askHandler(
	docs *fakeDocumentStore,
	settings *fakeSettingsStore,
	engine *fakeRetriever,
	answerer *fakeAnswerer,
	embedder *fakeEmbedder,
) *DocumentsHandler {
	h := NewDocumentsHandler(docs, nil, settings, &fakeBlobStore{}, nil, engine, answerer, embedder, nil, 5)
	h.newProvider = func(_, _ string) (llm.Provider, error) {
		return &fakeProvider{reply: "stubbed"}, nil
	}
	return h
}

func configuredSettings() *fakeSettingsStore {
	return &fakeSettingsStore{settings: &storage.AISettings{
		UserID:          1,
		DefaultProvider: "claude",
		ClaudeAPIKey:    "sk-ant-test",
	}}
}

func TestDocumentsHandler_Ask(t *testing.T) {
	docs := &fakeDocumentStore{docs: []storage.DocumentRecord{
		{ID: "doc-1", Filename: "coasts.pdf", Status: storage.StatusReady},
	}}
	engine := &fakeRetriever{chunks: []retrieval.ScoredChunk{
		{Chunk: storage.ChunkRecord{ID: "chunk-1", DocumentID: "doc-1", Page: 3, Content: "erosion"}},
	}}
	answerer := &fakeAnswerer{answer: &rag.Answer{
		Text:    "Erosion wears the coast. [page 3]",
		Sources: []rag.Source{{DocumentID: "doc-1", Filename: "coasts.pdf", Page: 3}},
	}}
	embedder := &fakeEmbedder{vector: []float32{1, 0}}

	handler := askHandler(docs, configuredSettings(), engine, answerer, embedder)

	body := `{"question": "What is erosion?", "document_ids": ["doc-1"]}`
	rec := httptest.NewRecorder()
	handler.Ask(rec, httptest.NewRequest(http.MethodPost, "/api/documents/ask", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if engine.query.Text != "What is erosion?" {
		t.Errorf("retrieval query text = %q", engine.query.Text)
	}
	if len(engine.query.DocumentIDs) != 1 || engine.query.DocumentIDs[0] != "doc-1" {
		t.Errorf("retrieval scope = %v, want [doc-1]", engine.query.DocumentIDs)
	}
	if engine.query.TopK != 5 {
		t.Errorf("retrieval top-K = %d, want 5", engine.query.TopK)
	}

	var answer rag.Answer
	if err := json.NewDecoder(rec.Body).Decode(&answer); err != nil {
		t.Fatalf("decode response error = %v", err)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].Page != 3 {
		t.Errorf("sources = %v, want page 3 of doc-1", answer.Sources)
	}
}

func TestDocumentsHandler_Ask_MissingQuestion(t *testing.T) {
	handler := askHandler(&fakeDocumentStore{}, configuredSettings(), &fakeRetriever{}, &fakeAnswerer{}, &fakeEmbedder{})

	rec := httptest.NewRecorder()
	handler.Ask(rec, httptest.NewRequest(http.MethodPost, "/api/documents/ask", strings.NewReader(`{"question": "  "}`)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestDocumentsHandler_Ask_EmbeddingFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("embedding service down")}
	handler := askHandler(&fakeDocumentStore{}, configuredSettings(), &fakeRetriever{}, &fakeAnswerer{}, embedder)

	rec := httptest.NewRecorder()
	handler.Ask(rec, httptest.NewRequest(http.MethodPost, "/api/documents/ask", strings.NewReader(`{"question": "What is erosion?"}`)))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}

func TestDocumentsHandler_Ask_NoRelevantContent(t *testing.T) {
	answerer := &fakeAnswerer{err: rag.ErrNoRelevantContent}
	handler := askHandler(&fakeDocumentStore{}, configuredSettings(), &fakeRetriever{}, answerer, &fakeEmbedder{vector: []float32{1}})

	rec := httptest.NewRecorder()
	handler.Ask(rec, httptest.NewRequest(http.MethodPost, "/api/documents/ask", strings.NewReader(`{"question": "What is erosion?"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var answer rag.Answer
	if err := json.NewDecoder(rec.Body).Decode(&answer); err != nil {
		t.Fatalf("decode response error = %v", err)
	}
	if !strings.Contains(answer.Text, "couldn't find anything relevant") {
		t.Errorf("answer = %q, want the honest no-content reply", answer.Text)
	}
	if len(answer.Sources) != 0 {
		t.Errorf("sources = %v, want empty", answer.Sources)
	}
}

func TestDocumentsHandler_Ask_EmptyGeneration(t *testing.T) {
	answerer := &fakeAnswerer{err: rag.ErrEmptyGeneration}
	handler := askHandler(&fakeDocumentStore{}, configuredSettings(), &fakeRetriever{}, answerer, &fakeEmbedder{vector: []float32{1}})

	rec := httptest.NewRecorder()
	handler.Ask(rec, httptest.NewRequest(http.MethodPost, "/api/documents/ask", strings.NewReader(`{"question": "What is erosion?"}`)))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}

func TestDocumentsHandler_Ask_NoSettings(t *testing.T) {
	handler := askHandler(&fakeDocumentStore{}, &fakeSettingsStore{}, &fakeRetriever{}, &fakeAnswerer{}, &fakeEmbedder{vector: []float32{1}})

	rec := httptest.NewRecorder()
	handler.Ask(rec, httptest.NewRequest(http.MethodPost, "/api/documents/ask", strings.NewReader(`{"question": "What is erosion?"}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "configure AI settings") {
		t.Errorf("body = %s, want settings prompt", rec.Body.String())
	}
}

func TestDocumentsHandler_Ask_MissingProviderKey(t *testing.T) {
	settings := &fakeSettingsStore{settings: &storage.AISettings{
		UserID:          1,
		DefaultProvider: "gemini",
	}}
	handler := askHandler(&fakeDocumentStore{}, settings, &fakeRetriever{}, &fakeAnswerer{}, &fakeEmbedder{vector: []float32{1}})

	rec := httptest.NewRecorder()
	handler.Ask(rec, httptest.NewRequest(http.MethodPost, "/api/documents/ask", strings.NewReader(`{"question": "What is erosion?"}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "Gemini API key") {
		t.Errorf("body = %s, want Gemini key prompt", rec.Body.String())
	}
}

func TestDocumentsHandler_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	chunks := storage_mocks.NewMockChunkStore(ctrl)
	chunks.EXPECT().DeleteByDocument(gomock.Any(), "doc-1").Return(nil)

	docs := &fakeDocumentStore{docs: []storage.DocumentRecord{
		{ID: "doc-1", Filename: "coasts.pdf", ObjectKey: "doc-1", Status: storage.StatusReady},
	}}
	blobs := &fakeBlobStore{}
	handler := NewDocumentsHandler(docs, chunks, configuredSettings(), blobs, nil, nil, nil, nil, nil, 5)

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/documents/doc-1", nil), "id", "doc-1")
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(blobs.removed) != 1 || blobs.removed[0] != "doc-1" {
		t.Errorf("blobs removed = %v, want [doc-1]", blobs.removed)
	}
}

func TestDocumentsHandler_Delete_NotFound(t *testing.T) {
	handler := NewDocumentsHandler(&fakeDocumentStore{}, nil, configuredSettings(), &fakeBlobStore{}, nil, nil, nil, nil, nil, 5)

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/documents/missing", nil), "id", "missing")
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestDocumentsHandler_List(t *testing.T) {
	docs := &fakeDocumentStore{docs: []storage.DocumentRecord{
		{ID: "doc-1", Filename: "coasts.pdf", Status: storage.StatusReady, PageCount: 12},
		{ID: "doc-2", Filename: "rivers.pdf", Status: storage.StatusProcessing},
	}}
	handler := askHandler(docs, configuredSettings(), &fakeRetriever{}, &fakeAnswerer{}, &fakeEmbedder{})

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var views []DocumentView
	if err := json.NewDecoder(rec.Body).Decode(&views); err != nil {
		t.Fatalf("decode response error = %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("returned %d documents, want 2", len(views))
	}
	if views[0].Filename != "coasts.pdf" || views[0].PageCount != 12 {
		t.Errorf("first document = %+v", views[0])
	}
}
