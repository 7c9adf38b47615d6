package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"geoguru/internal/llm"
	"geoguru/internal/rag"
	"geoguru/internal/retrieval"
	"geoguru/internal/session"
	"geoguru/internal/storage"
)

type fakeUserStore struct {
	users map[string]*storage.User
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (*storage.User, error) {
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*storage.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, storage.ErrNotFound
}

type fakeSessions struct {
	created []int64
	deleted []string
}

func (f *fakeSessions) Create(_ context.Context, userID int64) (string, error) {
	f.created = append(f.created, userID)
	return "token-abc", nil
}

func (f *fakeSessions) Lookup(_ context.Context, _ string) (int64, error) {
	return 0, session.ErrNoSession
}

func (f *fakeSessions) Delete(_ context.Context, token string) error {
	f.deleted = append(f.deleted, token)
	return nil
}

type savedKey struct {
	userID   int64
	provider string
	key      string
}

type fakeSettingsStore struct {
	settings *storage.AISettings
	getErr   error
	saved    []savedKey
}

func (f *fakeSettingsStore) Get(_ context.Context, _ int64) (*storage.AISettings, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.settings == nil {
		return nil, storage.ErrNotFound
	}
	return f.settings, nil
}

func (f *fakeSettingsStore) SaveKey(_ context.Context, userID int64, provider, key string) error {
	f.saved = append(f.saved, savedKey{userID: userID, provider: provider, key: key})
	return nil
}

func (f *fakeSettingsStore) Update(_ context.Context, _ int64, _ storage.SettingsUpdate) error {
	return nil
}

type fakeValidator struct {
	result       llm.KeyValidation
	lastProvider string
	lastKey      string
}

func (f *fakeValidator) ValidateKey(_ context.Context, provider, apiKey string) llm.KeyValidation {
	f.lastProvider = provider
	f.lastKey = apiKey
	return f.result
}

type fakeRetriever struct {
	chunks []retrieval.ScoredChunk
	err    error
	query  retrieval.Query
}

func (f *fakeRetriever) Retrieve(_ context.Context, query retrieval.Query) ([]retrieval.ScoredChunk, error) {
	f.query = query
	return f.chunks, f.err
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vector, f.err
}

type fakeAnswerer struct {
	answer *rag.Answer
	err    error
}

func (f *fakeAnswerer) Answer(_ context.Context, _ string, _ []retrieval.ScoredChunk, _ map[string]string, _ rag.ChatFunc) (*rag.Answer, error) {
	return f.answer, f.err
}

type fakeBlobStore struct {
	put     []string
	removed []string
}

func (f *fakeBlobStore) Put(_ context.Context, key string, _ io.Reader, _ int64, _ string) error {
	f.put = append(f.put, key)
	return nil
}

func (f *fakeBlobStore) Remove(_ context.Context, key string) error {
	f.removed = append(f.removed, key)
	return nil
}

type fakeProvider struct {
	reply string
	err   error
}

func (f *fakeProvider) Complete(_ context.Context, _, _ string, _ int) (string, error) {
	return f.reply, f.err
}

// withURLParam attaches a chi route parameter to a test request.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
