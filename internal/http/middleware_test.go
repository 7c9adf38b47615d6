package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"geoguru/internal/contextutil"
	"geoguru/internal/session"
)

type fakeSessionStore struct {
	tokens map[string]int64
	err    error
}

func (f *fakeSessionStore) Create(_ context.Context, _ int64) (string, error) {
	return "", nil
}

func (f *fakeSessionStore) Lookup(_ context.Context, token string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	userID, ok := f.tokens[token]
	if !ok {
		return 0, session.ErrNoSession
	}
	return userID, nil
}

func (f *fakeSessionStore) Delete(_ context.Context, _ string) error {
	return nil
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("preflight request reached the inner handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/topics", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow-origin = %q, want the request origin", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("allow-methods header not set")
	}
}

func TestCORS_NoOrigin(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/topics", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow-origin = %q, want *", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireAuth(t *testing.T) {
	store := &fakeSessionStore{tokens: map[string]int64{"good-token": 42}}

	var gotUserID int64
	var gotOK bool
	handler := RequireAuth(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, gotOK = contextutil.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid token", "Bearer good-token", http.StatusOK},
		{"unknown token", "Bearer bad-token", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
		{"not a bearer token", "Basic abc123", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUserID, gotOK = 0, false

			req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if !gotOK || gotUserID != 42 {
					t.Errorf("context user ID = %d (ok=%v), want 42", gotUserID, gotOK)
				}
			} else if rec.Body.String() != `{"error":"Not authenticated"}` {
				t.Errorf("body = %s, want auth error JSON", rec.Body.String())
			}
		})
	}
}

func TestLoggerMiddleware_InjectsLogger(t *testing.T) {
	handler := LoggerMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Context().Value(contextutil.LoggerKey()) == nil {
			t.Error("request context has no logger")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/topics", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
}
