package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"geoguru/internal/contextutil"
	"geoguru/internal/session"
	"geoguru/internal/storage"
)

// AuthHandler handles login and logout.
type AuthHandler struct {
	users    storage.UserStore
	sessions session.Store
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users storage.UserStore, sessions session.Store) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
	}
}

// LoginRequest represents the login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the session token and the user's public fields.
type LoginResponse struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}

type LoginUser struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
}

// Login checks credentials and issues a session token. Passwords are compared
// as stored.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.ErrorContext(ctx, "failed to look up user", "error", err)
			writeError(w, r, http.StatusInternalServerError, "Login failed")
			return
		}
		writeError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if user.Password != req.Password {
		writeError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.sessions.Create(ctx, user.ID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create session", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Login failed")
		return
	}

	writeJSON(w, r, http.StatusOK, LoginResponse{
		Token: token,
		User: LoginUser{
			ID:          user.ID,
			Username:    user.Username,
			DisplayName: user.DisplayName,
		},
	})
}

// Logout invalidates the caller's token. Always succeeds even when the token
// is missing or unknown.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token != "" && token != r.Header.Get("Authorization") {
		if err := h.sessions.Delete(ctx, token); err != nil {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to delete session", "error", err)
		}
	}

	writeJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}
