package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"bookshelf/internal/auth"
	"bookshelf/internal/contextutil"
)

// AuthHandler handles login and logout.
type AuthHandler struct {
	auth *auth.Authenticator
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(a *auth.Authenticator) *AuthHandler {
	return &AuthHandler{auth: a}
}

// LoginRequest is the body of POST /api/auth.
//
// swagger:model LoginRequest
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse reports the login outcome. Token is also set as the session cookie.
//
// swagger:model LoginResponse
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Login checks the shared password and starts a session.
//
// swagger:route POST /api/auth auth login
//
// # Log in with the shared password
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  schema:
//	    "$ref": "#/definitions/LoginResponse"
//	'401':
//	  schema:
//	    "$ref": "#/definitions/LoginResponse"
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, claims, err := h.auth.Login(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			logger.WarnContext(ctx, "failed login attempt")
			writeJSON(ctx, w, http.StatusUnauthorized, LoginResponse{Success: false, Error: "Incorrect password"})
			return
		}
		logger.ErrorContext(ctx, "failed to issue session", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	h.auth.SetCookie(w, token)
	logger.InfoContext(ctx, "session started", "session_id", claims.SessionID)
	writeJSON(ctx, w, http.StatusOK, LoginResponse{Success: true, Token: token})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.ClearCookie(w)
	writeJSON(r.Context(), w, http.StatusOK, LoginResponse{Success: true})
}
