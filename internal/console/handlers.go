package console

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/moosedb/moose/internal/tokenstore"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the successful reply of POST /auth/login.
type LoginResponse struct {
	Token   string `json:"token"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// VersionResponse is the reply of the get-version endpoints.
type VersionResponse struct {
	Success bool   `json:"success"`
	Version string `json:"version"`
}

// SessionResponse describes the session behind a bearer token.
type SessionResponse struct {
	Success   bool   `json:"success"`
	Email     string `json:"email"`
	ExpiresAt int64  `json:"expires_at"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, map[string]string{"name": "MooseDB", "version": s.cfg.Version}, http.StatusOK)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSONError(ctx, w, "Invalid login request.", http.StatusBadRequest)
		return
	}

	// The hash is compared even for unknown emails so both failures take equally long.
	hashErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(req.Password))
	if !strings.EqualFold(strings.TrimSpace(req.Email), s.cfg.AdminEmail) || hashErr != nil {
		slog.InfoContext(ctx, "login rejected")
		writeJSONError(ctx, w, "Email or Password does not match.", http.StatusUnauthorized)
		return
	}

	token, err := s.tokens.issue(s.cfg.AdminEmail)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create token", "error", err)
		writeJSONError(ctx, w, "Failed to create token", http.StatusInternalServerError)
		return
	}

	if err := tokenstore.FromRequest(w, r).SetToken(ctx, token); err != nil {
		slog.ErrorContext(ctx, "failed to set session cookie", "error", err)
	}

	writeJSON(ctx, w, LoginResponse{Token: token, Success: true, Message: "Login successful"}, http.StatusOK)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := tokenstore.FromRequest(w, r).RemoveToken(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to clear session cookie", "error", err)
	}

	writeJSON(ctx, w, MessageResponse{Success: true, Message: "Logged out"}, http.StatusOK)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, VersionResponse{Success: true, Version: s.cfg.Version}, http.StatusOK)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	c, ok := claimsFromContext(r.Context())
	if !ok {
		writeJSONError(r.Context(), w, "Invalid token", http.StatusUnauthorized)
		return
	}

	resp := SessionResponse{Success: true, Email: c.Email}
	if c.ExpiresAt != nil {
		resp.ExpiresAt = c.ExpiresAt.Unix()
	}
	writeJSON(r.Context(), w, resp, http.StatusOK)
}
