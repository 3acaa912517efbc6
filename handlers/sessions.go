// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/planify/auth"
	"github.com/danielhkuo/planify/cliparse"
	"github.com/danielhkuo/planify/middleware"
	"github.com/danielhkuo/planify/models"
)

type SessionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewSessionHandler(db *sql.DB, cfg cliparse.Config) *SessionHandler {
	return &SessionHandler{db: db, cfg: cfg}
}

// Login handles POST /auth/login
// Stands in for the external identity provider: exchanges an email for a
// session token. The raw token is returned once; only its hash is stored.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email is required")
		return
	}

	var exists bool
	err := h.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM app_user WHERE email = $1)
	`, req.Email).Scan(&exists)
	if err != nil {
		slog.Error("failed to check email", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		slog.Error("failed to generate session token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	tokenHash, err := auth.HashSessionToken(token, h.cfg.SessionTokenSalt)
	if err != nil {
		slog.Error("failed to hash session token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	now := time.Now()
	expiresAt := now.Add(sessionTTL)

	_, err = h.db.Exec(`
		INSERT INTO session (token_hash, email, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`, tokenHash, req.Email, now, expiresAt)

	if err != nil {
		slog.Error("failed to insert session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	slog.Info("session created", "email", req.Email)

	middleware.JSONResponse(w, http.StatusCreated, models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// Logout handles POST /auth/logout
// Deleting an unknown token is not an error.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Session-Token")
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Session-Token header required")
		return
	}

	tokenHash, err := auth.HashSessionToken(token, h.cfg.SessionTokenSalt)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid session token")
		return
	}

	_, err = h.db.Exec(`DELETE FROM session WHERE token_hash = $1`, tokenHash)
	if err != nil {
		slog.Error("failed to delete session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log out")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"ok": true})
}
