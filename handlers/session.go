// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/planify/auth"
	"github.com/danielhkuo/planify/cliparse"
	"github.com/danielhkuo/planify/middleware"
	"github.com/danielhkuo/planify/models"
)

// Session lifetime. Expired sessions are treated the same as missing ones.
const sessionTTL = 30 * 24 * time.Hour

var (
	errNoSession    = errors.New("no valid session")
	errUserNotFound = errors.New("user not found for session")
)

// currentUser resolves the X-Session-Token header to a user record.
// The session stores only an email (the identity provider's claim); the
// user row is looked up fresh on every request.
func currentUser(db *sql.DB, cfg cliparse.Config, r *http.Request) (models.User, error) {
	token := r.Header.Get("X-Session-Token")
	if token == "" {
		return models.User{}, errNoSession
	}

	tokenHash, err := auth.HashSessionToken(token, cfg.SessionTokenSalt)
	if err != nil {
		return models.User{}, errNoSession
	}

	var email string
	var expiresAt time.Time
	err = db.QueryRow(`
		SELECT email, expires_at FROM session WHERE token_hash = $1
	`, tokenHash).Scan(&email, &expiresAt)

	if err == sql.ErrNoRows {
		return models.User{}, errNoSession
	}
	if err != nil {
		return models.User{}, err
	}

	if time.Now().After(expiresAt) {
		return models.User{}, errNoSession
	}

	var user models.User
	err = db.QueryRow(`
		SELECT id, email, name, image_url, created_at
		FROM app_user
		WHERE email = $1
	`, email).Scan(&user.ID, &user.Email, &user.Name, &user.ImageURL, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return models.User{}, errUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

// requireUser resolves the caller or writes the appropriate error response.
// Returns false when the response has already been written.
func requireUser(db *sql.DB, cfg cliparse.Config, w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, err := currentUser(db, cfg, r)
	switch {
	case err == nil:
		return user, true
	case errors.Is(err, errNoSession):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Valid session required")
	case errors.Is(err, errUserNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
	default:
		slog.Error("failed to resolve session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
	}
	return models.User{}, false
}
