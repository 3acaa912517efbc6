// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/planify/cliparse"
	"github.com/danielhkuo/planify/middleware"
	"github.com/danielhkuo/planify/models"
)

type UserHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewUserHandler(db *sql.DB, cfg cliparse.Config) *UserHandler {
	return &UserHandler{db: db, cfg: cfg}
}

// Register handles POST /users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		middleware.ErrorResponse(w, http.StatusBadRequest, "valid email is required")
		return
	}
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Name) > 100 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name must be at most 100 characters")
		return
	}

	// Reject duplicate emails up front for a clean 409
	var exists bool
	err := h.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM app_user WHERE email = $1)
	`, req.Email).Scan(&exists)
	if err != nil {
		slog.Error("failed to check email", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if exists {
		middleware.ErrorResponse(w, http.StatusConflict, "Email already registered")
		return
	}

	user := models.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		Name:      req.Name,
		CreatedAt: time.Now(),
	}

	_, err = h.db.Exec(`
		INSERT INTO app_user (id, email, name, created_at)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Email, user.Name, user.CreatedAt)

	if err != nil {
		slog.Error("failed to insert user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	slog.Info("user registered", "user_id", user.ID)

	middleware.JSONResponse(w, http.StatusCreated, user)
}

// GetMe handles GET /users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	middleware.JSONResponse(w, http.StatusOK, user)
}

// UpdateMe handles PATCH /users/me
// Updates display name and/or profile image URL.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == nil && req.ImageURL == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "nothing to update")
		return
	}

	if req.Name != nil {
		if *req.Name == "" || len(*req.Name) > 100 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "name must be 1-100 characters")
			return
		}
		user.Name = *req.Name
	}
	if req.ImageURL != nil {
		user.ImageURL = req.ImageURL
	}

	_, err := h.db.Exec(`
		UPDATE app_user SET name = $1, image_url = $2 WHERE id = $3
	`, user.Name, user.ImageURL, user.ID)

	if err != nil {
		slog.Error("failed to update user", "error", err, "user_id", user.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	slog.Info("profile updated", "user_id", user.ID)

	middleware.JSONResponse(w, http.StatusOK, user)
}
