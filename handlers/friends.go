// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/planify/cliparse"
	"github.com/danielhkuo/planify/middleware"
	"github.com/danielhkuo/planify/models"
)

type FriendHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewFriendHandler(db *sql.DB, cfg cliparse.Config) *FriendHandler {
	return &FriendHandler{db: db, cfg: cfg}
}

// Request handles POST /friends/requests
func (h *FriendHandler) Request(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	var req models.FriendRequestRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.UserID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.UserID == user.ID {
		middleware.ErrorResponse(w, http.StatusBadRequest, "cannot friend yourself")
		return
	}

	var targetExists bool
	err := h.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM app_user WHERE id = $1)
	`, req.UserID).Scan(&targetExists)
	if err != nil {
		slog.Error("failed to check user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !targetExists {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	// A friendship in either direction blocks a new request
	var exists bool
	err = h.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM friendship
			WHERE (requester_id = $1 AND addressee_id = $2)
			   OR (requester_id = $2 AND addressee_id = $1)
		)
	`, user.ID, req.UserID).Scan(&exists)
	if err != nil {
		slog.Error("failed to check friendship", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if exists {
		middleware.ErrorResponse(w, http.StatusConflict, "Friendship or request already exists")
		return
	}

	friendship := models.Friendship{
		ID:          uuid.NewString(),
		RequesterID: user.ID,
		AddresseeID: req.UserID,
		Status:      models.FriendshipPending,
		CreatedAt:   time.Now(),
	}

	_, err = h.db.Exec(`
		INSERT INTO friendship (id, requester_id, addressee_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, friendship.ID, friendship.RequesterID, friendship.AddresseeID, friendship.Status, friendship.CreatedAt)

	if err != nil {
		slog.Error("failed to insert friendship", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to send request")
		return
	}

	slog.Info("friend request sent", "requester", user.ID, "addressee", req.UserID)

	middleware.JSONResponse(w, http.StatusCreated, friendship)
}

// Accept handles POST /friends/requests/{id}/accept
// Only the addressee can accept.
func (h *FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	requestID := r.PathValue("id")
	if requestID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "request id is required")
		return
	}

	var friendship models.Friendship
	err := h.db.QueryRow(`
		SELECT id, requester_id, addressee_id, status, created_at
		FROM friendship
		WHERE id = $1
	`, requestID).Scan(
		&friendship.ID, &friendship.RequesterID, &friendship.AddresseeID,
		&friendship.Status, &friendship.CreatedAt,
	)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Friend request not found")
		return
	}
	if err != nil {
		slog.Error("failed to query friendship", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if friendship.AddresseeID != user.ID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the addressee can accept a request")
		return
	}
	if friendship.Status != models.FriendshipPending {
		middleware.ErrorResponse(w, http.StatusConflict, "Request is not pending")
		return
	}

	_, err = h.db.Exec(`
		UPDATE friendship SET status = $1 WHERE id = $2
	`, models.FriendshipAccepted, friendship.ID)

	if err != nil {
		slog.Error("failed to accept friendship", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to accept request")
		return
	}

	friendship.Status = models.FriendshipAccepted

	slog.Info("friend request accepted", "friendship_id", friendship.ID)

	middleware.JSONResponse(w, http.StatusOK, friendship)
}

// Remove handles DELETE /friends/{id}
// Either side of a friendship (or the requester of a pending one) can remove it.
func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	friendshipID := r.PathValue("id")
	if friendshipID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "friendship id is required")
		return
	}

	res, err := h.db.Exec(`
		DELETE FROM friendship
		WHERE id = $1 AND (requester_id = $2 OR addressee_id = $2)
	`, friendshipID, user.ID)

	if err != nil {
		slog.Error("failed to delete friendship", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to remove friendship")
		return
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Friendship not found")
		return
	}

	slog.Info("friendship removed", "friendship_id", friendshipID, "user_id", user.ID)

	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"ok": true})
}

// List handles GET /friends
// Returns accepted friends as user records.
func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	rows, err := h.db.Query(`
		SELECT u.id, u.email, u.name, u.image_url, u.created_at
		FROM friendship f
		JOIN app_user u ON u.id = CASE
			WHEN f.requester_id = $1 THEN f.addressee_id
			ELSE f.requester_id
		END
		WHERE (f.requester_id = $1 OR f.addressee_id = $1)
		  AND f.status = 'accepted'
		ORDER BY u.name
	`, user.ID)

	if err != nil {
		slog.Error("failed to query friends", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	friends := []models.User{}
	for rows.Next() {
		var friend models.User
		if err := rows.Scan(&friend.ID, &friend.Email, &friend.Name, &friend.ImageURL, &friend.CreatedAt); err != nil {
			slog.Error("failed to scan friend", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		friends = append(friends, friend)
	}

	middleware.JSONResponse(w, http.StatusOK, friends)
}

// ListRequests handles GET /friends/requests
// Returns pending requests addressed to the caller.
func (h *FriendHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	rows, err := h.db.Query(`
		SELECT id, requester_id, addressee_id, status, created_at
		FROM friendship
		WHERE addressee_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`, user.ID)

	if err != nil {
		slog.Error("failed to query friend requests", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	requests := []models.Friendship{}
	for rows.Next() {
		var f models.Friendship
		if err := rows.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt); err != nil {
			slog.Error("failed to scan friend request", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		requests = append(requests, f)
	}

	middleware.JSONResponse(w, http.StatusOK, requests)
}

// areFriends reports whether two users have an accepted friendship.
func areFriends(db *sql.DB, userA, userB string) (bool, error) {
	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM friendship
			WHERE status = 'accepted'
			  AND ((requester_id = $1 AND addressee_id = $2)
			    OR (requester_id = $2 AND addressee_id = $1))
		)
	`, userA, userB).Scan(&exists)
	return exists, err
}
