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

type PushHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewPushHandler(db *sql.DB, cfg cliparse.Config) *PushHandler {
	return &PushHandler{db: db, cfg: cfg}
}

// Subscribe handles POST /push/subscriptions
// Registers (or re-registers) a web push endpoint for the caller.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	var req models.SubscribePushRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Endpoint == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "endpoint is required")
		return
	}
	if req.Keys.P256dh == "" || req.Keys.Auth == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "keys.p256dh and keys.auth are required")
		return
	}

	sub := models.PushSubscription{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Endpoint:  req.Endpoint,
		P256dh:    req.Keys.P256dh,
		AuthKey:   req.Keys.Auth,
		CreatedAt: time.Now(),
	}

	// A browser may re-subscribe with the same endpoint; take over the row
	_, err := h.db.Exec(`
		INSERT INTO push_subscription (id, user_id, endpoint, p256dh, auth_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (endpoint) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			p256dh = EXCLUDED.p256dh,
			auth_key = EXCLUDED.auth_key
	`, sub.ID, sub.UserID, sub.Endpoint, sub.P256dh, sub.AuthKey, sub.CreatedAt)

	if err != nil {
		slog.Error("failed to upsert push subscription", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to subscribe")
		return
	}

	slog.Info("push subscription registered", "user_id", user.ID)

	middleware.JSONResponse(w, http.StatusCreated, sub)
}

// Unsubscribe handles DELETE /push/subscriptions
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	var req models.UnsubscribePushRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Endpoint == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "endpoint is required")
		return
	}

	res, err := h.db.Exec(`
		DELETE FROM push_subscription WHERE endpoint = $1 AND user_id = $2
	`, req.Endpoint, user.ID)

	if err != nil {
		slog.Error("failed to delete push subscription", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to unsubscribe")
		return
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Subscription not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListNotifications handles GET /notifications
// Returns the caller's notifications, newest first.
func (h *PushHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	rows, err := h.db.Query(`
		SELECT id, user_id, kind, subject_id, body, created_at, read_at
		FROM notification
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, user.ID)

	if err != nil {
		slog.Error("failed to query notifications", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.SubjectID, &n.Body, &n.CreatedAt, &n.ReadAt); err != nil {
			slog.Error("failed to scan notification", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		notifications = append(notifications, n)
	}

	middleware.JSONResponse(w, http.StatusOK, notifications)
}

// MarkRead handles POST /notifications/{id}/read
func (h *PushHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	notificationID := r.PathValue("id")
	if notificationID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "notification id is required")
		return
	}

	res, err := h.db.Exec(`
		UPDATE notification SET read_at = $1
		WHERE id = $2 AND user_id = $3 AND read_at IS NULL
	`, time.Now(), notificationID, user.ID)

	if err != nil {
		slog.Error("failed to mark notification read", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to mark read")
		return
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Notification not found or already read")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"ok": true})
}

// execer is satisfied by both *sql.DB and *sql.Tx, so notification writes
// can ride along inside the vote transaction.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// notify inserts an in-app notification. Best effort: delivery failures
// are logged and never fail the calling operation.
func notify(db execer, userID, kind, subjectID, body string, now time.Time) {
	id := uuid.NewString()
	_, err := db.Exec(`
		INSERT INTO notification (id, user_id, kind, subject_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, userID, kind, subjectID, body, now)

	if err != nil {
		slog.Warn("failed to insert notification", "error", err, "user_id", userID, "kind", kind)
	}
}
