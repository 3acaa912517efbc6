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

type EventHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewEventHandler(db *sql.DB, cfg cliparse.Config) *EventHandler {
	return &EventHandler{db: db, cfg: cfg}
}

// Create handles POST /events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	var req models.CreateEventRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Date == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "date is required")
		return
	}
	if req.Visibility == "" {
		req.Visibility = models.VisibilityPrivate
	}
	if !isValidVisibility(req.Visibility) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "visibility must be one of: private, friends, public")
		return
	}

	event := models.Event{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Date:        *req.Date,
		Location:    req.Location,
		Visibility:  req.Visibility,
		CreatedByID: user.ID,
		CreatedAt:   time.Now(),
	}

	_, err := h.db.Exec(`
		INSERT INTO event (id, title, description, date, location, visibility, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, event.ID, event.Title, event.Description, event.Date, event.Location,
		event.Visibility, event.CreatedByID, event.CreatedAt)

	if err != nil {
		slog.Error("failed to insert event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	slog.Info("event created", "event_id", event.ID, "created_by", user.ID)

	middleware.JSONResponse(w, http.StatusCreated, event)
}

// Get handles GET /events/{id}
// Visible to the owner, participants, accepted friends of the owner for
// friends-visibility events, and everyone for public events.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	eventID := r.PathValue("id")
	if eventID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "event id is required")
		return
	}

	event, err := getEvent(h.db, eventID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		slog.Error("failed to query event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	allowed, err := h.canSee(event, user)
	if err != nil {
		slog.Error("failed to check visibility", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !allowed {
		middleware.ErrorResponse(w, http.StatusForbidden, "You cannot view this event")
		return
	}

	participants, err := listParticipants(h.db, eventID)
	if err != nil {
		slog.Error("failed to query participants", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.EventWithParticipants{
		Event:        event,
		Participants: participants,
	})
}

// List handles GET /events
// Returns events the caller owns or participates in, ascending by date.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	rows, err := h.db.Query(`
		SELECT DISTINCT e.id, e.title, e.description, e.date, e.location, e.visibility, e.created_by, e.created_at
		FROM event e
		LEFT JOIN event_participant ep ON ep.event_id = e.id
		WHERE e.created_by = $1 OR ep.user_id = $1
		ORDER BY e.date
	`, user.ID)

	if err != nil {
		slog.Error("failed to query events", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Location,
			&e.Visibility, &e.CreatedByID, &e.CreatedAt); err != nil {
			slog.Error("failed to scan event", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		events = append(events, e)
	}

	middleware.JSONResponse(w, http.StatusOK, events)
}

// Delete handles DELETE /events/{id}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	eventID := r.PathValue("id")
	if eventID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "event id is required")
		return
	}

	event, err := getEvent(h.db, eventID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		slog.Error("failed to query event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if event.CreatedByID != user.ID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the owner can delete an event")
		return
	}

	_, err = h.db.Exec(`DELETE FROM event WHERE id = $1`, eventID)
	if err != nil {
		slog.Error("failed to delete event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete event")
		return
	}

	slog.Info("event deleted", "event_id", eventID)

	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"ok": true})
}

// Invite handles POST /events/{id}/invite
// The owner enrolls users as pending participants. Already-enrolled users
// are skipped, not errors.
func (h *EventHandler) Invite(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	eventID := r.PathValue("id")
	if eventID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "event id is required")
		return
	}

	var req models.InviteParticipantsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.UserIDs) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "user_ids cannot be empty")
		return
	}

	event, err := getEvent(h.db, eventID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		slog.Error("failed to query event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if event.CreatedByID != user.ID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the owner can invite participants")
		return
	}

	now := time.Now()
	invited := []string{}
	skipped := []string{}

	for _, userID := range req.UserIDs {
		res, err := h.db.Exec(`
			INSERT INTO event_participant (event_id, user_id, status, invited_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (event_id, user_id) DO NOTHING
		`, eventID, userID, models.ParticipantPending, now)

		if err != nil {
			// Unknown user id (FK violation) or similar; skip and continue
			slog.Warn("failed to invite participant", "error", err, "event_id", eventID, "user_id", userID)
			skipped = append(skipped, userID)
			continue
		}

		affected, _ := res.RowsAffected()
		if affected == 0 {
			skipped = append(skipped, userID)
			continue
		}

		invited = append(invited, userID)
		notify(h.db, userID, models.NotifyEventInvite, eventID,
			user.Name+" invited you to "+event.Title, now)
	}

	slog.Info("participants invited", "event_id", eventID, "invited", len(invited), "skipped", len(skipped))

	middleware.JSONResponse(w, http.StatusOK, models.InviteParticipantsResponse{
		Invited: invited,
		Skipped: skipped,
	})
}

// Respond handles POST /events/{id}/respond
// A pending participant accepts or declines.
func (h *EventHandler) Respond(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	eventID := r.PathValue("id")
	if eventID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "event id is required")
		return
	}

	var req models.RespondToEventRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Status != models.ParticipantAccepted && req.Status != models.ParticipantDeclined {
		middleware.ErrorResponse(w, http.StatusBadRequest, "status must be accepted or declined")
		return
	}

	res, err := h.db.Exec(`
		UPDATE event_participant SET status = $1
		WHERE event_id = $2 AND user_id = $3
	`, req.Status, eventID, user.ID)

	if err != nil {
		slog.Error("failed to update participant", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to respond")
		return
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "You are not invited to this event")
		return
	}

	slog.Info("participant responded", "event_id", eventID, "user_id", user.ID, "status", req.Status)

	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"ok": true})
}

// canSee applies the event visibility rules for a viewer.
func (h *EventHandler) canSee(event models.Event, viewer models.User) (bool, error) {
	if event.CreatedByID == viewer.ID || event.Visibility == models.VisibilityPublic {
		return true, nil
	}

	var participant bool
	err := h.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM event_participant WHERE event_id = $1 AND user_id = $2
		)
	`, event.ID, viewer.ID).Scan(&participant)
	if err != nil {
		return false, err
	}
	if participant {
		return true, nil
	}

	if event.Visibility == models.VisibilityFriends {
		return areFriends(h.db, event.CreatedByID, viewer.ID)
	}

	return false, nil
}

// getEvent fetches a single event row.
func getEvent(db *sql.DB, eventID string) (models.Event, error) {
	var e models.Event
	err := db.QueryRow(`
		SELECT id, title, description, date, location, visibility, created_by, created_at
		FROM event
		WHERE id = $1
	`, eventID).Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Location,
		&e.Visibility, &e.CreatedByID, &e.CreatedAt)
	return e, err
}

// listParticipants fetches all participant rows for an event.
func listParticipants(db *sql.DB, eventID string) ([]models.EventParticipant, error) {
	rows, err := db.Query(`
		SELECT event_id, user_id, status, invited_at
		FROM event_participant
		WHERE event_id = $1
		ORDER BY invited_at, user_id
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []models.EventParticipant{}
	for rows.Next() {
		var p models.EventParticipant
		if err := rows.Scan(&p.EventID, &p.UserID, &p.Status, &p.InvitedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}

	return participants, rows.Err()
}

func isValidVisibility(visibility string) bool {
	switch visibility {
	case models.VisibilityPrivate, models.VisibilityFriends, models.VisibilityPublic:
		return true
	}
	return false
}
