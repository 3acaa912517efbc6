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

type PollHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewPollHandler(db *sql.DB, cfg cliparse.Config) *PollHandler {
	return &PollHandler{db: db, cfg: cfg}
}

// Create handles POST /polls
// Creates an open poll with its options and recipients in one transaction.
func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "question is required")
		return
	}

	options := make([]string, 0, len(req.Options))
	for _, opt := range req.Options {
		opt = strings.TrimSpace(opt)
		if opt != "" {
			options = append(options, opt)
		}
	}
	if len(options) < 2 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "at least two options are required")
		return
	}

	recipients := dedupeIDs(req.RecipientIDs, user.ID)
	if len(recipients) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "at least one recipient is required")
		return
	}

	for _, recipientID := range recipients {
		var exists int
		err := h.db.QueryRow(`SELECT COUNT(*) FROM app_user WHERE id = $1`, recipientID).Scan(&exists)
		if err != nil {
			slog.Error("failed to check recipient", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if exists == 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "unknown recipient: "+recipientID)
			return
		}
	}

	now := time.Now()
	poll := models.Poll{
		ID:           uuid.NewString(),
		Question:     req.Question,
		CreatedByID:  user.ID,
		Status:       models.PollOpen,
		Deadline:     req.Deadline,
		RecipientIDs: recipients,
		CreatedAt:    now,
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO poll (id, question, created_by, status, deadline, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, poll.ID, poll.Question, poll.CreatedByID, poll.Status, poll.Deadline, poll.CreatedAt)
	if err != nil {
		slog.Error("failed to insert poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	pollOptions := make([]models.PollOption, 0, len(options))
	for i, text := range options {
		opt := models.PollOption{
			ID:       uuid.NewString(),
			PollID:   poll.ID,
			Text:     text,
			Position: i,
		}
		_, err = tx.Exec(`
			INSERT INTO poll_option (id, poll_id, text, position)
			VALUES ($1, $2, $3, $4)
		`, opt.ID, opt.PollID, opt.Text, opt.Position)
		if err != nil {
			slog.Error("failed to insert poll option", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
			return
		}
		pollOptions = append(pollOptions, opt)
	}

	for i, recipientID := range recipients {
		_, err = tx.Exec(`
			INSERT INTO poll_recipient (poll_id, user_id, position)
			VALUES ($1, $2, $3)
		`, poll.ID, recipientID, i)
		if err != nil {
			slog.Error("failed to insert poll recipient", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	for _, recipientID := range recipients {
		notify(h.db, recipientID, models.NotifyPollInvite, poll.ID, user.Name+" asked: "+poll.Question, now)
	}

	slog.Info("poll created", "poll_id", poll.ID, "created_by", user.ID,
		"options", len(pollOptions), "recipients", len(recipients))

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePollResponse{
		Poll:    poll,
		Options: pollOptions,
	})
}

// Get handles GET /polls/{id}
// Only the creator and recipients may view a poll.
func (h *PollHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	poll, err := getPoll(h.db, pollID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to get poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !isPollParticipant(poll, user.ID) {
		middleware.ErrorResponse(w, http.StatusForbidden, "You are not part of this poll")
		return
	}

	options, err := listOptions(h.db, pollID)
	if err != nil {
		slog.Error("failed to list poll options", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	votes, err := listVotes(h.db, pollID)
	if err != nil {
		slog.Error("failed to list poll votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	counts := make([]models.OptionCount, 0, len(options))
	byOption := map[string]int{}
	var myOptionID *string
	for _, v := range votes {
		byOption[v.OptionID]++
		if v.UserID == user.ID {
			optionID := v.OptionID
			myOptionID = &optionID
		}
	}
	for _, opt := range options {
		counts = append(counts, models.OptionCount{Option: opt, Votes: byOption[opt.ID]})
	}

	middleware.JSONResponse(w, http.StatusOK, models.PollDetail{
		Poll:       poll,
		Options:    counts,
		MyOptionID: myOptionID,
	})
}

// List handles GET /polls
// Returns polls the caller created or was invited to, newest first.
func (h *PollHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	rows, err := h.db.Query(`
		SELECT DISTINCT p.id, p.question, p.created_by, p.status, p.deadline, p.created_at
		FROM poll p
		LEFT JOIN poll_recipient pr ON pr.poll_id = p.id
		WHERE p.created_by = $1 OR pr.user_id = $1
		ORDER BY p.created_at DESC
	`, user.ID)
	if err != nil {
		slog.Error("failed to query polls", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		var p models.Poll
		if err := rows.Scan(&p.ID, &p.Question, &p.CreatedByID, &p.Status, &p.Deadline, &p.CreatedAt); err != nil {
			slog.Error("failed to scan poll", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		polls = append(polls, p)
	}

	for i := range polls {
		recipients, err := listRecipients(h.db, polls[i].ID)
		if err != nil {
			slog.Error("failed to list poll recipients", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		polls[i].RecipientIDs = recipients
	}

	middleware.JSONResponse(w, http.StatusOK, polls)
}

// Cancel handles POST /polls/{id}/cancel
// Cancellation is terminal. Only the creator may cancel, and a resolved
// poll stays resolved.
func (h *PollHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll id is required")
		return
	}

	poll, err := getPoll(h.db, pollID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to get poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if poll.CreatedByID != user.ID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the creator can cancel a poll")
		return
	}

	res, err := h.db.Exec(`
		UPDATE poll SET status = $1 WHERE id = $2 AND status = $3
	`, models.PollCancelled, pollID, models.PollOpen)
	if err != nil {
		slog.Error("failed to cancel poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to cancel poll")
		return
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is not open")
		return
	}

	slog.Info("poll cancelled", "poll_id", pollID, "by", user.ID)

	poll.Status = models.PollCancelled
	middleware.JSONResponse(w, http.StatusOK, poll)
}

// querier is satisfied by both *sql.DB and *sql.Tx, so poll reads work
// inside and outside the vote transaction.
type querier interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// getPoll loads a poll row plus its recipient list.
func getPoll(db querier, pollID string) (models.Poll, error) {
	var p models.Poll
	err := db.QueryRow(`
		SELECT id, question, created_by, status, deadline, created_at
		FROM poll WHERE id = $1
	`, pollID).Scan(&p.ID, &p.Question, &p.CreatedByID, &p.Status, &p.Deadline, &p.CreatedAt)
	if err != nil {
		return models.Poll{}, err
	}

	p.RecipientIDs, err = listRecipients(db, pollID)
	if err != nil {
		return models.Poll{}, err
	}
	return p, nil
}

// listRecipients returns recipient IDs in invitation order.
func listRecipients(db querier, pollID string) ([]string, error) {
	rows, err := db.Query(`
		SELECT user_id FROM poll_recipient WHERE poll_id = $1 ORDER BY position
	`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// listOptions returns a poll's options in creation order.
func listOptions(db querier, pollID string) ([]models.PollOption, error) {
	rows, err := db.Query(`
		SELECT id, poll_id, text, position
		FROM poll_option WHERE poll_id = $1 ORDER BY position
	`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	options := []models.PollOption{}
	for rows.Next() {
		var opt models.PollOption
		if err := rows.Scan(&opt.ID, &opt.PollID, &opt.Text, &opt.Position); err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

// listVotes returns all current votes for a poll.
func listVotes(db querier, pollID string) ([]models.PollVote, error) {
	rows, err := db.Query(`
		SELECT poll_id, user_id, option_id, updated_at
		FROM poll_vote WHERE poll_id = $1
	`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := []models.PollVote{}
	for rows.Next() {
		var v models.PollVote
		if err := rows.Scan(&v.PollID, &v.UserID, &v.OptionID, &v.UpdatedAt); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// isPollParticipant reports whether userID is the creator or a recipient.
func isPollParticipant(poll models.Poll, userID string) bool {
	if poll.CreatedByID == userID {
		return true
	}
	for _, id := range poll.RecipientIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// dedupeIDs removes duplicates and the excluded ID, preserving order.
func dedupeIDs(ids []string, exclude string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || id == exclude || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
