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

// VotingHandler owns the vote-to-event workflow. The clock is a field so
// tests can pin the deadline fallback to a known instant.
type VotingHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	now func() time.Time
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{db: db, cfg: cfg, now: time.Now}
}

// CastVote handles POST /polls/vote
//
// Records or replaces the caller's vote, and when every recipient has
// voted, resolves the poll into a real event. The whole sequence runs in
// one transaction so a half-finished resolution never leaks: the vote,
// the tally, the status flip, and the event all land together or not at
// all. The status flip is a conditional update, so two racing final
// votes produce exactly one event.
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(h.db, h.cfg, w, r)
	if !ok {
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.PollID == "" || req.OptionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id and option_id are required")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	poll, err := getPoll(tx, req.PollID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to get poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if poll.Status == models.PollCancelled {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Poll is cancelled")
		return
	}

	if !isPollParticipant(poll, user.ID) {
		middleware.ErrorResponse(w, http.StatusForbidden, "You are not part of this poll")
		return
	}

	var optionExists int
	err = tx.QueryRow(`
		SELECT COUNT(*) FROM poll_option WHERE id = $1 AND poll_id = $2
	`, req.OptionID, req.PollID).Scan(&optionExists)
	if err != nil {
		slog.Error("failed to check option", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if optionExists == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown option for this poll")
		return
	}

	now := h.now()

	// Changing a vote on a resolved poll reopens it. The event that was
	// already materialized stays as it is.
	if poll.Status == models.PollResolved {
		_, err = tx.Exec(`UPDATE poll SET status = $1 WHERE id = $2`, models.PollOpen, poll.ID)
		if err != nil {
			slog.Error("failed to reopen poll", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		poll.Status = models.PollOpen
		slog.Info("poll reopened by vote change", "poll_id", poll.ID, "user_id", user.ID)
	}

	_, err = tx.Exec(`
		INSERT INTO poll_vote (poll_id, user_id, option_id, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (poll_id, user_id) DO UPDATE SET
			option_id = EXCLUDED.option_id,
			updated_at = EXCLUDED.updated_at
	`, poll.ID, user.ID, req.OptionID, now)
	if err != nil {
		slog.Error("failed to record vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	votes, err := listVotes(tx, poll.ID)
	if err != nil {
		slog.Error("failed to list votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !consensusReached(votes, poll.RecipientIDs) {
		if err := tx.Commit(); err != nil {
			slog.Error("failed to commit vote", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
			return
		}
		slog.Info("vote recorded", "poll_id", poll.ID, "user_id", user.ID)
		middleware.JSONResponse(w, http.StatusOK, models.CastVoteResponse{OK: true})
		return
	}

	options, err := listOptions(tx, poll.ID)
	if err != nil {
		slog.Error("failed to list options", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	winner, found := winningOption(tallyVotes(votes, options))
	if !found {
		// Every counted vote pointed at a since-removed option. Record
		// the vote and leave the poll open.
		if err := tx.Commit(); err != nil {
			slog.Error("failed to commit vote", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
			return
		}
		slog.Warn("consensus reached but no winnable option", "poll_id", poll.ID)
		middleware.JSONResponse(w, http.StatusOK, models.CastVoteResponse{OK: true})
		return
	}

	// Claim the resolution before creating anything. Zero rows means a
	// concurrent voter already resolved this poll.
	res, err := tx.Exec(`
		UPDATE poll SET status = $1 WHERE id = $2 AND status = $3
	`, models.PollResolved, poll.ID, models.PollOpen)
	if err != nil {
		slog.Error("failed to resolve poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	claimed, _ := res.RowsAffected()
	if claimed == 0 {
		if err := tx.Commit(); err != nil {
			slog.Error("failed to commit vote", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
			return
		}
		slog.Info("vote recorded, poll already resolved", "poll_id", poll.ID, "user_id", user.ID)
		middleware.JSONResponse(w, http.StatusOK, models.CastVoteResponse{OK: true})
		return
	}

	event := models.Event{
		ID:          uuid.NewString(),
		Title:       winner.Text,
		Date:        eventDate(poll.Deadline, now),
		Visibility:  models.VisibilityFriends,
		CreatedByID: poll.CreatedByID,
		CreatedAt:   now,
	}
	_, err = tx.Exec(`
		INSERT INTO event (id, title, description, date, location, visibility, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, event.ID, event.Title, event.Description, event.Date, event.Location,
		event.Visibility, event.CreatedByID, event.CreatedAt)
	if err != nil {
		slog.Error("failed to create event from poll", "error", err, "poll_id", poll.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	members := append([]string{poll.CreatedByID}, dedupeIDs(poll.RecipientIDs, poll.CreatedByID)...)
	enrolled, skipped, err := enrollParticipants(tx, event.ID, members, now)
	if err != nil {
		slog.Error("failed to enroll participants", "error", err, "event_id", event.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	for _, memberID := range members {
		notify(tx, memberID, models.NotifyPollResolved, event.ID,
			"\""+poll.Question+"\" settled on "+winner.Text, now)
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit poll resolution", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	slog.Info("poll resolved into event", "poll_id", poll.ID, "event_id", event.ID,
		"winner", winner.Text, "enrolled", enrolled, "skipped", skipped)

	middleware.JSONResponse(w, http.StatusOK, models.CastVoteResponse{
		OK:           true,
		CreatedEvent: &event,
	})
}

// enrollParticipants adds each member to the event as a pending
// participant. Rows that exist are skipped, not errors.
func enrollParticipants(tx *sql.Tx, eventID string, members []string, now time.Time) (int, int, error) {
	enrolled, skipped := 0, 0
	for _, userID := range members {
		res, err := tx.Exec(`
			INSERT INTO event_participant (event_id, user_id, status, invited_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (event_id, user_id) DO NOTHING
		`, eventID, userID, models.ParticipantPending, now)
		if err != nil {
			return enrolled, skipped, err
		}

		affected, _ := res.RowsAffected()
		if affected == 0 {
			skipped++
		} else {
			enrolled++
		}
	}
	return enrolled, skipped, nil
}
