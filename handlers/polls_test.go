// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/planify/models"
)

// createTestPoll inserts an open poll with options and recipients and
// returns the poll ID plus option IDs in creation order.
func createTestPoll(t *testing.T, dbConn *sql.DB, createdBy string, options []string, recipientIDs []string) (string, []string) {
	t.Helper()

	pollID := uuid.NewString()
	_, err := dbConn.Exec(`
		INSERT INTO poll (id, question, created_by, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, pollID, "What should we do?", createdBy, models.PollOpen, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	optionIDs := make([]string, 0, len(options))
	for i, text := range options {
		optionID := uuid.NewString()
		_, err := dbConn.Exec(`
			INSERT INTO poll_option (id, poll_id, text, position)
			VALUES ($1, $2, $3, $4)
		`, optionID, pollID, text, i)
		if err != nil {
			t.Fatalf("Failed to create test option: %v", err)
		}
		optionIDs = append(optionIDs, optionID)
	}

	for i, userID := range recipientIDs {
		_, err := dbConn.Exec(`
			INSERT INTO poll_recipient (poll_id, user_id, position)
			VALUES ($1, $2, $3)
		`, pollID, userID, i)
		if err != nil {
			t.Fatalf("Failed to create test recipient: %v", err)
		}
	}

	return pollID, optionIDs
}

// castTestVote records a vote directly, bypassing the handler.
func castTestVote(t *testing.T, dbConn *sql.DB, pollID, userID, optionID string) {
	t.Helper()

	_, err := dbConn.Exec(`
		INSERT INTO poll_vote (poll_id, user_id, option_id, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (poll_id, user_id) DO UPDATE SET
			option_id = EXCLUDED.option_id,
			updated_at = EXCLUDED.updated_at
	`, pollID, userID, optionID, time.Now())
	if err != nil {
		t.Fatalf("Failed to cast test vote: %v", err)
	}
}

func TestCreatePoll(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewPollHandler(db, cfg)

	alice := createTestUser(t, db, "alice@example.com", "Alice")
	bob := createTestUser(t, db, "bob@example.com", "Bob")
	carol := createTestUser(t, db, "carol@example.com", "Carol")
	token := createTestSession(t, db, cfg, alice.Email)

	deadline := time.Now().Add(7 * 24 * time.Hour)

	tests := []struct {
		name           string
		requestBody    models.CreatePollRequest
		expectedStatus int
	}{
		{
			name: "valid poll",
			requestBody: models.CreatePollRequest{
				Question:     "Where should we eat?",
				Options:      []string{"Pizza", "Sushi", "Tacos"},
				RecipientIDs: []string{bob.ID, carol.ID},
				Deadline:     &deadline,
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "creator excluded from recipients",
			requestBody: models.CreatePollRequest{
				Question:     "Movie night?",
				Options:      []string{"Yes", "No"},
				RecipientIDs: []string{alice.ID, bob.ID},
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "missing question",
			requestBody: models.CreatePollRequest{
				Options:      []string{"A", "B"},
				RecipientIDs: []string{bob.ID},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "one option is not enough",
			requestBody: models.CreatePollRequest{
				Question:     "Only one choice?",
				Options:      []string{"A"},
				RecipientIDs: []string{bob.ID},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "blank options do not count",
			requestBody: models.CreatePollRequest{
				Question:     "Blanks?",
				Options:      []string{"A", "  ", ""},
				RecipientIDs: []string{bob.ID},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "no recipients",
			requestBody: models.CreatePollRequest{
				Question: "Talking to myself?",
				Options:  []string{"A", "B"},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "only self as recipient",
			requestBody: models.CreatePollRequest{
				Question:     "Just me?",
				Options:      []string{"A", "B"},
				RecipientIDs: []string{alice.ID},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown recipient",
			requestBody: models.CreatePollRequest{
				Question:     "Who is this?",
				Options:      []string{"A", "B"},
				RecipientIDs: []string{"no-such-user"},
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/polls", jsonBody(t, tt.requestBody))
			req.Header.Set("X-Session-Token", token)
			w := httptest.NewRecorder()

			handler.Create(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedStatus != http.StatusCreated {
				return
			}

			var resp models.CreatePollResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Poll.Status != models.PollOpen {
				t.Errorf("Expected open poll, got %s", resp.Poll.Status)
			}
			for _, id := range resp.Poll.RecipientIDs {
				if id == alice.ID {
					t.Error("Creator must not appear in recipients")
				}
			}

			// Options preserve request order via position
			for i, opt := range resp.Options {
				if opt.Position != i {
					t.Errorf("Expected option position %d, got %d", i, opt.Position)
				}
			}
		})
	}

	t.Run("recipients notified", func(t *testing.T) {
		var count int
		db.QueryRow(`
			SELECT COUNT(*) FROM notification WHERE user_id = $1 AND kind = $2
		`, carol.ID, models.NotifyPollInvite).Scan(&count)
		if count != 1 {
			t.Errorf("Expected 1 poll_invite notification for carol, got %d", count)
		}
	})
}

func TestGetPoll(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewPollHandler(db, cfg)

	alice := createTestUser(t, db, "alice@example.com", "Alice")
	bob := createTestUser(t, db, "bob@example.com", "Bob")
	stranger := createTestUser(t, db, "stranger@example.com", "Stranger")
	aliceToken := createTestSession(t, db, cfg, alice.Email)
	bobToken := createTestSession(t, db, cfg, bob.Email)
	strangerToken := createTestSession(t, db, cfg, stranger.Email)

	pollID, optionIDs := createTestPoll(t, db, alice.ID, []string{"Pizza", "Sushi"}, []string{bob.ID})
	castTestVote(t, db, pollID, bob.ID, optionIDs[1])

	t.Run("recipient sees tally and own vote", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/polls/"+pollID, nil)
		req.SetPathValue("id", pollID)
		req.Header.Set("X-Session-Token", bobToken)
		w := httptest.NewRecorder()

		handler.Get(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d. Body: %s", w.Code, w.Body.String())
		}

		var resp models.PollDetail
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}

		if len(resp.Options) != 2 {
			t.Fatalf("Expected 2 options, got %d", len(resp.Options))
		}
		if resp.Options[0].Votes != 0 || resp.Options[1].Votes != 1 {
			t.Errorf("Expected votes [0, 1], got [%d, %d]", resp.Options[0].Votes, resp.Options[1].Votes)
		}
		if resp.MyOptionID == nil || *resp.MyOptionID != optionIDs[1] {
			t.Errorf("Expected my_option_id %s, got %v", optionIDs[1], resp.MyOptionID)
		}
	})

	t.Run("creator has no vote", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/polls/"+pollID, nil)
		req.SetPathValue("id", pollID)
		req.Header.Set("X-Session-Token", aliceToken)
		w := httptest.NewRecorder()

		handler.Get(w, req)

		var resp models.PollDetail
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.MyOptionID != nil {
			t.Errorf("Expected no my_option_id for creator, got %v", resp.MyOptionID)
		}
	})

	t.Run("stranger forbidden", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/polls/"+pollID, nil)
		req.SetPathValue("id", pollID)
		req.Header.Set("X-Session-Token", strangerToken)
		w := httptest.NewRecorder()

		handler.Get(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("Expected status 403, got %d", w.Code)
		}
	})

	t.Run("unknown poll", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/polls/no-such-poll", nil)
		req.SetPathValue("id", "no-such-poll")
		req.Header.Set("X-Session-Token", aliceToken)
		w := httptest.NewRecorder()

		handler.Get(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}

func TestListPolls(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewPollHandler(db, cfg)

	alice := createTestUser(t, db, "alice@example.com", "Alice")
	bob := createTestUser(t, db, "bob@example.com", "Bob")
	carol := createTestUser(t, db, "carol@example.com", "Carol")
	bobToken := createTestSession(t, db, cfg, bob.Email)

	created, _ := createTestPoll(t, db, bob.ID, []string{"A", "B"}, []string{alice.ID})
	invited, _ := createTestPoll(t, db, alice.ID, []string{"C", "D"}, []string{bob.ID})
	createTestPoll(t, db, alice.ID, []string{"E", "F"}, []string{carol.ID})

	req := httptest.NewRequest("GET", "/polls", nil)
	req.Header.Set("X-Session-Token", bobToken)
	w := httptest.NewRecorder()

	handler.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}

	var polls []models.Poll
	if err := json.NewDecoder(w.Body).Decode(&polls); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(polls) != 2 {
		t.Fatalf("Expected 2 polls, got %d", len(polls))
	}
	got := map[string]bool{polls[0].ID: true, polls[1].ID: true}
	if !got[created] || !got[invited] {
		t.Errorf("Expected created and invited polls, got %+v", polls)
	}
	for _, p := range polls {
		if len(p.RecipientIDs) != 1 {
			t.Errorf("Expected recipient list on poll %s, got %v", p.ID, p.RecipientIDs)
		}
	}
}

func TestCancelPoll(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewPollHandler(db, cfg)

	alice := createTestUser(t, db, "alice@example.com", "Alice")
	bob := createTestUser(t, db, "bob@example.com", "Bob")
	aliceToken := createTestSession(t, db, cfg, alice.Email)
	bobToken := createTestSession(t, db, cfg, bob.Email)

	pollID, _ := createTestPoll(t, db, alice.ID, []string{"A", "B"}, []string{bob.ID})

	t.Run("recipient cannot cancel", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/polls/"+pollID+"/cancel", nil)
		req.SetPathValue("id", pollID)
		req.Header.Set("X-Session-Token", bobToken)
		w := httptest.NewRecorder()

		handler.Cancel(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("Expected status 403, got %d", w.Code)
		}
	})

	t.Run("creator cancels", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/polls/"+pollID+"/cancel", nil)
		req.SetPathValue("id", pollID)
		req.Header.Set("X-Session-Token", aliceToken)
		w := httptest.NewRecorder()

		handler.Cancel(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d. Body: %s", w.Code, w.Body.String())
		}

		var status string
		db.QueryRow(`SELECT status FROM poll WHERE id = $1`, pollID).Scan(&status)
		if status != models.PollCancelled {
			t.Errorf("Expected status cancelled, got %s", status)
		}
	})

	t.Run("cancellation is terminal", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/polls/"+pollID+"/cancel", nil)
		req.SetPathValue("id", pollID)
		req.Header.Set("X-Session-Token", aliceToken)
		w := httptest.NewRecorder()

		handler.Cancel(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("Expected status 409, got %d", w.Code)
		}
	})

	t.Run("resolved poll cannot be cancelled", func(t *testing.T) {
		resolvedID, _ := createTestPoll(t, db, alice.ID, []string{"A", "B"}, []string{bob.ID})
		_, err := db.Exec(`UPDATE poll SET status = $1 WHERE id = $2`, models.PollResolved, resolvedID)
		if err != nil {
			t.Fatalf("Failed to resolve poll: %v", err)
		}

		req := httptest.NewRequest("POST", "/polls/"+resolvedID+"/cancel", nil)
		req.SetPathValue("id", resolvedID)
		req.Header.Set("X-Session-Token", aliceToken)
		w := httptest.NewRecorder()

		handler.Cancel(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("Expected status 409, got %d", w.Code)
		}
	})
}
