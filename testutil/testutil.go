// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/planify/auth"
	"github.com/danielhkuo/planify/cliparse"
	"github.com/danielhkuo/planify/db"
	"github.com/danielhkuo/planify/models"
)

// SetupTestDB creates a fresh in-memory database with the full schema.
// One connection only: each sqlite :memory: connection is its own database.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             4114,
		DatabaseURL:      ":memory:",
		DatabaseType:     "sqlite",
		SessionTokenSalt: "test-session-salt",
		BaseURL:          "https://planify.test",
	}
}

// CreateTestUser inserts a user and returns the full record.
func CreateTestUser(t *testing.T, dbConn *sql.DB, email, name string) models.User {
	t.Helper()

	user := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		CreatedAt: time.Now(),
	}
	_, err := dbConn.Exec(`
		INSERT INTO app_user (id, email, name, created_at)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Email, user.Name, user.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// CreateTestSession issues a session for the given email and returns the
// raw token, ready for the X-Session-Token header.
func CreateTestSession(t *testing.T, dbConn *sql.DB, cfg cliparse.Config, email string) string {
	t.Helper()

	token, err := auth.GenerateSessionToken()
	if err != nil {
		t.Fatalf("Failed to generate session token: %v", err)
	}
	tokenHash, err := auth.HashSessionToken(token, cfg.SessionTokenSalt)
	if err != nil {
		t.Fatalf("Failed to hash session token: %v", err)
	}

	now := time.Now()
	_, err = dbConn.Exec(`
		INSERT INTO session (token_hash, email, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`, tokenHash, email, now, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	return token
}

// CreateTestFriendship inserts a friendship row with the given status
// ("pending" or "accepted") and returns its ID.
func CreateTestFriendship(t *testing.T, dbConn *sql.DB, requesterID, addresseeID, status string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := dbConn.Exec(`
		INSERT INTO friendship (id, requester_id, addressee_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, requesterID, addresseeID, status, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test friendship: %v", err)
	}

	return id
}

// CreateTestEvent inserts an event owned by createdBy and returns its ID.
func CreateTestEvent(t *testing.T, dbConn *sql.DB, createdBy, title, visibility string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := dbConn.Exec(`
		INSERT INTO event (id, title, date, visibility, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, title, time.Now().Add(48*time.Hour), visibility, createdBy, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test event: %v", err)
	}

	return id
}

// CreateTestPoll inserts an open poll with options and recipients.
// Returns the poll ID and the option IDs in creation order.
func CreateTestPoll(t *testing.T, dbConn *sql.DB, createdBy string, options []string, recipientIDs []string) (string, []string) {
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

// CastTestVote records a vote directly, bypassing the handler.
func CastTestVote(t *testing.T, dbConn *sql.DB, pollID, userID, optionID string) {
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

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
