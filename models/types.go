// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Poll status constants
const (
	PollOpen      = "open"
	PollResolved  = "resolved"
	PollCancelled = "cancelled"
)

// Event visibility constants
const (
	VisibilityPrivate = "private"
	VisibilityFriends = "friends"
	VisibilityPublic  = "public"
)

// Participant status constants
const (
	ParticipantPending  = "pending"
	ParticipantAccepted = "accepted"
	ParticipantDeclined = "declined"
)

// Friendship status constants
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
)

// Notification kinds
const (
	NotifyPollInvite   = "poll_invite"
	NotifyEventInvite  = "event_invite"
	NotifyPollResolved = "poll_resolved"
)

// Request types

type RegisterUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type LoginRequest struct {
	Email string `json:"email"`
}

type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty"`
	ImageURL *string `json:"image_url,omitempty"`
}

type FriendRequestRequest struct {
	UserID string `json:"user_id"`
}

type CreateEventRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Date        *time.Time `json:"date"`
	Location    *string    `json:"location,omitempty"`
	Visibility  string     `json:"visibility"`
}

type InviteParticipantsRequest struct {
	UserIDs []string `json:"user_ids"`
}

type RespondToEventRequest struct {
	Status string `json:"status"`
}

type CreatePollRequest struct {
	Question     string     `json:"question"`
	Options      []string   `json:"options"`
	RecipientIDs []string   `json:"recipient_ids"`
	Deadline     *time.Time `json:"deadline,omitempty"`
}

type CastVoteRequest struct {
	PollID   string `json:"poll_id"`
	OptionID string `json:"option_id"`
}

type SubscribePushRequest struct {
	Endpoint string   `json:"endpoint"`
	Keys     PushKeys `json:"keys"`
}

type PushKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

type UnsubscribePushRequest struct {
	Endpoint string `json:"endpoint"`
}

// Response types

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CastVoteResponse struct {
	OK           bool   `json:"ok"`
	CreatedEvent *Event `json:"created_event,omitempty"`
}

type CreatePollResponse struct {
	Poll    Poll         `json:"poll"`
	Options []PollOption `json:"options"`
}

type InviteParticipantsResponse struct {
	Invited []string `json:"invited"`
	Skipped []string `json:"skipped"`
}

// Domain types

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ImageURL  *string   `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Friendship struct {
	ID          string    `json:"id"`
	RequesterID string    `json:"requester_id"`
	AddresseeID string    `json:"addressee_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Date        time.Time  `json:"date"`
	Location    *string    `json:"location,omitempty"`
	Visibility  string     `json:"visibility"`
	CreatedByID string     `json:"created_by_id"`
	CreatedAt   time.Time  `json:"created_at"`
}

type EventParticipant struct {
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	InvitedAt time.Time `json:"invited_at"`
}

type EventWithParticipants struct {
	Event        Event              `json:"event"`
	Participants []EventParticipant `json:"participants"`
}

type Poll struct {
	ID           string     `json:"id"`
	Question     string     `json:"question"`
	CreatedByID  string     `json:"created_by_id"`
	Status       string     `json:"status"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	RecipientIDs []string   `json:"recipient_ids"`
	CreatedAt    time.Time  `json:"created_at"`
}

type PollOption struct {
	ID       string `json:"id"`
	PollID   string `json:"poll_id"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}

type PollVote struct {
	PollID    string    `json:"poll_id"`
	UserID    string    `json:"-"` // Never expose voter identity in JSON
	OptionID  string    `json:"option_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OptionCount struct {
	Option PollOption `json:"option"`
	Votes  int        `json:"votes"`
}

type PollDetail struct {
	Poll       Poll          `json:"poll"`
	Options    []OptionCount `json:"options"`
	MyOptionID *string       `json:"my_option_id,omitempty"`
}

type PushSubscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"-"` // Never expose keys in JSON
	AuthKey   string    `json:"-"` // Never expose keys in JSON
	CreatedAt time.Time `json:"created_at"`
}

type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Kind      string     `json:"kind"`
	SubjectID *string    `json:"subject_id,omitempty"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
