// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Planify API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Identity (sessions via X-Session-Token):

	POST  /users         - Register user
	POST  /auth/login    - Issue session token
	POST  /auth/logout   - Revoke session
	GET   /users/me      - Current profile
	PATCH /users/me      - Update profile

Friendships:

	POST   /friends/requests             - Send friend request
	POST   /friends/requests/{id}/accept - Accept request
	DELETE /friends/{id}                 - Remove friendship
	GET    /friends                      - List friends
	GET    /friends/requests             - List incoming requests

Events:

	POST   /events              - Create event
	GET    /events              - List my events
	GET    /events/{id}         - Event with participants
	DELETE /events/{id}         - Delete event (owner)
	POST   /events/{id}/invite  - Invite participants (owner)
	POST   /events/{id}/respond - Accept or decline invitation

Consensus polls:

	POST /polls             - Create poll
	GET  /polls             - List my polls
	GET  /polls/{id}        - Poll with tally
	POST /polls/{id}/cancel - Cancel poll (creator)
	POST /polls/vote        - Cast a vote (may resolve into an event)

Push and notifications:

	POST   /push/subscriptions      - Register push endpoint
	DELETE /push/subscriptions      - Remove push endpoint
	GET    /notifications           - List notifications
	POST   /notifications/{id}/read - Mark notification read

# Handler Initialization

The router creates handler instances with dependency injection:

	pollHandler := handlers.NewPollHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg)

All handlers receive the database connection and configuration.
*/
package router
