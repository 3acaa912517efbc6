// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Planify API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - UserHandler: Registration and profile management
  - SessionHandler: Login and logout
  - FriendHandler: Friend requests and friendships
  - EventHandler: Event lifecycle, invitations, RSVPs
  - PollHandler: Consensus poll lifecycle (create, view, cancel)
  - VotingHandler: Vote casting and poll-to-event resolution
  - PushHandler: Push subscriptions and in-app notifications

Handlers are created via constructor functions that accept *sql.DB and Config:

	pollHandler := handlers.NewPollHandler(db, cfg)

Authenticated operations require the X-Session-Token header. Session
resolution lives in session.go: requireUser maps a missing or expired
token to 401 and a dangling session (user deleted after login) to 404.

# Poll Workflow

A poll collects votes from its recipients until all of them have voted,
then resolves into an event:

	POST /polls       → Create (options + recipients)
	POST /polls/vote  → CastVote (records vote, may resolve the poll)
	GET  /polls/{id}  → Get (tally + caller's own vote)
	POST /polls/{id}/cancel → Cancel (creator only, terminal)

The tally and winner selection are pure functions in consensus.go. Ties
break toward the earliest-created option, so resolution is deterministic
for a given set of votes.

CastVote runs the entire resolve sequence inside one transaction and
claims the open → resolved flip with a conditional update, which keeps
event creation at-most-once under concurrent final votes.

# Events and Invitations

	POST /events                → Create
	POST /events/{id}/invite    → Invite (owner only, skips existing rows)
	POST /events/{id}/respond   → Respond (accept or decline)

Visibility is private, friends, or public and is enforced in Get.
*/
package handlers
