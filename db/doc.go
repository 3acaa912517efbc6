// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connection and schema creation.

# Opening

Open selects the driver from the configured database type:

	conn, err := db.Open(cfg) // sqlite or postgres

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - app_user: registered users
  - session: session token hashes mapped to emails
  - friendship: friend requests and accepted friendships
  - event: calendar events
  - event_participant: pending/accepted/declined invitees per event
  - poll: consensus polls
  - poll_option: voting options per poll, ordered by position
  - poll_recipient: users whose votes count toward consensus
  - poll_vote: one vote per (poll, user)
  - push_subscription: web push endpoints per user
  - notification: in-app notification feed

# Relationships

	app_user 1──* event
	app_user 1──* poll
	event 1──* event_participant
	poll 1──* poll_option
	poll 1──* poll_recipient
	poll 1──* poll_vote
	app_user 1──* push_subscription
	app_user 1──* notification

All foreign keys use ON DELETE CASCADE. The SQL sticks to the dialect
both drivers accept: explicit timestamps from Go (no NOW()), $N
placeholders numbered in order of first use, and ON CONFLICT upserts.
*/
package db
