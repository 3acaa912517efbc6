// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Planify API server.

Planify is a social event-planning service: friends propose a question
with a few options, everyone votes, and once the whole group has weighed
in the winning option becomes a real event on everyone's calendar.

# Starting the Server

The server reads environment variables, a .env file, or CLI flags:

	DATABASE_TYPE=sqlite DATABASE_URL=planify.db go run main.go

Or with flags:

	go run main.go -p 4114 -t postgres -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): connection string (postgres URL or sqlite path)
  - SESSION_TOKEN_SALT (-session-salt): secret for session token HMAC

Optional settings:

  - PORT (-p): server port (default: 4114)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - BASE_URL (-base-url): public base URL for links in notifications

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (users, friends, events, polls, voting, push)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - auth: Session token generation and hashing
  - db: Connection setup and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
