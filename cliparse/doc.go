// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles configuration from CLI flags and environment variables.

# Precedence

CLI flags take priority, then environment variables, then defaults:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Settings

  - PORT (-p): server port (default: 4114)
  - DATABASE_URL (-d): connection string, required
  - DATABASE_TYPE (-t): "sqlite" or "postgres" (default: sqlite)
  - BASE_URL (--base-url): public frontend URL used in notifications
  - SESSION_TOKEN_SALT (--session-salt): secret for session token hashing, required

Secrets should come from the environment in production; the flags exist
for local development only.
*/
package cliparse
