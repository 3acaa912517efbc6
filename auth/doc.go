// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token generation and hashing utilities.

# Session Tokens

Session tokens are random 24-byte (192-bit) secrets:

	token, err := auth.GenerateSessionToken()

The raw token is handed to the client; the database stores only its
HMAC-SHA256 hash:

	hash, err := auth.HashSessionToken(token, salt)

Hashing is deterministic, so validating a request is a single lookup by
hash - no per-session secret needs to be kept in plaintext.

# ID Generation

Random hex IDs where a UUID would be overkill:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
