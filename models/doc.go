// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the Planify API.

Types are organized into three sections:

  - Request types: JSON bodies accepted by handlers
  - Response types: JSON bodies returned by handlers
  - Domain types: rows as they exist in the database

Status values are constants (PollOpen, VisibilityFriends, ...) rather
than free-form strings so handlers and tests share one vocabulary.
Sensitive fields (voter identity on votes, push encryption keys) carry
`json:"-"` and never leave the server.
*/
package models
