// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package identity holds the signed-in user's identity record and mirrors
// it to persistent storage.
//
// A Session is the single owner of the record. It is created once at
// startup, hydrated from the store, and passed explicitly to every consumer
// (CLI commands, the chat view, the assistant). There is no package-level
// instance.
//
// # Storage Keys
//
//   - authenticated: JSON boolean text ("true" / "false")
//   - username: raw string
//   - email: raw string
//
// # Failure Policy
//
// Storage failures never escape this package. A failed read leaves the
// default value in place; a failed write is logged and the in-memory value
// is kept.
package identity
