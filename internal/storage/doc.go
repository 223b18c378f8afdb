// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the persisted key-value store behind cinemate's
// identity record.
//
// The store plays the role a browser's local storage plays for a web client:
// a flat namespace of string keys and string values, last write wins, no
// versioning and no expiry.
//
// # Backends
//
//   - FileStore: a single JSON object on disk, rewritten atomically
//   - SQLiteStore: a one-table SQLite database (pure Go driver)
//   - MemoryStore: in-process map, used for --ephemeral and tests
//
// # Usage
//
//	store, err := storage.Open(storage.BackendFile, path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	_ = store.Set("username", "Ada")
//	name, ok, err := store.Get("username")
//
// # Storage Location
//
// By default data lives in ~/.cinemate/storage.json (file backend) or
// ~/.cinemate/storage.db (sqlite backend).
package storage
