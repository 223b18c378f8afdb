// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the cinemate command tree.
//
// # Commands
//
//	cinemate                      full-screen chat (line mode when piped)
//	cinemate chat [--plain]       line-editing chat REPL
//	cinemate ask <text>           one question, one answer
//	cinemate login --username U   sign in
//	cinemate logout               sign out
//	cinemate whoami               show the current identity
//	cinemate search <title>       look up movies
//	cinemate trending             this week's trending movies
//	cinemate config show|path|get|set
//
// # Global Flags
//
//	--config PATH     read this config file instead of ~/.cinemate/config.toml
//	--storage NAME    identity storage backend: file, sqlite, memory
//	--ephemeral       keep identity in memory only
//	--verbose         debug logging
//	--json            machine-readable output
package cli
