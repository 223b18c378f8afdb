// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a chat transcript to disk.
//
// The conversation log lives only in memory for one session; exporting is
// the one way to keep it. Two formats are supported:
//
//   - Markdown: readable, one heading per turn
//   - JSON: the entries exactly as the log holds them
//
// # Usage
//
//	t := export.NewTranscript(a.Log().Entries(), client.Model())
//	exp, _ := export.New(export.FormatMarkdown, nil)
//	path, err := export.ExportToFile(t, exp, &export.Options{OutputDir: dir})
package export
