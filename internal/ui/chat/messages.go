// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/cinemate/internal/assistant"
	"github.com/jeranaias/cinemate/internal/catalog"
)

// =============================================================================
// MESSAGES
// =============================================================================

// logChangedMsg is sent whenever the conversation log grows.
type logChangedMsg struct{}

// replySettledMsg is sent once the in-flight submission has its reply.
type replySettledMsg struct {
	reply assistant.Reply
}

// searchResultMsg carries the outcome of a /search lookup.
type searchResultMsg struct {
	query  string
	movies []catalog.Movie
	err    error
}

// ModelChangedMsg tells a running view that the configured model changed.
// Err is set when the config file could not be reloaded.
type ModelChangedMsg struct {
	Model string
	Err   error
}

// =============================================================================
// COMMANDS
// =============================================================================

// SearchTimeout bounds one /search lookup.
var SearchTimeout = 15 * time.Second

// listenLog waits for the next change notification from log.
func listenLog(log *assistant.Log) tea.Cmd {
	return func() tea.Msg {
		<-log.Changes()
		return logChangedMsg{}
	}
}

// awaitReply blocks on p and reports its reply.
func awaitReply(p *assistant.Pending) tea.Cmd {
	return func() tea.Msg {
		return replySettledMsg{reply: p.Wait()}
	}
}

// searchCmd runs a catalog lookup off the update loop.
func searchCmd(c Searcher, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), SearchTimeout)
		defer cancel()
		movies, err := c.SearchMovies(ctx, query)
		return searchResultMsg{query: query, movies: movies, err: err}
	}
}
