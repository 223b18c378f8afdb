// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/cinemate/internal/catalog"
	"github.com/jeranaias/cinemate/internal/export"
)

// Command is a parsed slash command.
type Command struct {
	Name string
	Args string
}

// ParseCommand splits "/name args" input. ok is false for plain prompts.
func ParseCommand(input string) (cmd Command, ok bool) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") || len(trimmed) == 1 {
		return Command{}, false
	}
	name, args, _ := strings.Cut(trimmed[1:], " ")
	return Command{Name: strings.ToLower(name), Args: strings.TrimSpace(args)}, true
}

const helpText = "/search <title> look up movies  ·  /whoami show identity  ·  /export [md|json] save transcript  ·  /help  ·  /quit"

// runCommand executes cmd. Output goes to the status line, never the log.
func (m *Model) runCommand(cmd Command) tea.Cmd {
	switch cmd.Name {
	case "quit", "exit":
		return tea.Quit

	case "help":
		m.setStatus(helpText)
		return nil

	case "whoami":
		m.setStatus(whoami(m.deps.Session.Authenticated(), m.deps.Session.Username(), m.deps.Session.Email()))
		return nil

	case "search":
		if cmd.Args == "" {
			m.setError("usage: /search <title>")
			return nil
		}
		if m.deps.Catalog == nil {
			m.setError("movie search is not configured")
			return nil
		}
		m.setStatus(fmt.Sprintf("Searching for %q...", cmd.Args))
		return searchCmd(m.deps.Catalog, cmd.Args)

	case "export":
		model := ""
		if m.deps.Models != nil {
			model = m.deps.Models.Model()
		}
		path, err := export.WriteTranscript(m.deps.Assistant.Log().Entries(), model, cmd.Args, m.deps.ExportDir)
		if err != nil {
			m.deps.Logger.Warn("transcript export failed", zap.Error(err))
			m.setError("export failed: " + err.Error())
			return nil
		}
		m.setStatus("Saved transcript to " + path)
		return nil

	default:
		m.setError(fmt.Sprintf("unknown command /%s (try /help)", cmd.Name))
		return nil
	}
}

func whoami(authenticated bool, username, email string) string {
	if !authenticated {
		return fmt.Sprintf("Not signed in (chatting as %s)", username)
	}
	if email == "" {
		return "Signed in as " + username
	}
	return fmt.Sprintf("Signed in as %s <%s>", username, email)
}

// formatMovies renders search results on one line.
func formatMovies(query string, movies []catalog.Movie) string {
	if len(movies) == 0 {
		return fmt.Sprintf("No movies found for %q", query)
	}
	labels := make([]string, 0, len(movies))
	for _, mv := range movies {
		labels = append(labels, mv.Label())
	}
	return strings.Join(labels, "  ·  ")
}
