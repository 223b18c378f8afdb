// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/cinemate/internal/assistant"
	"github.com/jeranaias/cinemate/internal/ui/styles"
)

// transcript renders log entries, caching assistant markdown by entry ID.
type transcript struct {
	theme    *styles.Theme
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

func newTranscript(theme *styles.Theme) *transcript {
	return &transcript{theme: theme, cache: make(map[string]string)}
}

// resize rebuilds the markdown renderer for a new wrap width.
func (t *transcript) resize(width int) {
	if width == t.width && t.renderer != nil {
		return
	}
	t.width = width
	t.cache = make(map[string]string)
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(t.theme.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		t.renderer = nil
		return
	}
	t.renderer = r
}

func (t *transcript) markdown(e assistant.Entry) string {
	if out, ok := t.cache[e.ID]; ok {
		return out
	}
	out := e.Payload.Message
	if t.renderer != nil {
		if rendered, err := t.renderer.Render(e.Payload.Message); err == nil {
			out = strings.Trim(rendered, "\n")
		}
	}
	t.cache[e.ID] = out
	return out
}

// render returns the whole transcript as one string.
func (t *transcript) render(entries []assistant.Entry) string {
	var sb strings.Builder
	for i, e := range entries {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		stamp := t.theme.Timestamp.Render(e.CreatedAt.Format("15:04"))
		if e.Speaker == assistant.Name {
			sb.WriteString(t.theme.AssistantName.Render(e.Speaker) + " " + stamp + "\n")
			sb.WriteString(t.markdown(e))
			continue
		}
		sb.WriteString(t.theme.UserName.Render(e.Speaker) + " " + stamp + "\n")
		sb.WriteString(t.theme.UserText.Width(t.width).Render(e.Payload.Message))
	}
	return sb.String()
}

// joinVertical stacks the screen sections.
func joinVertical(sections ...string) string {
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
