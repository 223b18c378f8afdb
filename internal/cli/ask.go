// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/jeranaias/cinemate/internal/assistant"
)

// askResult is the --json payload of ask.
type askResult struct {
	Prompt  string `json:"prompt"`
	Reply   string `json:"reply"`
	Speaker string `json:"speaker"`
	OK      bool   `json:"ok"`
	Failure string `json:"failure,omitempty"`
}

func newAskCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the answer",
		Example: `  cinemate ask "a slow-burn sci-fi like Arrival"
  echo "something like Heat" | cinemate ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 64*1024))
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}
			if strings.TrimSpace(text) == "" {
				return usageErrorf("ask needs a question")
			}

			pending, err := s.app.Assistant.Submit(cmd.Context(), strings.TrimSpace(text))
			if err != nil {
				return err
			}
			reply := pending.Wait()

			result := askResult{
				Prompt:  strings.TrimSpace(text),
				Reply:   reply.Text,
				Speaker: assistant.Name,
				OK:      reply.OK(),
			}
			if !reply.OK() {
				result.Failure = reply.Kind.String()
			}
			return s.emit(cmd, result, func(w io.Writer) {
				displayResponse(w, reply.Text)
			})
		},
	}
}

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// renderMarkdown renders content for the terminal, returning it unchanged
// when rendering is unavailable.
func renderMarkdown(content string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayResponse renders markdown only when stdout is a terminal so piped
// output stays plain.
func displayResponse(w io.Writer, response string) {
	if IsStdoutTTY() {
		fmt.Fprint(w, renderMarkdown(response, GetTerminalWidth()-4))
		return
	}
	fmt.Fprintln(w, response)
}
