// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/cinemate/internal/assistant"
	"github.com/jeranaias/cinemate/internal/config"
	"github.com/jeranaias/cinemate/internal/export"
	"github.com/jeranaias/cinemate/internal/ui/chat"
	"github.com/jeranaias/cinemate/internal/ui/styles"
)

func newChatCommand(s *state) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat in the terminal with line editing and history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if plain || !Interactive() {
				return runLineMode(cmd.Context(), s.app, cmd.InOrStdin(), cmd.OutOrStdout())
			}
			return runREPL(cmd.Context(), s.app, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "read plain lines from stdin without line editing")
	return cmd
}

// =============================================================================
// FULL-SCREEN VIEW
// =============================================================================

// runTUI runs the chat view and feeds it config reloads.
func runTUI(ctx context.Context, app *App) error {
	m := chat.New(chat.Deps{
		Assistant: app.Assistant,
		Session:   app.Session,
		Catalog:   app.Catalog,
		Models:    app.Fireworks,
		Theme:     styles.NewTheme(),
		Logger:    app.Logger.Named("ui"),
		ExportDir: exportDir(),
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if app.ConfigPath != "" {
		go func() {
			err := config.Watch(watchCtx, app.ConfigPath, func(cfg *config.Config, err error) {
				if err != nil {
					app.Logger.Warn("config reload failed", zap.Error(err))
					p.Send(chat.ModelChangedMsg{Err: err})
					return
				}
				p.Send(chat.ModelChangedMsg{Model: cfg.Fireworks.Model})
			})
			if err != nil {
				app.Logger.Debug("config watch unavailable", zap.Error(err))
			}
		}()
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// =============================================================================
// LINE MODE
// =============================================================================

// runLineMode reads one prompt per line until EOF or /quit.
func runLineMode(ctx context.Context, app *App, in io.Reader, out io.Writer) error {
	app.Assistant.Greet()
	printEntry(out, lastEntry(app))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if !handleLine(ctx, app, scanner.Text(), out) {
			return nil
		}
	}
	return scanner.Err()
}

// handleLine processes one line of input. It returns false when the
// session should end.
func handleLine(ctx context.Context, app *App, line string, out io.Writer) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}
	if cmd, ok := chat.ParseCommand(input); ok {
		return runSlashCommand(ctx, app, cmd, out)
	}

	pending, err := app.Assistant.Submit(ctx, line)
	if err != nil {
		fmt.Fprintf(out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		return true
	}
	pending.Wait()
	printEntry(out, lastEntry(app))
	return true
}

func runSlashCommand(ctx context.Context, app *App, cmd chat.Command, out io.Writer) bool {
	switch cmd.Name {
	case "quit", "exit":
		return false

	case "help":
		printHelp(out)

	case "whoami":
		printIdentity(out, app.Session.Snapshot())

	case "search":
		if cmd.Args == "" {
			fmt.Fprintln(out, DimStyle.Render("usage: /search <title>"))
			return true
		}
		ctx, cancel := context.WithTimeout(ctx, chat.SearchTimeout)
		defer cancel()
		movies, err := app.Catalog.SearchMovies(ctx, cmd.Args)
		if err != nil {
			app.Logger.Warn("movie search failed", zap.String("query", cmd.Args), zap.Error(err))
			fmt.Fprintf(out, "%s search failed: %v\n", ErrorStyle.Render("[Error]"), err)
			return true
		}
		printMovies(out, fmt.Sprintf("Results for %q", cmd.Args), movies)

	case "export":
		path, err := export.WriteTranscript(app.Assistant.Log().Entries(), app.Fireworks.Model(), cmd.Args, exportDir())
		if err != nil {
			fmt.Fprintf(out, "%s export failed: %v\n", ErrorStyle.Render("[Error]"), err)
			return true
		}
		fmt.Fprintf(out, "%s %s\n", SuccessStyle.Render("Saved transcript to"), path)

	default:
		fmt.Fprintf(out, "%s unknown command /%s (try /help)\n", ErrorStyle.Render("[Error]"), cmd.Name)
	}
	return true
}

// exportDir is where /export writes transcripts. Without a home directory
// it falls back to the working directory.
func exportDir() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "exports")
}

func lastEntry(app *App) assistant.Entry {
	e, _ := app.Assistant.Log().Last()
	return e
}

func printEntry(out io.Writer, e assistant.Entry) {
	fmt.Fprintf(out, "%s %s\n", SpeakerStyle.Render(e.Speaker+":"), e.Payload.Message)
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, TitleStyle.Render("Commands"))
	fmt.Fprintln(out, "  /search <title>  look up movies")
	fmt.Fprintln(out, "  /whoami          show the current identity")
	fmt.Fprintln(out, "  /export [md|json] save the transcript")
	fmt.Fprintln(out, "  /help            show this help")
	fmt.Fprintln(out, "  /quit            leave the chat")
}

// =============================================================================
// LINE-EDITING REPL
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with history kept in the config directory.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history with 0600 permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// runREPL is the interactive loop behind `cinemate chat`.
func runREPL(ctx context.Context, app *App, out io.Writer) error {
	input := NewChatCLI()
	defer input.Close()

	app.Assistant.Greet()
	printEntry(out, lastEntry(app))
	fmt.Fprintln(out, DimStyle.Render("Type /help for commands, Ctrl+D to quit."))

	prompt := PromptStyle.Render(app.Session.DisplayName() + "> ")
	for {
		line, err := input.ReadInput(prompt)
		if err != nil {
			// Ctrl+C, Ctrl+D or a closed terminal.
			fmt.Fprintln(out)
			return nil
		}

		started := time.Now()
		if !handleLine(ctx, app, line, out) {
			return nil
		}
		app.Logger.Debug("turn finished", zap.Duration("elapsed", time.Since(started)))

		prompt = PromptStyle.Render(app.Session.DisplayName() + "> ")
	}
}
