// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/cinemate/internal/assistant"
	"github.com/jeranaias/cinemate/internal/catalog"
	"github.com/jeranaias/cinemate/internal/ui/styles"
	"github.com/jeranaias/cinemate/internal/util"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Identity is the read side of the signed-in user.
type Identity interface {
	Authenticated() bool
	Username() string
	Email() string
}

// Searcher looks up movies for /search.
type Searcher interface {
	SearchMovies(ctx context.Context, query string) ([]catalog.Movie, error)
}

// ModelSetter switches the completion model at runtime.
type ModelSetter interface {
	SetModel(model string)
	Model() string
}

// Deps are the collaborators of the chat view. Assistant and Session are
// required; the rest may be nil.
type Deps struct {
	Assistant *assistant.Assistant
	Session   Identity
	Catalog   Searcher
	Models    ModelSetter
	Theme     *styles.Theme
	Logger    *zap.Logger

	// ExportDir receives /export files. Empty means the working directory.
	ExportDir string
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// chrome is the number of rows outside the viewport: header (2), status (1),
// input (2) and help (1).
const chrome = 6

// Model is the Bubble Tea model for the chat view.
type Model struct {
	deps   Deps
	theme  *styles.Theme
	keyMap KeyMap

	width  int
	height int
	ready  bool

	viewport   viewport.Model
	input      textinput.Model
	spinner    spinner.Model
	transcript *transcript

	waiting   bool
	status    string
	statusErr bool
}

// New creates the chat view.
func New(deps Deps) Model {
	if deps.Theme == nil {
		deps.Theme = styles.NewTheme()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	input := textinput.New()
	input.Placeholder = "Ask " + assistant.Name + " for a movie..."
	input.Prompt = deps.Theme.InputPrompt.Render("> ")
	input.CharLimit = 2000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = deps.Theme.Spinner

	return Model{
		deps:       deps,
		theme:      deps.Theme,
		keyMap:     DefaultKeyMap(),
		viewport:   viewport.New(80, 20),
		input:      input,
		spinner:    sp,
		transcript: newTranscript(deps.Theme),
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init greets and starts listening for log changes.
func (m Model) Init() tea.Cmd {
	m.deps.Assistant.Greet()
	return tea.Batch(textinput.Blink, listenLog(m.deps.Assistant.Log()))
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case logChangedMsg:
		m.refresh()
		return m, listenLog(m.deps.Assistant.Log())

	case replySettledMsg:
		m.waiting = false
		m.input.Focus()
		m.refresh()
		if msg.reply.OK() {
			m.clearStatus()
		} else {
			m.setError("Last request failed (" + msg.reply.Kind.String() + ")")
		}
		return m, textinput.Blink

	case searchResultMsg:
		if msg.err != nil {
			m.deps.Logger.Warn("movie search failed", zap.String("query", msg.query), zap.Error(msg.err))
			m.setError("Search failed: " + msg.err.Error())
			return m, nil
		}
		m.setStatus(formatMovies(msg.query, msg.movies))
		return m, nil

	case ModelChangedMsg:
		if msg.Err != nil {
			m.setError("Config reload failed: " + msg.Err.Error())
			return m, nil
		}
		if m.deps.Models != nil && msg.Model != "" && msg.Model != m.deps.Models.Model() {
			m.deps.Models.SetModel(msg.Model)
			m.setStatus("Model switched to " + msg.Model)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keyMap.Bottom):
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()
	}

	if m.waiting {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input as a prompt or runs it as a slash command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.waiting {
		return m, nil
	}
	text := m.input.Value()

	if cmd, ok := ParseCommand(text); ok {
		m.input.Reset()
		return m, m.runCommand(cmd)
	}

	pending, err := m.deps.Assistant.Submit(context.Background(), text)
	switch {
	case errors.Is(err, assistant.ErrEmptyPrompt), errors.Is(err, assistant.ErrBusy):
		return m, nil
	case err != nil:
		m.setError(err.Error())
		return m, nil
	}

	m.input.Reset()
	m.input.Blur()
	m.waiting = true
	m.clearStatus()
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, awaitReply(pending))
}

// View renders the model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return joinVertical(
		m.headerView(),
		m.viewport.View(),
		m.statusView(),
		m.theme.InputContainer.Width(m.width).Render(m.input.View()),
		m.theme.Help.Render(util.TruncateWidth(m.keyMap.ShortHelp(), m.width-2)),
	)
}

func (m Model) headerView() string {
	user := m.deps.Session.Username()
	if m.deps.Session.Authenticated() {
		user = "● " + user
	}
	title := m.theme.HeaderBrand.Render("🎬 CineMate")
	right := m.theme.HeaderUser.Render(user)
	if m.deps.Models != nil {
		right = m.theme.HeaderUser.Render(modelShortName(m.deps.Models.Model())+"  ") + right
	}
	gap := m.width - 2 - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(title + strings.Repeat(" ", gap) + right)
}

func (m Model) statusView() string {
	if m.waiting {
		return m.theme.Status.Render(m.spinner.View() + " " + assistant.Name + " is thinking...")
	}
	text := util.TruncateWidth(util.SingleLine(m.status), m.width-2)
	if m.statusErr {
		return m.theme.StatusError.Render(text)
	}
	return m.theme.Status.Render(text)
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.theme.SetSize(width, height)

	vh := height - chrome
	if vh < 3 {
		vh = 3
	}
	m.viewport.Width = width
	m.viewport.Height = vh
	m.input.Width = width - 6
	m.transcript.resize(m.theme.ContentWidth())
	m.ready = true
	m.refresh()
}

// refresh re-renders the transcript and jumps to the newest entry.
func (m *Model) refresh() {
	if m.transcript.renderer == nil && m.transcript.width == 0 {
		m.transcript.resize(m.theme.ContentWidth())
	}
	m.viewport.SetContent(m.transcript.render(m.deps.Assistant.Log().Entries()))
	m.viewport.GotoBottom()
}

func (m *Model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *Model) setError(s string) {
	m.status, m.statusErr = s, true
}

func (m *Model) clearStatus() {
	m.status, m.statusErr = "", false
}

// Waiting reports whether the view is waiting on a reply.
func (m Model) Waiting() bool {
	return m.waiting
}

// Status returns the current status line text.
func (m Model) Status() string {
	return m.status
}

func modelShortName(model string) string {
	for i := len(model) - 1; i >= 0; i-- {
		if model[i] == '/' {
			return model[i+1:]
		}
	}
	return model
}

