// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/cinemate/internal/assistant"
	"github.com/jeranaias/cinemate/internal/catalog"
	"github.com/jeranaias/cinemate/internal/fireworks"
	"github.com/jeranaias/cinemate/internal/identity"
	"github.com/jeranaias/cinemate/internal/storage"
	"github.com/jeranaias/cinemate/internal/ui/styles"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type stubCompleter struct {
	release chan struct{}
	text    string
}

func (s *stubCompleter) Complete(ctx context.Context, _ []fireworks.ChatMessage) (*fireworks.ChatResponse, error) {
	if s.release != nil {
		<-s.release
	}
	var resp fireworks.ChatResponse
	resp.Choices = append(resp.Choices, struct {
		Message      *fireworks.ChatMessage `json:"message"`
		FinishReason string                 `json:"finish_reason,omitempty"`
	}{Message: &fireworks.ChatMessage{Role: "assistant", Content: s.text}})
	return &resp, nil
}

type stubSearcher struct {
	movies []catalog.Movie
	err    error
}

func (s stubSearcher) SearchMovies(ctx context.Context, query string) ([]catalog.Movie, error) {
	return s.movies, s.err
}

type stubModels struct{ model string }

func (s *stubModels) SetModel(m string) { s.model = m }
func (s *stubModels) Model() string     { return s.model }

type fixture struct {
	model     Model
	assistant *assistant.Assistant
	session   *identity.Session
	completer *stubCompleter
	models    *stubModels
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	session := identity.NewSession(storage.NewMemoryStore(), zap.NewNop())
	completer := &stubCompleter{text: "Heat (1995)"}
	a := assistant.New(completer, session)
	models := &stubModels{model: "accounts/fireworks/models/llama-v3p1-70b-instruct"}

	m := New(Deps{
		Assistant: a,
		Session:   session,
		Catalog: stubSearcher{movies: []catalog.Movie{
			{Title: "Heat", ReleaseDate: "1995-12-15"},
			{Title: "Ronin", ReleaseDate: "1998-09-25"},
		}},
		Models: models,
		Theme:  &styles.Theme{ColorProfile: termenv.Ascii},
	})
	m.Init()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	return &fixture{
		model:     updated.(Model),
		assistant: a,
		session:   session,
		completer: completer,
		models:    models,
	}
}

func (f *fixture) send(msg tea.Msg) tea.Cmd {
	updated, cmd := f.model.Update(msg)
	f.model = updated.(Model)
	return cmd
}

func (f *fixture) typeText(s string) {
	f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (f *fixture) enter() tea.Cmd {
	return f.send(tea.KeyMsg{Type: tea.KeyEnter})
}

// =============================================================================
// TESTS
// =============================================================================

func TestInit_Greets(t *testing.T) {
	f := newFixture(t)

	entries := f.assistant.Log().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, assistant.GreetingMessage, entries[0].Payload.Message)
	assert.Contains(t, f.model.View(), "CineMate")
}

func TestSubmit_RoundTrip(t *testing.T) {
	f := newFixture(t)

	f.typeText("Best heist movie?")
	cmd := f.enter()
	require.NotNil(t, cmd)
	assert.True(t, f.model.Waiting())
	assert.Empty(t, f.model.input.Value())
	assert.False(t, f.model.input.Focused())

	f.assistant.Wait()
	last, _ := f.assistant.Log().Last()
	f.send(replySettledMsg{reply: assistant.Reply{Text: last.Payload.Message}})

	assert.False(t, f.model.Waiting())
	assert.True(t, f.model.input.Focused())
	assert.Equal(t, 3, f.assistant.Log().Len())
	assert.Equal(t, "User", f.assistant.Log().Entries()[1].Speaker)
	assert.Contains(t, f.model.viewport.View(), "Heat (1995)")
}

func TestSubmit_IgnoredWhileWaiting(t *testing.T) {
	f := newFixture(t)
	f.completer.release = make(chan struct{})

	f.typeText("first")
	f.enter()
	require.True(t, f.model.Waiting())
	before := f.assistant.Log().Len()

	// Keystrokes and Enter are ignored until the reply settles.
	f.typeText("second")
	f.enter()
	assert.Equal(t, before, f.assistant.Log().Len())
	assert.Empty(t, f.model.input.Value())

	close(f.completer.release)
	f.assistant.Wait()
}

func TestSubmit_EmptyIsNoOp(t *testing.T) {
	f := newFixture(t)

	f.typeText("   ")
	cmd := f.enter()

	assert.Nil(t, cmd)
	assert.False(t, f.model.Waiting())
	assert.Equal(t, 1, f.assistant.Log().Len())
}

func TestSubmit_FailedReplyShowsStatus(t *testing.T) {
	f := newFixture(t)

	f.send(replySettledMsg{reply: assistant.Reply{Text: assistant.ConnectionIssueMessage, Kind: assistant.FailureTransport}})
	assert.Contains(t, f.model.Status(), "transport")
	assert.True(t, f.model.statusErr)
}

func TestCommand_WhoAmI(t *testing.T) {
	f := newFixture(t)

	f.typeText("/whoami")
	f.enter()
	assert.Equal(t, "Not signed in (chatting as User)", f.model.Status())

	f.session.SignIn("Ada", "ada@example.com")
	f.typeText("/whoami")
	f.enter()
	assert.Equal(t, "Signed in as Ada <ada@example.com>", f.model.Status())
	assert.Equal(t, 1, f.assistant.Log().Len(), "commands never reach the log")
}

func TestCommand_Search(t *testing.T) {
	f := newFixture(t)

	f.typeText("/search heat")
	cmd := f.enter()
	require.NotNil(t, cmd)

	f.send(cmd())
	assert.Equal(t, "Heat (1995)  ·  Ronin (1998)", f.model.Status())
	assert.Equal(t, 1, f.assistant.Log().Len())
}

func TestCommand_SearchFailure(t *testing.T) {
	f := newFixture(t)

	f.send(searchResultMsg{query: "heat", err: errors.New("boom")})
	assert.Contains(t, f.model.Status(), "boom")
	assert.True(t, f.model.statusErr)
}

func TestCommand_SearchUsage(t *testing.T) {
	f := newFixture(t)

	f.typeText("/search")
	assert.Nil(t, f.enter())
	assert.Contains(t, f.model.Status(), "usage")
}

func TestCommand_Unknown(t *testing.T) {
	f := newFixture(t)

	f.typeText("/rewind")
	f.enter()
	assert.Contains(t, f.model.Status(), "unknown command /rewind")
}

func TestCommand_Export(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	f.model.deps.ExportDir = dir

	f.typeText("/export json")
	assert.Nil(t, f.enter())
	assert.False(t, f.model.statusErr)
	assert.Contains(t, f.model.Status(), "Saved transcript to "+dir)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, ".json", filepath.Ext(files[0].Name()))
	assert.Equal(t, 1, f.assistant.Log().Len())
}

func TestCommand_ExportBadFormat(t *testing.T) {
	f := newFixture(t)
	f.model.deps.ExportDir = t.TempDir()

	f.typeText("/export pdf")
	f.enter()
	assert.True(t, f.model.statusErr)
	assert.Contains(t, f.model.Status(), "unknown export format")
}

func TestModelChanged(t *testing.T) {
	f := newFixture(t)

	f.send(ModelChangedMsg{Model: "accounts/fireworks/models/other"})
	assert.Equal(t, "accounts/fireworks/models/other", f.models.model)
	assert.Contains(t, f.model.Status(), "other")

	f.send(ModelChangedMsg{Err: errors.New("bad toml")})
	assert.Equal(t, "accounts/fireworks/models/other", f.models.model)
	assert.Contains(t, f.model.Status(), "bad toml")
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
		ok   bool
	}{
		{"/help", Command{Name: "help"}, true},
		{"  /Search  The Thing ", Command{Name: "search", Args: "The Thing"}, true},
		{"/", Command{}, false},
		{"hello /help", Command{}, false},
		{"", Command{}, false},
	}
	for _, tc := range tests {
		got, ok := ParseCommand(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestModelShortName(t *testing.T) {
	assert.Equal(t, "llama-v3p1-70b-instruct", modelShortName("accounts/fireworks/models/llama-v3p1-70b-instruct"))
	assert.Equal(t, "plain", modelShortName("plain"))
}
