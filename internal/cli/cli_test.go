// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/cinemate/internal/assistant"
	"github.com/jeranaias/cinemate/internal/config"
	"github.com/jeranaias/cinemate/internal/storage"
)

// =============================================================================
// HARNESS
// =============================================================================

type harness struct {
	home       string
	configPath string
	completion atomic.Value // string body served by the completions endpoint
	calls      atomic.Int32
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{home: t.TempDir()}
	t.Setenv("HOME", h.home)
	t.Setenv("USERPROFILE", h.home)
	t.Setenv("NO_COLOR", "1")
	for _, name := range []string{
		"CINEMATE_FIREWORKS_KEY", "VITE_FIREWORKS_KEY",
		"CINEMATE_FIREWORKS_MODEL", "VITE_FIREWORKS_MODEL",
		"CINEMATE_TMDB_API_KEY", "VITE_TMDB_API_KEY",
		"CINEMATE_STORAGE", "CINEMATE_LOG_LEVEL",
	} {
		t.Setenv(name, "")
	}
	h.completion.Store(`{"choices":[{"message":{"content":"Inception (2010)"}}]}`)

	fw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.calls.Add(1)
		fmt.Fprint(w, h.completion.Load().(string))
	}))
	t.Cleanup(fw.Close)

	tmdb := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/movie":
			fmt.Fprint(w, `{"results":[{"id":27205,"title":"Inception","release_date":"2010-07-15","vote_average":8.4}]}`)
		case "/trending/movie/week":
			fmt.Fprint(w, `{"results":[{"id":1,"title":"Dune: Part Two","release_date":"2024-02-27"},{"id":2,"title":"Heat","release_date":"1995-12-15"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(tmdb.Close)

	h.configPath = filepath.Join(h.home, "cinemate.toml")
	content := fmt.Sprintf(`
[fireworks]
base_url = %q
timeout_secs = 5

[catalog]
base_url = %q
requests_per_second = 0

[storage]
backend = "file"
path = %q
`, fw.URL, tmdb.URL, filepath.Join(h.home, "storage.json"))
	require.NoError(t, os.WriteFile(h.configPath, []byte(content), 0600))
	return h
}

// run executes the command tree with the harness config.
func (h *harness) run(t *testing.T, stdin string, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--config", h.configPath}, args...)
	code = Execute(context.Background(), "test", full, strings.NewReader(stdin), &out, &errOut)
	return out.String(), errOut.String(), code
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_PrintsReply(t *testing.T) {
	h := newHarness(t)

	out, _, code := h.run(t, "", "ask", "Mind-bending", "thriller?")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "Inception (2010)\n", out)
	assert.Equal(t, int32(1), h.calls.Load())
}

func TestAsk_JSON(t *testing.T) {
	h := newHarness(t)
	h.completion.Store(`{"object":"chat.completion"}`)

	out, _, code := h.run(t, "", "--json", "ask", "anything")
	require.Equal(t, ExitSuccess, code)

	var resp struct {
		Success bool      `json:"success"`
		Data    askResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, assistant.NoResponseMessage, resp.Data.Reply)
	assert.False(t, resp.Data.OK)
	assert.Equal(t, "no-content", resp.Data.Failure)
}

func TestAsk_ReadsStdin(t *testing.T) {
	h := newHarness(t)

	out, _, code := h.run(t, "something like Heat\n", "ask")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Inception (2010)")
}

func TestAsk_EmptyIsUsageError(t *testing.T) {
	h := newHarness(t)

	_, errOut, code := h.run(t, "   ", "ask")
	assert.Equal(t, ExitUsageError, code)
	assert.Contains(t, errOut, "needs a question")
	assert.Zero(t, h.calls.Load())
}

// =============================================================================
// IDENTITY
// =============================================================================

func TestLoginWhoamiLogout_PersistAcrossRuns(t *testing.T) {
	h := newHarness(t)

	_, _, code := h.run(t, "", "login", "--username", "Ada", "--email", "ada@example.com")
	require.Equal(t, ExitSuccess, code)

	out, _, code := h.run(t, "", "--json", "whoami")
	require.Equal(t, ExitSuccess, code)
	var resp struct {
		Data identityView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, identityView{Authenticated: true, Username: "Ada", Email: "ada@example.com"}, resp.Data)

	store, err := storage.NewFileStore(filepath.Join(h.home, "storage.json"))
	require.NoError(t, err)
	v, ok, err := store.Get("authenticated")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "true", v)

	_, _, code = h.run(t, "", "logout")
	require.Equal(t, ExitSuccess, code)
	out, _, _ = h.run(t, "", "whoami")
	assert.Contains(t, out, "not signed in")
	assert.Contains(t, out, "User")
}

func TestLogin_RequiresUsername(t *testing.T) {
	h := newHarness(t)

	_, _, code := h.run(t, "", "login")
	assert.Equal(t, ExitUsageError, code)
}

func TestEphemeral_DoesNotPersist(t *testing.T) {
	h := newHarness(t)

	_, _, code := h.run(t, "", "--ephemeral", "login", "-u", "Ghost")
	require.Equal(t, ExitSuccess, code)

	out, _, _ := h.run(t, "", "whoami")
	assert.NotContains(t, out, "Ghost")
	_, err := os.Stat(filepath.Join(h.home, "storage.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestStorageFlag_SQLite(t *testing.T) {
	h := newHarness(t)
	dbPath := filepath.Join(h.home, ".cinemate", "storage.db")

	_, _, code := h.run(t, "", "--storage", "sqlite", "login", "-u", "Ada")
	require.Equal(t, ExitSuccess, code)

	_, err := os.Stat(dbPath)
	require.NoError(t, err)
	out, _, _ := h.run(t, "", "--storage", "sqlite", "whoami")
	assert.Contains(t, out, "Ada")
}

func TestStorageFlag_Unknown(t *testing.T) {
	h := newHarness(t)

	_, _, code := h.run(t, "", "--storage", "redis", "whoami")
	assert.Equal(t, ExitConfigError, code)
}

// =============================================================================
// CATALOG
// =============================================================================

func TestSearch(t *testing.T) {
	h := newHarness(t)

	out, _, code := h.run(t, "", "search", "inception")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "1. Inception (2010)")
}

func TestTrending_JSON(t *testing.T) {
	h := newHarness(t)

	out, _, code := h.run(t, "", "--json", "trending")
	require.Equal(t, ExitSuccess, code)

	var resp struct {
		Data []movieView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Heat (1995)", resp.Data[1].Label)
}

// =============================================================================
// LINE MODE
// =============================================================================

func TestChatPlain_Conversation(t *testing.T) {
	h := newHarness(t)

	input := strings.Join([]string{
		"",
		"Mind-bending thriller?",
		"/whoami",
		"/search inception",
		"/bogus",
		"/quit",
		"never sent",
	}, "\n")

	out, _, code := h.run(t, input, "chat", "--plain")
	require.Equal(t, ExitSuccess, code)

	assert.Contains(t, out, assistant.GreetingMessage)
	assert.Contains(t, out, assistant.Name+": Inception (2010)")
	assert.Contains(t, out, "Username")
	assert.Contains(t, out, "Results for \"inception\"")
	assert.Contains(t, out, "unknown command /bogus")
	assert.Equal(t, int32(1), h.calls.Load(), "blank lines, commands and text after /quit are not sent")
}

func TestChatPlain_Export(t *testing.T) {
	h := newHarness(t)

	out, _, code := h.run(t, "Mind-bending thriller?\n/export md\n", "chat", "--plain")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Saved transcript to")

	matches, err := filepath.Glob(filepath.Join(h.home, ".cinemate", "exports", "cinemate_Mind-bending_thriller-_*.md"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "Inception (2010)")
}

func TestChatPlain_BareQuitIsAPrompt(t *testing.T) {
	h := newHarness(t)

	out, _, code := h.run(t, "quit\nexit\n/exit\nnever sent\n", "chat", "--plain")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, assistant.Name+": Inception (2010)")
	assert.Equal(t, int32(2), h.calls.Load())
}

func TestLogFile_LoggerNamesNotRepeated(t *testing.T) {
	h := newHarness(t)
	h.completion.Store(`garbage`)

	_, _, code := h.run(t, "", "ask", "hello")
	require.Equal(t, ExitSuccess, code)

	data, err := os.ReadFile(filepath.Join(h.home, ".cinemate", "cinemate.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"logger":"cinemate.assistant"`)
	assert.NotContains(t, string(data), "assistant.assistant")
}

func TestRoot_LineModeWhenPiped(t *testing.T) {
	h := newHarness(t)

	out, _, code := h.run(t, "hello\n")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Inception (2010)")
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfigPathAndShow(t *testing.T) {
	h := newHarness(t)

	out, _, code := h.run(t, "", "config", "path")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, h.configPath+"\n", out)

	out, _, code = h.run(t, "", "config", "show")
	require.Equal(t, ExitSuccess, code)
	assert.NotContains(t, out, config.DefaultFireworksKey)
	assert.Contains(t, out, "llama-v3p1-70b-instruct")
}

func TestConfigSetGet(t *testing.T) {
	h := newHarness(t)

	_, _, code := h.run(t, "", "config", "set", "fireworks.model", "accounts/fireworks/models/custom")
	require.Equal(t, ExitSuccess, code)

	out, _, code := h.run(t, "", "config", "get", "fireworks.model")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "accounts/fireworks/models/custom\n", out)

	_, _, code = h.run(t, "", "config", "set", "fireworks.temperature", "5")
	assert.Equal(t, ExitConfigError, code)

	_, _, code = h.run(t, "", "config", "get", "nope.nope")
	assert.Equal(t, ExitUsageError, code)
}

func TestBadConfigFile(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.configPath, []byte("[fireworks\n"), 0600))

	_, errOut, code := h.run(t, "", "whoami")
	assert.NotEqual(t, ExitSuccess, code)
	assert.Contains(t, errOut, "[ERROR]")
}

func TestUnknownFlag(t *testing.T) {
	h := newHarness(t)

	_, _, code := h.run(t, "", "whoami", "--nope")
	assert.Equal(t, ExitUsageError, code)
}

// =============================================================================
// EXIT CODES
// =============================================================================

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitUsageError, GetExitCode(usageErrorf("bad")))
	assert.Equal(t, ExitConfigError, GetExitCode(fmt.Errorf("wrap: %w", config.ValidateErrors{{Field: "x", Message: "y"}})))
	assert.Equal(t, ExitGeneralError, GetExitCode(fmt.Errorf("plain")))
}
