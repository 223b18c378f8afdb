// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jeranaias/cinemate/internal/storage"
)

// =============================================================================
// HYDRATION TESTS
// =============================================================================

func TestNewSession_Defaults(t *testing.T) {
	s := NewSession(storage.NewMemoryStore(), nil)

	assert.Equal(t, Record{Authenticated: false, Username: "User", Email: ""}, s.Snapshot())
}

func TestNewSession_HydratesStoredValues(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(KeyAuthenticated, "true"))
	require.NoError(t, store.Set(KeyUsername, "Ada"))

	s := NewSession(store, nil)

	assert.True(t, s.Authenticated())
	assert.Equal(t, "Ada", s.Username())
	assert.Equal(t, "", s.Email())
}

func TestNewSession_AuthenticatedParsing(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		want   bool
	}{
		{"json true", "true", true},
		{"json false", "false", false},
		{"corrupt", "{definitely not json", false},
		{"string true", `"true"`, false},
		{"number", "1", false},
		{"null", "null", false},
		{"empty", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			require.NoError(t, store.Set(KeyAuthenticated, tc.stored))
			require.NoError(t, store.Set(KeyUsername, "Ada"))

			var s *Session
			require.NotPanics(t, func() { s = NewSession(store, nil) })
			assert.Equal(t, tc.want, s.Authenticated())
			assert.Equal(t, "Ada", s.Username(), "other keys still hydrate")
		})
	}
}

func TestNewSession_CorruptFlagIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(KeyAuthenticated, "not-json"))

	s := NewSession(store, zap.New(core))

	assert.False(t, s.Authenticated())
	assert.Equal(t, 1, logs.FilterMessage("stored authentication flag is not a JSON boolean").Len())
}

func TestNewSession_EmptyStoredUsernameKeepsDefault(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(KeyUsername, ""))

	s := NewSession(store, nil)
	assert.Equal(t, DefaultUsername, s.Username())
}

func TestNewSession_ReadFailureFallsBackToDefaults(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(KeyAuthenticated, "true"))
	store.FailReads = errors.New("permission denied")

	s := NewSession(store, nil)
	assert.Equal(t, DefaultRecord(), s.Snapshot())
}

func TestNewSession_NilStore(t *testing.T) {
	s := NewSession(nil, nil)
	s.SetUsername("Bob")
	assert.Equal(t, "Bob", s.Username())
}

// =============================================================================
// PERSISTENCE TESTS
// =============================================================================

func TestSetUsername_PersistsOnlyThatKey(t *testing.T) {
	store := storage.NewMemoryStore()
	s := NewSession(store, nil)

	s.SetUsername("Bob")

	v, ok, err := store.Get(KeyUsername)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Bob", v)

	assert.Equal(t, 0, store.Writes(KeyAuthenticated))
	assert.Equal(t, 0, store.Writes(KeyEmail))
	keys, _ := store.Keys()
	assert.Equal(t, []string{KeyUsername}, keys)
}

func TestSetAuthenticated_SerializesJSONBoolean(t *testing.T) {
	store := storage.NewMemoryStore()
	s := NewSession(store, nil)

	s.SetAuthenticated(true)
	v, _, _ := store.Get(KeyAuthenticated)
	assert.Equal(t, "true", v)

	s.SetAuthenticated(false)
	v, _, _ = store.Get(KeyAuthenticated)
	assert.Equal(t, "false", v)
}

func TestSet_SameValueDoesNotWrite(t *testing.T) {
	store := storage.NewMemoryStore()
	s := NewSession(store, nil)

	s.SetUsername(DefaultUsername)
	s.SetEmail("")
	s.SetAuthenticated(false)

	keys, _ := store.Keys()
	assert.Empty(t, keys)
}

func TestSet_WriteFailureKeepsMemoryState(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	store := storage.NewMemoryStore()
	store.FailWrites = errors.New("quota exceeded")
	s := NewSession(store, zap.New(core))

	require.NotPanics(t, func() { s.SetEmail("ada@example.com") })

	assert.Equal(t, "ada@example.com", s.Email())
	assert.Equal(t, 1, logs.FilterMessage("failed to save identity field").Len())
}

func TestRoundTrip_FileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")

	store, err := storage.NewFileStore(path)
	require.NoError(t, err)
	first := NewSession(store, nil)
	first.SignIn("Ada", "ada@example.com")

	reopened, err := storage.NewFileStore(path)
	require.NoError(t, err)
	second := NewSession(reopened, nil)

	assert.Equal(t, Record{Authenticated: true, Username: "Ada", Email: "ada@example.com"}, second.Snapshot())
}

// =============================================================================
// SIGN IN / OUT
// =============================================================================

func TestSignInSignOut(t *testing.T) {
	store := storage.NewMemoryStore()
	s := NewSession(store, nil)

	s.SignIn("Ada", "ada@example.com")
	assert.Equal(t, Record{true, "Ada", "ada@example.com"}, s.Snapshot())

	s.SignOut()
	assert.Equal(t, DefaultRecord(), s.Snapshot())

	v, _, _ := store.Get(KeyAuthenticated)
	assert.Equal(t, "false", v)
	v, _, _ = store.Get(KeyUsername)
	assert.Equal(t, DefaultUsername, v)
	v, _, _ = store.Get(KeyEmail)
	assert.Equal(t, "", v)
}

func TestSubscribe_SharedInstance(t *testing.T) {
	s := NewSession(storage.NewMemoryStore(), nil)

	var seen []Record
	s.Subscribe(func(r Record) { seen = append(seen, r) })

	s.SetUsername("Bob")
	s.SetUsername("Bob")
	s.SetAuthenticated(true)

	require.Len(t, seen, 2)
	assert.Equal(t, "Bob", seen[0].Username)
	assert.True(t, seen[1].Authenticated)
	assert.Equal(t, "Bob", s.DisplayName())
}
