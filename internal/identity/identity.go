// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"encoding/json"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// Storage keys.
const (
	KeyAuthenticated = "authenticated"
	KeyUsername      = "username"
	KeyEmail         = "email"
)

// DefaultUsername is used until a username has been stored.
const DefaultUsername = "User"

// Store is the persistence the session needs. storage.Store satisfies it.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Record is a snapshot of the identity state.
type Record struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username"`
	Email         string `json:"email"`
}

// DefaultRecord returns the state used when nothing has been stored.
func DefaultRecord() Record {
	return Record{Authenticated: false, Username: DefaultUsername, Email: ""}
}

// Session owns the identity record and keeps the store in sync with it.
type Session struct {
	mu        sync.RWMutex
	rec       Record
	store     Store
	logger    *zap.Logger
	observers []func(Record)
}

// NewSession creates a session and hydrates it from store. A nil logger is
// replaced with a no-op logger.
func NewSession(store Store, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		rec:    DefaultRecord(),
		store:  store,
		logger: logger.Named("identity"),
	}
	s.hydrate()
	return s
}

// hydrate reads the three keys independently. Each key that cannot be read
// or parsed leaves its default in place.
func (s *Session) hydrate() {
	if s.store == nil {
		return
	}

	if raw, ok, err := s.store.Get(KeyAuthenticated); err != nil {
		s.logger.Warn("failed to load stored authentication flag", zap.Error(err))
	} else if ok {
		var authed bool
		if err := json.Unmarshal([]byte(raw), &authed); err != nil {
			s.logger.Warn("stored authentication flag is not a JSON boolean",
				zap.String("value", raw), zap.Error(err))
		} else if authed {
			s.rec.Authenticated = true
		}
	}

	if v, ok, err := s.store.Get(KeyUsername); err != nil {
		s.logger.Warn("failed to load stored username", zap.Error(err))
	} else if ok && v != "" {
		s.rec.Username = v
	}

	if v, ok, err := s.store.Get(KeyEmail); err != nil {
		s.logger.Warn("failed to load stored email", zap.Error(err))
	} else if ok && v != "" {
		s.rec.Email = v
	}
}

// =============================================================================
// READERS
// =============================================================================

// Snapshot returns a copy of the current record.
func (s *Session) Snapshot() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec
}

// Authenticated reports whether the user is signed in.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Authenticated
}

// Username returns the current username.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Username
}

// Email returns the current email address.
func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Email
}

// DisplayName is the name shown as the speaker of the user's chat entries.
func (s *Session) DisplayName() string {
	return s.Username()
}

// =============================================================================
// WRITERS
// =============================================================================

// SetAuthenticated updates the authentication flag.
func (s *Session) SetAuthenticated(v bool) {
	s.update(func(r *Record) []string {
		if r.Authenticated == v {
			return nil
		}
		r.Authenticated = v
		return []string{KeyAuthenticated}
	})
}

// SetUsername updates the username.
func (s *Session) SetUsername(v string) {
	s.update(func(r *Record) []string {
		if r.Username == v {
			return nil
		}
		r.Username = v
		return []string{KeyUsername}
	})
}

// SetEmail updates the email address.
func (s *Session) SetEmail(v string) {
	s.update(func(r *Record) []string {
		if r.Email == v {
			return nil
		}
		r.Email = v
		return []string{KeyEmail}
	})
}

// SignIn marks the user authenticated and records their name and email.
func (s *Session) SignIn(username, email string) {
	s.update(func(r *Record) []string {
		next := Record{Authenticated: true, Username: username, Email: email}
		return r.replace(next)
	})
}

// SignOut restores the default record.
func (s *Session) SignOut() {
	s.update(func(r *Record) []string {
		return r.replace(DefaultRecord())
	})
}

// Subscribe registers fn to be called with the new record after every
// change. fn runs on the goroutine that made the change.
func (s *Session) Subscribe(fn func(Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// replace overwrites r with next and returns the keys whose values changed.
func (r *Record) replace(next Record) []string {
	var changed []string
	if r.Authenticated != next.Authenticated {
		changed = append(changed, KeyAuthenticated)
	}
	if r.Username != next.Username {
		changed = append(changed, KeyUsername)
	}
	if r.Email != next.Email {
		changed = append(changed, KeyEmail)
	}
	*r = next
	return changed
}

// update applies mutate under the lock, then persists the changed keys and
// notifies observers outside it. Memory is updated first and is never
// rolled back.
func (s *Session) update(mutate func(*Record) []string) {
	s.mu.Lock()
	changed := mutate(&s.rec)
	rec := s.rec
	observers := append([]func(Record){}, s.observers...)
	s.mu.Unlock()

	if len(changed) == 0 {
		return
	}

	s.persist(rec, changed)
	for _, fn := range observers {
		fn(rec)
	}
}

// persist writes the given keys of rec to the store.
func (s *Session) persist(rec Record, keys []string) {
	if s.store == nil {
		return
	}
	for _, key := range keys {
		var value string
		switch key {
		case KeyAuthenticated:
			value = strconv.FormatBool(rec.Authenticated)
		case KeyUsername:
			value = rec.Username
		case KeyEmail:
			value = rec.Email
		}
		if err := s.store.Set(key, value); err != nil {
			s.logger.Error("failed to save identity field",
				zap.String("key", key), zap.Error(err))
		}
	}
}
