// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Payload is the body of a chat entry.
type Payload struct {
	// MovieNames lists titles attached to the entry. Always empty for chat
	// turns.
	MovieNames []string `json:"movieNames"`
	Message    string   `json:"message"`
}

// Entry is one turn in the conversation. Entries are values: the log hands
// out copies, so an appended entry cannot be changed.
type Entry struct {
	ID        string    `json:"id"`
	Speaker   string    `json:"user"`
	Payload   Payload   `json:"msg"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEntry creates an entry with a fresh ID.
func NewEntry(speaker, message string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Speaker:   speaker,
		Payload:   Payload{MovieNames: []string{}, Message: message},
		CreatedAt: time.Now(),
	}
}

func (e Entry) clone() Entry {
	names := make([]string, len(e.Payload.MovieNames))
	copy(names, e.Payload.MovieNames)
	e.Payload.MovieNames = names
	return e
}

// =============================================================================
// LOG
// =============================================================================

// Log is an ordered, append-only list of entries shared by the assistant
// and whatever renders it. There is no way to edit or remove an entry.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	changes chan struct{}
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{changes: make(chan struct{}, 1)}
}

// Append adds e to the end of the log.
func (l *Log) Append(e Entry) {
	l.mu.Lock()
	l.entries = append(l.entries, e.clone())
	l.mu.Unlock()
	l.notify()
}

// AppendIfEmpty appends e only when the log has no entries, as one step.
// It reports whether e was appended.
func (l *Log) AppendIfEmpty(e Entry) bool {
	l.mu.Lock()
	if len(l.entries) > 0 {
		l.mu.Unlock()
		return false
	}
	l.entries = append(l.entries, e.clone())
	l.mu.Unlock()
	l.notify()
	return true
}

func (l *Log) notify() {
	// Coalesce: one pending notification is enough for a re-render.
	select {
	case l.changes <- struct{}{}:
	default:
	}
}

// Entries returns a copy of every entry in order.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.clone()
	}
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Last returns the newest entry.
func (l *Log) Last() (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[len(l.entries)-1].clone(), true
}

// Changes receives a value after appends. Several appends between reads
// may produce a single notification.
func (l *Log) Changes() <-chan struct{} {
	return l.changes
}
