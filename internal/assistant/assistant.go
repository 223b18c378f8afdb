// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/jeranaias/cinemate/internal/fireworks"
)

// Submission errors. Neither changes the log.
var (
	ErrEmptyPrompt = errors.New("assistant: empty prompt")
	ErrBusy        = errors.New("assistant: a request is already in flight")
)

// Completer sends one chat completion request. *fireworks.Client
// implements it.
type Completer interface {
	Complete(ctx context.Context, messages []fireworks.ChatMessage) (*fireworks.ChatResponse, error)
}

// DisplayNamer supplies the speaker name for the user's entries.
// *identity.Session implements it.
type DisplayNamer interface {
	DisplayName() string
}

// Assistant turns user text into log entries.
type Assistant struct {
	log       *Log
	completer Completer
	identity  DisplayNamer
	logger    *zap.Logger

	// inflight admits one request at a time; TryAcquire makes a second
	// submission fail instead of queueing.
	inflight *semaphore.Weighted
	pending  atomic.Bool
	wg       sync.WaitGroup
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assistant) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithLog makes the assistant append to an existing log.
func WithLog(l *Log) Option {
	return func(a *Assistant) {
		if l != nil {
			a.log = l
		}
	}
}

// New creates an assistant. identity may be nil, in which case user entries
// are labelled DefaultSpeaker.
func New(completer Completer, identity DisplayNamer, opts ...Option) *Assistant {
	a := &Assistant{
		log:       NewLog(),
		completer: completer,
		identity:  identity,
		logger:    zap.NewNop(),
		inflight:  semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.Named("assistant")
	return a
}

// Log returns the conversation log.
func (a *Assistant) Log() *Log {
	return a.log
}

// Name returns the assistant's speaker name.
func (a *Assistant) Name() string {
	return Name
}

// Pending reports whether a request is in flight.
func (a *Assistant) Pending() bool {
	return a.pending.Load()
}

// Greet appends the greeting if the log is empty.
func (a *Assistant) Greet() {
	a.log.AppendIfEmpty(NewEntry(Name, GreetingMessage))
}

// Submit appends the user's entry and starts resolving the reply.
//
// The request runs on a context detached from ctx's cancellation: once
// accepted, a submission always settles with exactly one assistant entry.
func (a *Assistant) Submit(ctx context.Context, text string) (*Pending, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyPrompt
	}
	if !a.inflight.TryAcquire(1) {
		return nil, ErrBusy
	}
	a.pending.Store(true)

	a.log.Append(NewEntry(a.speaker(), text))

	p := &Pending{done: make(chan struct{})}
	reqCtx := context.WithoutCancel(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		reply := a.Ask(reqCtx, text)
		a.log.Append(NewEntry(Name, reply.Text))

		p.reply = reply
		a.pending.Store(false)
		a.inflight.Release(1)
		close(p.done)
	}()

	return p, nil
}

// Wait blocks until every accepted submission has settled.
func (a *Assistant) Wait() {
	a.wg.Wait()
}

// Ask performs one completion for text and returns the reply to display.
// It never returns an error and never panics; failures become placeholder
// text.
func (a *Assistant) Ask(ctx context.Context, text string) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("completion panicked: %v", r)
			a.logger.Error("chat completion failed", zap.Error(err))
			reply = failure(FailureTransport, err)
		}
	}()

	if a.completer == nil {
		return failure(FailureTransport, fireworks.ErrNotConfigured)
	}

	resp, err := a.completer.Complete(ctx, BuildMessages(text))
	if err != nil {
		kind := Classify(err)
		a.logger.Error("chat completion failed",
			zap.Stringer("kind", kind), zap.Error(err))
		return failure(kind, err)
	}

	content, ok := resp.Content()
	if !ok {
		a.logger.Warn("chat completion returned no content")
		return failure(FailureNoContent, nil)
	}
	return success(content)
}

func (a *Assistant) speaker() string {
	if a.identity != nil {
		if name := a.identity.DisplayName(); name != "" {
			return name
		}
	}
	return DefaultSpeaker
}

// =============================================================================
// PENDING
// =============================================================================

// Pending is the handle for one accepted submission.
type Pending struct {
	done  chan struct{}
	reply Reply
}

// Done is closed once the assistant entry has been appended.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the request settles and returns its reply.
func (p *Pending) Wait() Reply {
	<-p.done
	return p.reply
}
