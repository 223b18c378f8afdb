// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/cinemate/internal/assistant"
	"github.com/jeranaias/cinemate/internal/fireworks"
	"github.com/jeranaias/cinemate/internal/storage"
)

type blockingCompleter struct {
	release chan struct{}
}

func (b *blockingCompleter) Complete(ctx context.Context, _ []fireworks.ChatMessage) (*fireworks.ChatResponse, error) {
	<-b.release
	return &fireworks.ChatResponse{}, nil
}

func newBlockedApp(t *testing.T) (*App, *blockingCompleter) {
	t.Helper()
	bc := &blockingCompleter{release: make(chan struct{})}
	return &App{
		Assistant: assistant.New(bc, nil),
		Store:     storage.NewMemoryStore(),
		Logger:    zap.NewNop(),
	}, bc
}

func TestClose_BoundedAfterInterrupt(t *testing.T) {
	old := InterruptGrace
	InterruptGrace = 50 * time.Millisecond
	t.Cleanup(func() { InterruptGrace = old })

	app, bc := newBlockedApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	_, err := app.Assistant.Submit(ctx, "hello")
	require.NoError(t, err)
	cancel()

	start := time.Now()
	require.NoError(t, app.Close(ctx))
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, app.Assistant.Pending())

	// The request itself is not abandoned.
	close(bc.release)
	app.Assistant.Wait()
	assert.Equal(t, 2, app.Assistant.Log().Len())
}

func TestClose_WaitsForPendingReply(t *testing.T) {
	app, bc := newBlockedApp(t)
	_, err := app.Assistant.Submit(context.Background(), "hello")
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		close(bc.release)
	}()

	require.NoError(t, app.Close(context.Background()))
	assert.False(t, app.Assistant.Pending())
	assert.Equal(t, 2, app.Assistant.Log().Len())
}
