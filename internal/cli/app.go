// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/cinemate/internal/assistant"
	"github.com/jeranaias/cinemate/internal/catalog"
	"github.com/jeranaias/cinemate/internal/config"
	"github.com/jeranaias/cinemate/internal/fireworks"
	"github.com/jeranaias/cinemate/internal/identity"
	"github.com/jeranaias/cinemate/internal/logging"
	"github.com/jeranaias/cinemate/internal/storage"
)

// GlobalFlags are the persistent flags shared by every command.
type GlobalFlags struct {
	ConfigPath string
	Storage    string
	Ephemeral  bool
	Verbose    bool
	JSON       bool
}

// App wires the components one command invocation needs.
type App struct {
	Config     *config.Config
	ConfigPath string
	Logger     *zap.Logger
	Store      storage.Store
	Session    *identity.Session
	Fireworks  *fireworks.Client
	Assistant  *assistant.Assistant
	Catalog    *catalog.Client
}

// NewApp loads configuration and builds every component. logToStderr sends
// the log to stderr instead of the log file; the full-screen view never
// sets it.
func NewApp(flags GlobalFlags, logToStderr bool) (*App, error) {
	cfg, cfgPath, loadErr := loadConfig(flags.ConfigPath)
	if cfg == nil {
		return nil, loadErr
	}

	if flags.Storage != "" && !strings.EqualFold(flags.Storage, cfg.Storage.Backend) {
		// The configured path belongs to the configured backend.
		cfg.Storage.Backend = flags.Storage
		cfg.Storage.Path = ""
	}
	if flags.Ephemeral {
		cfg.Storage.Backend = string(storage.BackendMemory)
	}
	backend, err := storage.ParseBackend(cfg.Storage.Backend)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg, flags.Verbose, logToStderr)
	if err != nil {
		return nil, err
	}
	if loadErr != nil {
		logger.Warn("config file ignored, using defaults", zap.Error(loadErr))
	}

	store, err := storage.Open(backend, cfg.Storage.Path)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open %s storage: %w", backend, err)
	}

	session := identity.NewSession(store, logger)

	fw := fireworks.NewClient(cfg.Fireworks.APIKey,
		fireworks.WithBaseURL(cfg.Fireworks.BaseURL),
		fireworks.WithModel(cfg.Fireworks.Model),
		fireworks.WithMaxTokens(cfg.Fireworks.MaxTokens),
		fireworks.WithTemperature(cfg.Fireworks.Temperature),
		fireworks.WithTimeout(cfg.Fireworks.Timeout()),
		fireworks.WithLogger(logger))

	tmdb := catalog.NewClient(cfg.Catalog.TMDBAPIKey,
		catalog.WithBaseURL(cfg.Catalog.BaseURL),
		catalog.WithRateLimit(cfg.Catalog.RequestsPerSecond),
		catalog.WithLogger(logger))

	logger.Debug("cinemate starting",
		zap.String("config", cfgPath),
		zap.String("storage", string(backend)),
		zap.String("model", fw.Model()),
		zap.String("key_fingerprint", fw.KeyFingerprint()))

	return &App{
		Config:     cfg,
		ConfigPath: cfgPath,
		Logger:     logger,
		Store:      store,
		Session:    session,
		Fireworks:  fw,
		Assistant:  assistant.New(fw, session, assistant.WithLogger(logger)),
		Catalog:    tmdb,
	}, nil
}

// InterruptGrace bounds how long Close waits for a pending reply once the
// run has been interrupted.
var InterruptGrace = 2 * time.Second

// Close waits for in-flight requests and releases storage. Once ctx is
// done the wait is bounded by InterruptGrace.
func (a *App) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.Assistant.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		select {
		case <-done:
		case <-time.After(InterruptGrace):
			a.Logger.Warn("interrupted with a reply still pending")
		}
	}

	err := a.Store.Close()
	_ = a.Logger.Sync()
	return err
}

// loadConfig returns the config, the path it came from (or would be saved
// to), and a non-fatal load error when defaults were used instead.
func loadConfig(explicit string) (*config.Config, string, error) {
	if explicit != "" {
		cfg, err := config.LoadFromPath(explicit)
		if err != nil {
			return nil, explicit, err
		}
		return cfg, explicit, nil
	}

	path, err := config.ActivePath()
	if err != nil {
		path = ""
	}
	cfg, err := config.Load()
	return cfg, path, err
}

func newLogger(cfg *config.Config, verbose, toStderr bool) (*zap.Logger, error) {
	opts := logging.Options{Level: cfg.Logging.Level, Verbose: verbose, File: cfg.Logging.File}
	if toStderr && verbose {
		opts.File = ""
		return logging.New(opts)
	}
	if opts.File == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return nil, err
		}
		opts.File = filepath.Join(dir, "cinemate.log")
	}
	return logging.New(opts)
}
