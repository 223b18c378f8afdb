// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for cinemate.
//
// Supports both TOML and JSON configuration formats, with built-in defaults
// that work with no configuration at all, environment variable overrides,
// and validation.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (CINEMATE_*, then the legacy VITE_* names)
//   - ~/.cinemate/config.toml
//   - ~/.cinemate/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := fireworks.NewClient(cfg.Fireworks.APIKey,
//	    fireworks.WithModel(cfg.Fireworks.Model))
//
// Watch reloads a config file on every write so long-running sessions can
// pick up a new model without restarting.
package config
