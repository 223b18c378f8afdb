// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/cinemate/internal/storage"
	"github.com/jeranaias/cinemate/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the main configuration structure.
type Config struct {
	Fireworks FireworksConfig `toml:"fireworks" json:"fireworks"`
	Catalog   CatalogConfig   `toml:"catalog" json:"catalog"`
	Storage   StorageConfig   `toml:"storage" json:"storage"`
	Logging   LoggingConfig   `toml:"logging" json:"logging"`
}

// FireworksConfig configures the chat-completions endpoint.
type FireworksConfig struct {
	APIKey      string  `toml:"api_key" json:"api_key"`
	Model       string  `toml:"model" json:"model"`
	BaseURL     string  `toml:"base_url" json:"base_url"`
	MaxTokens   int     `toml:"max_tokens" json:"max_tokens"`
	Temperature float64 `toml:"temperature" json:"temperature"`
	TimeoutSecs int     `toml:"timeout_secs" json:"timeout_secs"`
}

// Timeout returns TimeoutSecs as a duration.
func (f FireworksConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSecs) * time.Second
}

// CatalogConfig configures the TMDB movie catalog.
type CatalogConfig struct {
	TMDBAPIKey        string  `toml:"tmdb_api_key" json:"tmdb_api_key"`
	BaseURL           string  `toml:"base_url" json:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// StorageConfig selects where identity fields are persisted.
type StorageConfig struct {
	// Backend is one of "file", "sqlite" or "memory".
	Backend string `toml:"backend" json:"backend"`

	// Path overrides the backend's default location.
	Path string `toml:"path" json:"path"`
}

// LoggingConfig configures the diagnostic log.
type LoggingConfig struct {
	Level string `toml:"level" json:"level"`

	// File receives logs when set. The TUI always logs to a file.
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Built-in credentials so the program runs with no configuration at all.
const (
	DefaultFireworksKey = "fw_3ZGLzhbzx5RjAdU8mNQt4ZNb"
	DefaultTMDBKey      = "4293f023fa6ee20e8778deb208322c8a"
)

// Default returns a Config with built-in defaults.
func Default() *Config {
	return &Config{
		Fireworks: FireworksConfig{
			APIKey:      DefaultFireworksKey,
			Model:       "accounts/fireworks/models/llama-v3p1-70b-instruct",
			BaseURL:     "https://api.fireworks.ai/inference/v1",
			MaxTokens:   400,
			Temperature: 0.7,
			TimeoutSecs: 60,
		},
		Catalog: CatalogConfig{
			TMDBAPIKey:        DefaultTMDBKey,
			BaseURL:           "https://api.themoviedb.org/3",
			RequestsPerSecond: 4,
		},
		Storage: StorageConfig{
			Backend: string(storage.BackendFile),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the cinemate configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".cinemate"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ActivePath returns the config file Load would read, or the TOML path when
// neither file exists yet.
func ActivePath() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// ensureSecurePermissions narrows a config file to 0600; it may hold API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
//
// A file that fails to parse is reported alongside a usable default config.
func Load() (*Config, error) {
	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		if err == nil {
			return cfg, nil
		}
		fallback, ferr := finish(Default())
		if ferr != nil {
			return nil, ferr
		}
		return fallback, err
	}
	return finish(Default())
}

// LoadFromPath loads configuration from a specific file. Files ending in
// .json are decoded as JSON, anything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finish(cfg)
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults fills zero values that a partial file or override left empty.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Fireworks.APIKey == "" {
		c.Fireworks.APIKey = d.Fireworks.APIKey
	}
	if c.Fireworks.Model == "" {
		c.Fireworks.Model = d.Fireworks.Model
	}
	if c.Fireworks.BaseURL == "" {
		c.Fireworks.BaseURL = d.Fireworks.BaseURL
	}
	if c.Fireworks.MaxTokens == 0 {
		c.Fireworks.MaxTokens = d.Fireworks.MaxTokens
	}
	if c.Fireworks.TimeoutSecs == 0 {
		c.Fireworks.TimeoutSecs = d.Fireworks.TimeoutSecs
	}

	if c.Catalog.TMDBAPIKey == "" {
		c.Catalog.TMDBAPIKey = d.Catalog.TMDBAPIKey
	}
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = d.Catalog.BaseURL
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to path, as JSON for .json paths and TOML otherwise.
// The file is written atomically with 0600 permissions.
func Save(cfg *Config, path string) error {
	var data []byte
	if strings.HasSuffix(path, ".json") {
		b, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		data = b
	} else {
		var sb strings.Builder
		sb.WriteString("# cinemate configuration file\n")
		sb.WriteString("# Generated by cinemate - edit with care\n\n")
		if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		data = []byte(sb.String())
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate validates the configuration and returns ValidateErrors when any
// field is out of range.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if err := validateURL(c.Fireworks.BaseURL); err != nil {
		errs = append(errs, ValidationError{Field: "fireworks.base_url", Message: err.Error()})
	}
	if c.Fireworks.MaxTokens < 1 || c.Fireworks.MaxTokens > 8192 {
		errs = append(errs, ValidationError{
			Field:   "fireworks.max_tokens",
			Message: fmt.Sprintf("must be between 1 and 8192, got %d", c.Fireworks.MaxTokens),
		})
	}
	if c.Fireworks.Temperature < 0 || c.Fireworks.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "fireworks.temperature",
			Message: fmt.Sprintf("must be between 0 and 2, got %g", c.Fireworks.Temperature),
		})
	}
	if c.Fireworks.TimeoutSecs < 1 || c.Fireworks.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "fireworks.timeout_secs",
			Message: fmt.Sprintf("must be between 1 and 600, got %d", c.Fireworks.TimeoutSecs),
		})
	}

	if err := validateURL(c.Catalog.BaseURL); err != nil {
		errs = append(errs, ValidationError{Field: "catalog.base_url", Message: err.Error()})
	}
	if c.Catalog.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{
			Field:   "catalog.requests_per_second",
			Message: "must not be negative",
		})
	}

	if _, err := storage.ParseBackend(c.Storage.Backend); err != nil {
		errs = append(errs, ValidationError{Field: "storage.backend", Message: err.Error()})
	}

	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got '%s'", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("URL has no host")
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// envAliases lists each override as preferred name then legacy name.
var envAliases = []struct {
	names []string
	apply func(c *Config, v string)
}{
	{[]string{"CINEMATE_FIREWORKS_KEY", "VITE_FIREWORKS_KEY"}, func(c *Config, v string) { c.Fireworks.APIKey = v }},
	{[]string{"CINEMATE_FIREWORKS_MODEL", "VITE_FIREWORKS_MODEL"}, func(c *Config, v string) { c.Fireworks.Model = v }},
	{[]string{"CINEMATE_TMDB_API_KEY", "VITE_TMDB_API_KEY"}, func(c *Config, v string) { c.Catalog.TMDBAPIKey = v }},
	{[]string{"CINEMATE_STORAGE"}, func(c *Config, v string) { c.Storage.Backend = v }},
	{[]string{"CINEMATE_LOG_LEVEL"}, func(c *Config, v string) { c.Logging.Level = v }},
}

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CINEMATE_FIREWORKS_KEY / VITE_FIREWORKS_KEY: fireworks.api_key
//   - CINEMATE_FIREWORKS_MODEL / VITE_FIREWORKS_MODEL: fireworks.model
//   - CINEMATE_TMDB_API_KEY / VITE_TMDB_API_KEY: catalog.tmdb_api_key
//   - CINEMATE_STORAGE: storage.backend
//   - CINEMATE_LOG_LEVEL: logging.level
func (c *Config) ApplyEnvOverrides() {
	for _, alias := range envAliases {
		for _, name := range alias.names {
			if v := strings.TrimSpace(os.Getenv(name)); v != "" {
				alias.apply(c, v)
				break
			}
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g. "fireworks.model").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(key, ".")
	if key == "" || len(parts) != 2 {
		return reflect.Value{}, fmt.Errorf("invalid key: %q", key)
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		name := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(n string) bool {
			return strings.EqualFold(n, name)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %q", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go
// field spelling, compared case-insensitively ("tmdb_api_key" -> "TmdbApiKey").
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

func setFieldValue(field reflect.Value, value interface{}) error {
	if s, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(s)
			return nil
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(n)
			return nil
		case reflect.Float64:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(f)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// Keys returns every settable key in dot notation.
func Keys() []string {
	return []string{
		"fireworks.api_key",
		"fireworks.model",
		"fireworks.base_url",
		"fireworks.max_tokens",
		"fireworks.temperature",
		"fireworks.timeout_secs",
		"catalog.tmdb_api_key",
		"catalog.base_url",
		"catalog.requests_per_second",
		"storage.backend",
		"storage.path",
		"logging.level",
		"logging.file",
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

// Redacted returns a copy with API keys masked.
func (c *Config) Redacted() *Config {
	safe := *c
	safe.Fireworks.APIKey = redact(safe.Fireworks.APIKey)
	safe.Catalog.TMDBAPIKey = redact(safe.Catalog.TMDBAPIKey)
	return &safe
}

func redact(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "[REDACTED]"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// String renders the config as TOML with secrets redacted.
func (c *Config) String() string {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(c.Redacted()); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return sb.String()
}
