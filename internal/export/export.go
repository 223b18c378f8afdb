// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/cinemate/internal/assistant"
	"github.com/jeranaias/cinemate/internal/util"
)

var (
	// ErrUnknownFormat is returned for a format name we cannot write.
	ErrUnknownFormat = errors.New("unknown export format")

	// ErrEmptyTranscript is returned when there is nothing to export.
	ErrEmptyTranscript = errors.New("transcript has no entries")
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is a snapshot of the conversation log prepared for export.
type Transcript struct {
	Title      string            `json:"title"`
	Model      string            `json:"model,omitempty"`
	StartedAt  time.Time         `json:"startedAt"`
	ExportedAt time.Time         `json:"exportedAt"`
	Entries    []assistant.Entry `json:"entries"`
}

// NewTranscript snapshots entries. The title is taken from the first
// entry not spoken by the assistant.
func NewTranscript(entries []assistant.Entry, model string) *Transcript {
	t := &Transcript{
		Title:      "CineMate conversation",
		Model:      model,
		ExportedAt: time.Now(),
		Entries:    entries,
	}
	if len(entries) > 0 {
		t.StartedAt = entries[0].CreatedAt
	}
	for _, e := range entries {
		if e.Speaker != assistant.Name {
			if title := util.SingleLine(e.Payload.Message); title != "" {
				t.Title = util.TruncateRunes(title, 60)
			}
			break
		}
	}
	return t
}

func (t *Transcript) validate() error {
	if t == nil || len(t.Entries) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}

// =============================================================================
// EXPORTERS
// =============================================================================

// Exporter renders a transcript in one format.
type Exporter interface {
	Export(t *Transcript) ([]byte, error)

	// FileExtension includes the leading dot.
	FileExtension() string

	MimeType() string
}

// Format names an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts "markdown", "md" and "json", case-insensitively.
// The empty string means markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q (use markdown or json)", ErrUnknownFormat, s)
	}
}

// Options configures export behavior.
type Options struct {
	// OutputDir is created if missing. Default: current directory.
	OutputDir string

	// IncludeTimestamps adds the time of each turn to Markdown headings.
	IncludeTimestamps bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeTimestamps: true,
	}
}

// New returns the exporter for format.
func New(format Format, opts *Options) (Exporter, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownExporter(opts), nil
	case FormatJSON:
		return NewJSONExporter(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ExportToFile renders t and writes it under opts.OutputDir. Returns the
// path written.
func ExportToFile(t *Transcript, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}

	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	filename := fmt.Sprintf("cinemate_%s_%s%s",
		sanitizeFilename(t.Title),
		t.ExportedAt.Format("20060102_150405"),
		exporter.FileExtension(),
	)
	path := filepath.Join(dir, filename)
	if err := util.AtomicWriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename replaces characters that are invalid in filenames on
// any common OS.
func sanitizeFilename(s string) string {
	s = util.TruncateRunes(s, 40)
	s = strings.TrimSuffix(s, "...")

	var sb strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			sb.WriteRune('-')
		case r == ' ' || r == '\t':
			sb.WriteRune('_')
		case r < 32 || r == 127:
			sb.WriteRune('-')
		default:
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "conversation"
	}
	return sb.String()
}

// WriteTranscript exports entries in the named format to dir. It is the
// one-call path used by the chat front ends.
func WriteTranscript(entries []assistant.Entry, model, format, dir string) (string, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return "", err
	}
	opts := DefaultOptions()
	opts.OutputDir = dir
	exp, err := New(f, opts)
	if err != nil {
		return "", err
	}
	return ExportToFile(NewTranscript(entries, model), exp, opts)
}
