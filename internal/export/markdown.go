// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// frontmatter is the YAML header of a Markdown export.
type frontmatter struct {
	Title     string    `yaml:"title"`
	Model     string    `yaml:"model,omitempty"`
	Date      time.Time `yaml:"date"`
	Entries   int       `yaml:"entries"`
	Exported  time.Time `yaml:"exported"`
	Generator string    `yaml:"generator"`
}

// MarkdownExporter writes a transcript as Markdown with YAML frontmatter.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a transcript to Markdown.
func (e *MarkdownExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder

	header, err := yaml.Marshal(frontmatter{
		Title:     t.Title,
		Model:     t.Model,
		Date:      t.StartedAt,
		Entries:   len(t.Entries),
		Exported:  t.ExportedAt,
		Generator: "cinemate",
	})
	if err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}
	sb.WriteString("---\n")
	sb.Write(header)
	sb.WriteString("---\n\n")

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(t.Title))

	for i, entry := range t.Entries {
		speaker := escapeMarkdown(entry.Speaker)
		if speaker == "" {
			speaker = "Unknown"
		}
		if e.options.IncludeTimestamps {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", speaker, entry.CreatedAt.Format("15:04:05"))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", speaker)
		}

		sb.WriteString(strings.TrimSpace(entry.Payload.Message))
		sb.WriteString("\n\n")

		if len(entry.Payload.MovieNames) > 0 {
			fmt.Fprintf(&sb, "*Movies: %s*\n\n", escapeMarkdown(strings.Join(entry.Payload.MovieNames, ", ")))
		}

		if i < len(t.Entries)-1 {
			sb.WriteString("---\n\n")
		}
	}

	fmt.Fprintf(&sb, "\n---\n\n*Exported from CineMate on %s*\n",
		t.ExportedAt.Format("January 2, 2006 at 3:04 PM"))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// escapeMarkdown escapes characters that would break a heading.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer(
		"#", `\#`,
		"*", `\*`,
		"_", `\_`,
		"[", `\[`,
		"]", `\]`,
	)
	return r.Replace(s)
}
