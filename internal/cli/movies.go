// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/cinemate/internal/catalog"
	"github.com/jeranaias/cinemate/internal/util"
)

// movieView is one --json search result.
type movieView struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Year        string  `json:"year,omitempty"`
	Label       string  `json:"label"`
	VoteAverage float64 `json:"vote_average"`
	Overview    string  `json:"overview,omitempty"`
}

func viewMovies(movies []catalog.Movie) []movieView {
	out := make([]movieView, 0, len(movies))
	for _, m := range movies {
		out = append(out, movieView{
			ID:          m.ID,
			Title:       m.Title,
			Year:        m.Year(),
			Label:       m.Label(),
			VoteAverage: m.VoteAverage,
			Overview:    m.Overview,
		})
	}
	return out
}

func newSearchCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "search <title>",
		Short: "Look up movies by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			movies, err := s.app.Catalog.SearchMovies(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("search %q: %w", query, err)
			}
			return s.emit(cmd, viewMovies(movies), func(w io.Writer) {
				printMovies(w, fmt.Sprintf("Results for %q", query), movies)
			})
		},
	}
}

func newTrendingCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "trending",
		Short: "Show this week's trending movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			movies, err := s.app.Catalog.Trending(cmd.Context())
			if err != nil {
				return fmt.Errorf("trending: %w", err)
			}
			return s.emit(cmd, viewMovies(movies), func(w io.Writer) {
				printMovies(w, "Trending this week", movies)
			})
		},
	}
}

func printMovies(w io.Writer, title string, movies []catalog.Movie) {
	fmt.Fprintln(w, TitleStyle.Render(title))
	if len(movies) == 0 {
		fmt.Fprintln(w, DimStyle.Render("  no movies found"))
		return
	}
	width := GetTerminalWidth()
	for i, m := range movies {
		line := fmt.Sprintf("%2d. %s", i+1, m.Label())
		if m.VoteAverage > 0 {
			line += DimStyle.Render(fmt.Sprintf("  ★ %.1f", m.VoteAverage))
		}
		fmt.Fprintln(w, line)
		if m.Overview != "" {
			fmt.Fprintln(w, DimStyle.Render("    "+util.TruncateWidth(util.SingleLine(m.Overview), width-6)))
		}
	}
}
