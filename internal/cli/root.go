// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// state is shared by the command tree of one invocation.
type state struct {
	flags GlobalFlags
	app   *App
}

// NewRootCommand builds the cinemate command tree.
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(version, &state{})
}

func newRootCommand(version string, s *state) *cobra.Command {
	root := &cobra.Command{
		Use:   "cinemate",
		Short: "CineMate - your movie recommendation chat assistant",
		Long: `CineMate is a conversational movie assistant.

Ask for recommendations in plain language and get titles back as
"Title (Year)". Run without arguments to open the chat screen.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			fullScreen := cmd == cmd.Root() && Interactive()
			app, err := NewApp(s.flags, !fullScreen)
			if err != nil {
				return err
			}
			s.app = app
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if Interactive() {
				return runTUI(cmd.Context(), s.app)
			}
			return runLineMode(cmd.Context(), s.app, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Reason: err.Error()}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&s.flags.ConfigPath, "config", "", "config file (default ~/.cinemate/config.toml)")
	pf.StringVar(&s.flags.Storage, "storage", "", "identity storage backend: file, sqlite, memory")
	pf.BoolVar(&s.flags.Ephemeral, "ephemeral", false, "keep identity in memory only")
	pf.BoolVarP(&s.flags.Verbose, "verbose", "v", false, "debug logging")
	pf.BoolVar(&s.flags.JSON, "json", false, "machine-readable output")

	root.AddCommand(
		newChatCommand(s),
		newAskCommand(s),
		newLoginCommand(s),
		newLogoutCommand(s),
		newWhoamiCommand(s),
		newSearchCommand(s),
		newTrendingCommand(s),
		newConfigCommand(s),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, version string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	s := &state{}
	root := newRootCommand(version, s)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if s.app != nil {
		if cerr := s.app.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err == nil {
		return ExitSuccess
	}

	if s.flags.JSON {
		_ = NewJSONErrorResponse(root.Name(), err).Write(stdout)
	} else {
		fmt.Fprintf(stderr, "%s %v\n", ErrorStyle.Render("[ERROR]"), err)
	}
	return GetExitCode(err)
}

// emit prints data as a JSON envelope in --json mode, otherwise calls human.
func (s *state) emit(cmd *cobra.Command, data interface{}, human func(w io.Writer)) error {
	if s.flags.JSON {
		return NewJSONResponse(cmd.CommandPath(), data).Write(cmd.OutOrStdout())
	}
	human(cmd.OutOrStdout())
	return nil
}
