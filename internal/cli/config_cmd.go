// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/cinemate/internal/config"
)

func newConfigCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or change configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration (keys redacted)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return s.emit(cmd, s.app.Config.Redacted(), func(w io.Writer) {
					fmt.Fprint(w, s.app.Config.String())
				})
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return s.emit(cmd, map[string]string{"path": s.app.ConfigPath}, func(w io.Writer) {
					fmt.Fprintln(w, s.app.ConfigPath)
				})
			},
		},
		&cobra.Command{
			Use:       "get <key>",
			Short:     "Print one setting",
			Args:      cobra.ExactArgs(1),
			ValidArgs: config.Keys(),
			RunE: func(cmd *cobra.Command, args []string) error {
				value, err := s.app.Config.Redacted().Get(args[0])
				if err != nil {
					return usageErrorf("%v", err)
				}
				return s.emit(cmd, map[string]interface{}{"key": args[0], "value": value}, func(w io.Writer) {
					fmt.Fprintln(w, value)
				})
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one setting in the config file",
			Long: "Change one setting in the config file.\n\nKeys:\n  " +
				strings.Join(config.Keys(), "\n  "),
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := s.app.ConfigPath
				if path == "" {
					return fmt.Errorf("no config path available")
				}
				cfg, err := readConfigFile(path)
				if err != nil {
					return err
				}
				if err := cfg.Set(args[0], args[1]); err != nil {
					return usageErrorf("%v", err)
				}
				cfg.SetDefaults()
				if err := cfg.Validate(); err != nil {
					return err
				}
				if err := config.Save(cfg, path); err != nil {
					return err
				}
				return s.emit(cmd, map[string]string{"key": args[0], "path": path}, func(w io.Writer) {
					fmt.Fprintf(w, "%s %s updated in %s\n", SuccessStyle.Render("✓"), args[0], path)
				})
			},
		},
	)
	return cmd
}

// readConfigFile loads path without environment overrides so that saving
// never copies them into the file.
func readConfigFile(path string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); err != nil {
		return cfg, nil
	}
	if strings.HasSuffix(path, ".json") {
		return cfg, config.LoadJSON(cfg, path)
	}
	return cfg, config.LoadTOML(cfg, path)
}
