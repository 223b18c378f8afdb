// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/cinemate/internal/identity"
)

// identityView is the --json payload of the identity commands.
type identityView struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username"`
	Email         string `json:"email"`
}

func viewOf(r identity.Record) identityView {
	return identityView{Authenticated: r.Authenticated, Username: r.Username, Email: r.Email}
}

func newLoginCommand(s *state) *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in under a display name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			username = strings.TrimSpace(username)
			if username == "" {
				return usageErrorf("--username is required")
			}
			s.app.Session.SignIn(username, strings.TrimSpace(email))
			rec := s.app.Session.Snapshot()
			return s.emit(cmd, viewOf(rec), func(w io.Writer) {
				fmt.Fprintf(w, "%s Signed in as %s\n", SuccessStyle.Render("✓"), rec.Username)
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	return cmd
}

func newLogoutCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and reset the identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s.app.Session.SignOut()
			return s.emit(cmd, viewOf(s.app.Session.Snapshot()), func(w io.Writer) {
				fmt.Fprintf(w, "%s Signed out\n", SuccessStyle.Render("✓"))
			})
		},
	}
}

func newWhoamiCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec := s.app.Session.Snapshot()
			return s.emit(cmd, viewOf(rec), func(w io.Writer) {
				printIdentity(w, rec)
			})
		},
	}
}

func printIdentity(w io.Writer, rec identity.Record) {
	status := DimStyle.Render("not signed in")
	if rec.Authenticated {
		status = SuccessStyle.Render("signed in")
	}
	email := rec.Email
	if email == "" {
		email = DimStyle.Render("-")
	}
	fmt.Fprintf(w, "%s%s\n", LabelStyle.Render("Status"), status)
	fmt.Fprintf(w, "%s%s\n", LabelStyle.Render("Username"), rec.Username)
	fmt.Fprintf(w, "%s%s\n", LabelStyle.Render("Email"), email)
}
