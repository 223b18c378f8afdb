// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// CineMate is a terminal movie chat assistant backed by the Fireworks
// chat-completions API.
//
// Usage:
//
//	cinemate                  Start the chat (full screen on a terminal)
//	cinemate ask "question"   Ask once and print the reply
//	cinemate login -u NAME    Sign in
//	cinemate search TITLE     Look up movies
//	cinemate config show      Print the effective configuration
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/cinemate/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		// A second signal gets the default behavior and ends the process.
		<-ctx.Done()
		stop()
	}()
	code := cli.Execute(ctx, versionString(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func versionString() string {
	if GitCommit == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (%s, built %s)", Version, GitCommit, BuildDate)
}
