// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"net"

	"github.com/jeranaias/cinemate/internal/catalog"
	"github.com/jeranaias/cinemate/internal/config"
	"github.com/jeranaias/cinemate/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates network or connectivity error
	ExitNetworkError = 5
)

// UsageError is a bad flag or argument.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	return e.Reason
}

func usageErrorf(format string, args ...interface{}) error {
	return &UsageError{Reason: fmt.Sprintf(format, args...)}
}

// GetExitCode maps an error to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsageError
	}

	var verrs config.ValidateErrors
	if errors.As(err, &verrs) ||
		errors.Is(err, storage.ErrUnknownBackend) ||
		errors.Is(err, catalog.ErrNotConfigured) {
		return ExitConfigError
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, catalog.ErrRequestFailed) {
		return ExitNetworkError
	}

	return ExitGeneralError
}
