// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"encoding/json"
	"errors"

	"github.com/jeranaias/cinemate/internal/fireworks"
)

// FailureKind classifies why a reply has no model text.
type FailureKind int

const (
	FailureNone      FailureKind = iota // model text obtained
	FailureTransport                    // request not sent or response not read
	FailureMalformed                    // body was not the expected JSON
	FailureNoContent                    // valid JSON without a first choice's content
)

// String returns a short name for the kind.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureTransport:
		return "transport"
	case FailureMalformed:
		return "malformed"
	case FailureNoContent:
		return "no-content"
	default:
		return "unknown"
	}
}

// Reply is the outcome of one completion attempt. Text is always the string
// to show the user, placeholder included.
type Reply struct {
	Text string
	Kind FailureKind
	Err  error
}

// OK reports whether Text came from the model.
func (r Reply) OK() bool {
	return r.Kind == FailureNone
}

// Classify maps a completion error to a FailureKind.
//
// A non-2xx answer whose body is JSON is treated like any other JSON body
// without choices. Anything else that is not a parse failure counts as a
// transport failure.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	if errors.Is(err, fireworks.ErrMalformedResponse) {
		return FailureMalformed
	}
	var apiErr *fireworks.APIError
	if errors.As(err, &apiErr) {
		if json.Valid(apiErr.Body) {
			return FailureNoContent
		}
		return FailureMalformed
	}
	return FailureTransport
}

// Degrade returns the text shown for a reply of the given kind. content is
// used only for FailureNone.
func Degrade(kind FailureKind, content string) string {
	switch kind {
	case FailureNone:
		return content
	case FailureNoContent:
		return NoResponseMessage
	default:
		return ConnectionIssueMessage
	}
}

func success(text string) Reply {
	return Reply{Text: text, Kind: FailureNone}
}

func failure(kind FailureKind, err error) Reply {
	return Reply{Text: Degrade(kind, ""), Kind: kind, Err: err}
}
