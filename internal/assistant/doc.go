// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant implements CineMate's chat assistant: an append-only
// conversation log and the request/response cycle around one completion
// call per user message.
//
// # Key Types
//
//   - Entry, Payload: one immutable chat turn
//   - Log: ordered, append-only sequence of entries
//   - Assistant: accepts submissions and appends replies
//   - Pending: handle to the single in-flight request
//   - Reply: outcome of one completion attempt
//
// # Submission Cycle
//
// Submit appends the user's entry synchronously, then resolves the reply on
// its own goroutine and appends exactly one assistant entry when the request
// settles, whether it succeeded or not. Only one request may be outstanding;
// Submit returns ErrBusy while one is. Blank input returns ErrEmptyPrompt.
// Neither rejection touches the log.
//
//	a := assistant.New(client, session)
//	a.Greet()
//	p, err := a.Submit(ctx, "Something like Heat, but newer?")
//	if err == nil {
//	    reply := p.Wait()
//	}
//
// # Failure Policy
//
// Ask never returns an error. Transport failures, unreadable bodies and
// replies without content are classified and turned into fixed placeholder
// text by Degrade, and logged.
package assistant
