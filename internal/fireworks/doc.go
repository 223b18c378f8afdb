// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fireworks is a minimal client for the Fireworks AI
// OpenAI-compatible chat completions endpoint.
//
// # Key Types
//
//   - Client: HTTP client bound to one API key and model
//   - ChatMessage: a role/content pair
//   - ChatRequest, ChatResponse: wire formats for /chat/completions
//   - APIError: non-2xx response from the service
//
// # Usage
//
//	client := fireworks.NewClient(apiKey, fireworks.WithModel(model))
//	resp, err := client.Complete(ctx, []fireworks.ChatMessage{
//	    fireworks.NewSystemMessage("You are a movie assistant."),
//	    fireworks.NewUserMessage("Recommend a heist film"),
//	})
//	text, ok := resp.Content()
//
// # Errors
//
// Complete performs exactly one HTTP round trip; it never retries. Failures
// are classified so callers can decide how to degrade:
//
//   - ErrTransport: the request could not be sent or the body not read
//   - ErrMalformedResponse: the body was not the expected JSON
//   - *APIError: the service answered with a non-2xx status
//
// API keys are never logged. A short SHA-256 fingerprint identifies the key
// in diagnostics.
package fireworks
