// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import "github.com/jeranaias/cinemate/internal/fireworks"

// Name is the speaker on every assistant entry.
const Name = "CineMate AI"

// DefaultSpeaker labels the user's entries when no display name is known.
const DefaultSpeaker = "You"

// Fixed text shown to the user.
const (
	GreetingMessage        = "Hey there! 🎬 I'm CineMate — your friendly movie assistant. Ask me anything about films, actors, or get tailored recommendations!"
	NoResponseMessage      = "No response from CineMate AI."
	ConnectionIssueMessage = "Oops! I ran into a connection issue. Try again later."
)

// SystemPrompt establishes the assistant's persona.
const SystemPrompt = "You are CineMate AI — a smart movie assistant that helps users find, rate, and discover films easily."

// Directive is placed before the user's text in the user message.
const Directive = `You are chatting inside CineMate, a movie discussion app.
Answer the user's message below in a friendly, concise way.
Stay on the topic of films, series, actors and directors.
When you mention a movie, write its release year in parentheses, e.g. Inception (2010).
If the user asks for recommendations, suggest at most five titles with one line each.`

// BuildMessages returns the two-message conversation sent for text: the
// system persona, then the directive and the user's text joined by a
// newline.
func BuildMessages(text string) []fireworks.ChatMessage {
	return []fireworks.ChatMessage{
		fireworks.NewSystemMessage(SystemPrompt),
		fireworks.NewUserMessage(Directive + "\n" + text),
	}
}
