// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen chat view.
//
// The view owns no conversation state of its own: it renders the assistant's
// log, forwards submissions to it, and re-renders whenever the log reports a
// change.
//
// # Usage
//
//	m := chat.New(chat.Deps{
//	    Assistant: a,
//	    Session:   session,
//	    Catalog:   tmdb,
//	    Models:    fw,
//	})
//	p := tea.NewProgram(m, tea.WithAltScreen())
//	_, err := p.Run()
//
// Config reloads reach a running program as ModelChangedMsg via p.Send.
package chat
