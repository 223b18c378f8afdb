// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the colors and Lip Gloss styles of the cinemate
// chat screen. All colors are AdaptiveColor so light and dark terminals both
// read well.
package styles
