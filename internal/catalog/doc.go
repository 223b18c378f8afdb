// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog looks up movies in The Movie Database (TMDB).
//
// Requests are paced by a token-bucket limiter so interactive search never
// trips the service's per-key quota.
package catalog
