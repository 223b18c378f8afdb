// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// =============================================================================
// CONSTANTS & ERRORS
// =============================================================================

const (
	// DefaultBaseURL is the TMDB v3 API root.
	DefaultBaseURL = "https://api.themoviedb.org/3"

	// DefaultRequestsPerSecond paces outbound calls.
	DefaultRequestsPerSecond = 4.0

	// DefaultTimeout bounds one request.
	DefaultTimeout = 15 * time.Second

	// MaxResponseSize is the largest response body that will be read.
	MaxResponseSize = 2 * 1024 * 1024

	// MaxResults caps how many movies a lookup returns.
	MaxResults = 10
)

var (
	// ErrNotConfigured indicates the TMDB key is empty.
	ErrNotConfigured = errors.New("tmdb API key not configured")

	// ErrEmptyQuery indicates a blank search.
	ErrEmptyQuery = errors.New("search query is empty")

	// ErrRequestFailed wraps non-2xx answers.
	ErrRequestFailed = errors.New("tmdb request failed")
)

// =============================================================================
// TYPES
// =============================================================================

// Movie is one catalog entry.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	VoteAverage float64 `json:"vote_average"`
}

// Year returns the four-digit release year, or "" when unknown.
func (m Movie) Year() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	return m.ReleaseDate[:4]
}

// Label renders the movie as "Title (Year)", the same shape the assistant
// is asked to use.
func (m Movie) Label() string {
	if y := m.Year(); y != "" {
		return fmt.Sprintf("%s (%s)", m.Title, y)
	}
	return m.Title
}

type pageResponse struct {
	Page    int     `json:"page"`
	Results []Movie `json:"results"`
}

type statusResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithRateLimit sets requests per second. Values <= 0 disable pacing.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a catalog client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("catalog")
	return c
}

// IsConfigured reports whether an API key is set.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// SearchMovies returns movies matching query, best match first.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	return c.fetch(ctx, "/search/movie", params)
}

// Trending returns this week's trending movies.
func (c *Client) Trending(ctx context.Context) ([]Movie, error) {
	return c.fetch(ctx, "/trending/movie/week", url.Values{})
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]Movie, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params.Set("api_key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = stripURL(err)
		c.logger.Warn("catalog request failed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeds %d bytes", MaxResponseSize)
	}

	c.logger.Debug("catalog request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var status statusResponse
		if json.Unmarshal(body, &status) == nil && status.StatusMessage != "" {
			return nil, fmt.Errorf("%w: %d %s", ErrRequestFailed, resp.StatusCode, status.StatusMessage)
		}
		return nil, fmt.Errorf("%w: %d", ErrRequestFailed, resp.StatusCode)
	}

	var page pageResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(page.Results) > MaxResults {
		page.Results = page.Results[:MaxResults]
	}
	return page.Results, nil
}

// stripURL drops the request URL from a transport error. The URL carries
// the API key in its query.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
