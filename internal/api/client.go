// Package api talks to the knowledge-base REST API. It implements
// kb.Client: a thin authenticated GET wrapper with status classification
// plus typed endpoints for the article tree.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kbdump/internal/kb"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultPageSize = 100
	defaultMaxPages = 1000
)

// Options are the construction parameters for a Client.
type Options struct {
	// BaseURL is the API root, e.g. "https://tracker.example.com/api".
	// A trailing slash is stripped.
	BaseURL string

	// Token is the permanent bearer token, passed through verbatim in the
	// Authorization header.
	Token string

	// Timeout applies per request. Zero selects 30s.
	Timeout time.Duration

	// PageSize is the $top value for paginated listings. Zero selects 100.
	PageSize int

	// MaxPages caps pagination so a server that never shrinks its pages
	// cannot livelock a run. Zero selects 1000.
	MaxPages int

	// Logger receives the warnings for recoverable response statuses.
	// Nil selects a no-op logger.
	Logger kb.Logger
}

// Client issues authenticated requests against one API root.
// Every call is a single attempt; there is no retry or backoff.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	logger   kb.Logger
	pageSize int
	maxPages int
}

// New creates a Client from the given options.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = defaultMaxPages
	}
	if opts.Logger == nil {
		opts.Logger = kb.NewNopLogger()
	}

	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		token:    opts.Token,
		http:     &http.Client{Timeout: opts.Timeout},
		logger:   opts.Logger,
		pageSize: opts.PageSize,
		maxPages: opts.MaxPages,
	}, nil
}

// get issues one authenticated GET for a path relative to the API root and
// classifies the response:
//
//	200        → body bytes
//	401        → kb.ErrUnauthorized (fatal for the whole run)
//	404        → (nil, nil): the resource has none, callers use a default
//	other      → (nil, nil) with a warning: resource treated as unavailable
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, c.baseURL+"/"+strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading response for %s: %w", path, err)
		}
		return body, nil
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("GET %s: %w", path, kb.ErrUnauthorized)
	case http.StatusNotFound:
		c.logger.Warn("resource not found, treating as empty", "path", path)
		return nil, nil
	default:
		c.logger.Warn("unexpected response, treating resource as unavailable",
			"path", path, "status", resp.Status)
		return nil, nil
	}
}

// do builds and sends one authenticated request to an absolute URL.
func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	return resp, nil
}

// resolveURL turns an attachment URL into an absolute one. Relative URLs
// are joined to the base URL with any duplicate leading slash stripped.
func (c *Client) resolveURL(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return c.baseURL + "/" + strings.TrimLeft(raw, "/")
}
