// Package github implements the signal-collection boundary against the
// GitHub REST API: changed files, per-file commit authors, CODEOWNERS
// content, review-latency samples, and the idempotent suggestion comment.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/review-suggester/pkg/cache"

	"github.com/codeGROOVE-dev/retry"
)

const (
	apiBase = "https://api.github.com"

	maxRetryAttempts  = 4
	initialRetryDelay = 500 * time.Millisecond
	maxRetryDelay     = 10 * time.Second

	httpMethodGet   = "GET"
	httpMethodPost  = "POST"
	httpMethodPatch = "PATCH"
)

// Client handles all GitHub API interactions.
type Client struct {
	httpClient         *http.Client
	cache              *cache.Cache
	installationTokens map[string]string
	installationExpiry map[string]time.Time
	installationIDs    map[string]int64
	appID              string
	token              string
	currentOrg         string
	privateKey         []byte
	jwtExpiry          time.Time
	tokenMutex         sync.RWMutex
	isAppAuth          bool
}

// Config holds configuration for creating a new client.
type Config struct {
	AppID       string
	AppKeyPath  string
	Token       string // Personal access token (for non-app auth)
	HTTPTimeout time.Duration
	CacheTTL    time.Duration
	UseAppAuth  bool
}

// New creates a GitHub API client using personal-token or App authentication.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.UseAppAuth {
		return newAppAuthClient(ctx, cfg)
	}
	return newPersonalTokenClient(ctx, cfg)
}

// SetCurrentOrg sets the organization whose installation token should
// authenticate subsequent requests. Only meaningful for App auth.
func (c *Client) SetCurrentOrg(org string) {
	c.tokenMutex.Lock()
	defer c.tokenMutex.Unlock()
	c.currentOrg = org
}

// Token returns the token a sibling service (e.g. sprinkler) should use.
// For App auth with a current org set, that is the installation token.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.tokenMutex.RLock()
	org := c.currentOrg
	appAuth := c.isAppAuth
	c.tokenMutex.RUnlock()

	if appAuth && org != "" {
		return c.installationToken(ctx, org)
	}

	c.tokenMutex.RLock()
	defer c.tokenMutex.RUnlock()
	return c.token, nil
}

// doRequest makes one authenticated API request with retry and backoff.
func (c *Client) doRequest(ctx context.Context, method, apiURL string, body any) (*http.Response, error) {
	if c.isAppAuth {
		if err := c.refreshJWTIfNeeded(); err != nil {
			return nil, fmt.Errorf("failed to refresh JWT: %w", err)
		}
	}

	slog.Debug("HTTP request", "component", "http", "method", method, "url", sanitizeURLForLogging(apiURL))

	var resp *http.Response
	err := retry.Do(
		func() error {
			var bodyReader io.Reader
			if body != nil {
				payload, err := json.Marshal(body)
				if err != nil {
					return fmt.Errorf("failed to marshal request body: %w", err)
				}
				bodyReader = bytes.NewReader(payload)
			}

			req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}

			token, err := c.authToken(ctx, apiURL)
			if err != nil {
				return err
			}
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Accept", "application/vnd.github+json")
			if body != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			r, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}

			// Retry on server errors and secondary rate limits.
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				drainAndCloseBody(r.Body)
				return fmt.Errorf("server returned status %d", r.StatusCode)
			}

			resp = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(maxRetryAttempts),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.Delay(initialRetryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("Retrying request", "component", "http", "attempt", n+1, "url", sanitizeURLForLogging(apiURL), "error", err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// getJSON performs a GET and decodes the JSON response into out.
// A 404 returns errNotFound so callers can treat absence as empty signal.
func (c *Client) getJSON(ctx context.Context, apiURL string, out any) error {
	resp, err := c.doRequest(ctx, httpMethodGet, apiURL, nil)
	if err != nil {
		return err
	}
	defer drainAndCloseBody(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, sanitizeURLForLogging(apiURL))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// jsonDecode decodes a JSON stream into out with a wrapped error.
func jsonDecode(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// drainAndCloseBody drains and closes a response body to keep connections reusable.
func drainAndCloseBody(body io.ReadCloser) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		slog.Warn("Failed to drain response body", "error", err)
	}
	if err := body.Close(); err != nil {
		slog.Warn("Failed to close response body", "error", err)
	}
}

// sanitizeURLForLogging strips query parameters, which may carry tokens.
func sanitizeURLForLogging(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "<unparseable>"
	}
	u.RawQuery = ""
	return u.String()
}

// makeCacheKey builds a stable cache key from its parts.
func makeCacheKey(parts ...any) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(':')
		}
		fmt.Fprintf(&b, "%v", p)
	}
	return b.String()
}
