package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/review-suggester/pkg/suggest"
	"github.com/codeGROOVE-dev/review-suggester/pkg/types"
)

const (
	perFileCommitLimit  = 10 // Authors fetched per changed file
	fileHistoryCacheTTL = 6 * time.Hour
	codeownersCacheTTL  = 6 * time.Hour
	reviewSampleTTL     = 30 * time.Minute
)

// codeownersLocations are the conventional CODEOWNERS paths, in lookup order.
var codeownersLocations = []string{".github/CODEOWNERS", "CODEOWNERS", "docs/CODEOWNERS"}

// FileContributors lists recent non-bot commit authors for one path, most
// recent first, deduplicated.
func (c *Client) FileContributors(ctx context.Context, owner, repo, path string) ([]string, error) {
	cacheKey := makeCacheKey("file-contributors", owner, repo, path)
	if cached, found := c.cache.Get(cacheKey); found {
		if authors, ok := cached.([]string); ok {
			return authors, nil
		}
	}

	var raw []struct {
		Author *struct {
			Login string `json:"login"`
		} `json:"author"`
	}
	reqURL := fmt.Sprintf("%s/repos/%s/%s/commits?path=%s&per_page=%d",
		apiBase, owner, repo, url.QueryEscape(path), perFileCommitLimit)
	if err := c.getJSON(ctx, reqURL, &raw); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch commits for %s: %w", path, err)
	}

	seen := make(map[string]bool)
	var authors []string
	for _, commit := range raw {
		if commit.Author == nil {
			continue
		}
		login := commit.Author.Login
		if login == "" || seen[login] || suggest.IsBotLogin(login) {
			continue
		}
		seen[login] = true
		authors = append(authors, login)
	}

	c.cache.SetWithTTL(cacheKey, authors, fileHistoryCacheTTL)
	return authors, nil
}

// OwnershipRuleText fetches the repository's CODEOWNERS content, trying the
// conventional locations in order. A repository without one yields "" and
// no error — absence is zero signal, not a failure.
func (c *Client) OwnershipRuleText(ctx context.Context, owner, repo string) (string, error) {
	cacheKey := makeCacheKey("codeowners", owner, repo)
	if cached, found := c.cache.Get(cacheKey); found {
		if text, ok := cached.(string); ok {
			return text, nil
		}
	}

	for _, location := range codeownersLocations {
		text, err := c.fileContent(ctx, owner, repo, location)
		if errors.Is(err, errNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to fetch %s: %w", location, err)
		}
		slog.Debug("Found CODEOWNERS", "repo", repo, "location", location)
		c.cache.SetWithTTL(cacheKey, text, codeownersCacheTTL)
		return text, nil
	}

	c.cache.SetWithTTL(cacheKey, "", codeownersCacheTTL)
	return "", nil
}

// fileContent fetches one file's decoded content via the contents API.
func (c *Client) fileContent(ctx context.Context, owner, repo, path string) (string, error) {
	var raw struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	reqURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s", apiBase, owner, repo, path)
	if err := c.getJSON(ctx, reqURL, &raw); err != nil {
		return "", err
	}

	if raw.Encoding != "base64" {
		return raw.Content, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(raw.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("failed to decode %s content: %w", path, err)
	}
	return string(decoded), nil
}

// ReviewSamples returns up to limit recently closed pull requests with
// their review events, newest first. Review-fetch failures for individual
// PRs degrade to samples without events rather than failing the batch.
func (c *Client) ReviewSamples(ctx context.Context, owner, repo string, limit int) ([]types.ReviewSample, error) {
	cacheKey := makeCacheKey("review-samples", owner, repo, limit)
	if cached, found := c.cache.Get(cacheKey); found {
		if samples, ok := cached.([]types.ReviewSample); ok {
			return samples, nil
		}
	}

	var closed []struct {
		CreatedAt time.Time `json:"created_at"`
		Number    int       `json:"number"`
	}
	reqURL := fmt.Sprintf("%s/repos/%s/%s/pulls?state=closed&sort=updated&direction=desc&per_page=%d",
		apiBase, owner, repo, limit)
	if err := c.getJSON(ctx, reqURL, &closed); err != nil {
		return nil, fmt.Errorf("failed to list closed PRs: %w", err)
	}

	samples := make([]types.ReviewSample, 0, len(closed))
	for _, pr := range closed {
		events, err := c.reviewEvents(ctx, owner, repo, pr.Number)
		if err != nil {
			slog.Warn("Failed to fetch reviews (continuing)", "repo", repo, "pr", pr.Number, "error", err)
		}
		samples = append(samples, types.ReviewSample{CreatedAt: pr.CreatedAt, Events: events})
	}

	c.cache.SetWithTTL(cacheKey, samples, reviewSampleTTL)
	return samples, nil
}

// reviewEvents fetches the review submissions for one pull request.
func (c *Client) reviewEvents(ctx context.Context, owner, repo string, number int) ([]types.ReviewEvent, error) {
	var raw []struct {
		SubmittedAt *time.Time `json:"submitted_at"`
		User        *struct {
			Login string `json:"login"`
		} `json:"user"`
	}
	reqURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews?per_page=%d", apiBase, owner, repo, number, perPageMax)
	if err := c.getJSON(ctx, reqURL, &raw); err != nil {
		return nil, err
	}

	events := make([]types.ReviewEvent, 0, len(raw))
	for _, review := range raw {
		if review.User == nil {
			continue
		}
		events = append(events, types.ReviewEvent{
			Reviewer:    review.User.Login,
			SubmittedAt: review.SubmittedAt,
		})
	}
	return events, nil
}
