package github

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/review-suggester/pkg/types"
)

const (
	perPageMax      = 100
	changedFilesCap = 300 // Hard bound on paginated changed-file fetching
)

// ParsePRURL extracts owner, repo, and number from a PR reference in either
// full-URL form (https://github.com/owner/repo/pull/123) or short form
// (owner/repo#123).
func ParsePRURL(ref string) (owner, repo string, number int, err error) {
	if strings.Contains(ref, "github.com") {
		parts := strings.Split(ref, "/")
		const minParts = 7
		if len(parts) < minParts {
			return "", "", 0, fmt.Errorf("invalid GitHub PR URL format: %s", ref)
		}
		number, err = strconv.Atoi(strings.TrimSuffix(parts[6], "/"))
		if err != nil {
			return "", "", 0, fmt.Errorf("invalid PR number in URL: %s", ref)
		}
		return parts[3], parts[4], number, nil
	}

	slash := strings.Index(ref, "/")
	hash := strings.Index(ref, "#")
	if slash < 1 || hash < slash+2 || hash == len(ref)-1 {
		return "", "", 0, fmt.Errorf("invalid PR reference (want owner/repo#123): %s", ref)
	}
	number, err = strconv.Atoi(ref[hash+1:])
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid PR number in reference: %s", ref)
	}
	return ref[:slash], ref[slash+1 : hash], number, nil
}

// PullRequest fetches a pull request's metadata.
func (c *Client) PullRequest(ctx context.Context, owner, repo string, number int) (*types.PullRequest, error) {
	var raw struct {
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
		Title     string    `json:"title"`
		State     string    `json:"state"`
		User      struct {
			Login string `json:"login"`
		} `json:"user"`
		RequestedReviewers []struct {
			Login string `json:"login"`
		} `json:"requested_reviewers"`
		Number int  `json:"number"`
		Draft  bool `json:"draft"`
	}
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", apiBase, owner, repo, number)
	if err := c.getJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch PR %s/%s#%d: %w", owner, repo, number, err)
	}

	pr := &types.PullRequest{
		CreatedAt:  raw.CreatedAt,
		UpdatedAt:  raw.UpdatedAt,
		Title:      raw.Title,
		State:      raw.State,
		Author:     raw.User.Login,
		Repository: repo,
		Owner:      owner,
		Number:     raw.Number,
		Draft:      raw.Draft,
	}
	for _, r := range raw.RequestedReviewers {
		pr.Reviewers = append(pr.Reviewers, r.Login)
	}
	return pr, nil
}

// ChangedFiles lists the paths touched by a pull request, paginating up to
// a hard bound so one enormous PR cannot dominate a run.
func (c *Client) ChangedFiles(ctx context.Context, owner, repo string, number int) ([]string, error) {
	var files []string
	for page := 1; len(files) < changedFilesCap; page++ {
		var raw []struct {
			Filename string `json:"filename"`
		}
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=%d&page=%d", apiBase, owner, repo, number, perPageMax, page)
		if err := c.getJSON(ctx, url, &raw); err != nil {
			return nil, fmt.Errorf("failed to fetch changed files: %w", err)
		}
		for _, f := range raw {
			files = append(files, f.Filename)
		}
		if len(raw) < perPageMax {
			break
		}
	}
	return files, nil
}

// OpenPullRequestsForOrg lists open pull requests across an organization via
// the search API. Used by the bot's polling sweep.
func (c *Client) OpenPullRequestsForOrg(ctx context.Context, org string) ([]*types.PullRequest, error) {
	var raw struct {
		Items []struct {
			RepositoryURL string `json:"repository_url"`
			Number        int    `json:"number"`
		} `json:"items"`
	}
	url := fmt.Sprintf("%s/search/issues?q=is:pr+is:open+org:%s&per_page=%d", apiBase, org, perPageMax)
	if err := c.getJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("failed to search open PRs for %s: %w", org, err)
	}

	prs := make([]*types.PullRequest, 0, len(raw.Items))
	for _, item := range raw.Items {
		// repository_url format: https://api.github.com/repos/owner/repo
		parts := strings.Split(item.RepositoryURL, "/")
		if len(parts) < 2 {
			continue
		}
		owner := parts[len(parts)-2]
		repo := parts[len(parts)-1]

		pr, err := c.PullRequest(ctx, owner, repo, item.Number)
		if err != nil {
			// One broken PR never aborts the sweep.
			continue
		}
		prs = append(prs, pr)
	}
	return prs, nil
}
