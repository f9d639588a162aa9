package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// UpsertComment posts body as an issue comment, or updates the existing
// comment containing marker if one is already present. The marker keeps the
// operation idempotent: rerunning the suggester edits one comment in place
// instead of stacking duplicates.
func (c *Client) UpsertComment(ctx context.Context, owner, repo string, number int, marker, body string) error {
	existingID, err := c.findMarkedComment(ctx, owner, repo, number, marker)
	if err != nil {
		return err
	}

	payload := map[string]string{"body": body}

	if existingID != 0 {
		url := fmt.Sprintf("%s/repos/%s/%s/issues/comments/%d", apiBase, owner, repo, existingID)
		resp, err := c.doRequest(ctx, httpMethodPatch, url, payload)
		if err != nil {
			return fmt.Errorf("failed to update comment: %w", err)
		}
		drainAndCloseBody(resp.Body)
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d updating comment %d", resp.StatusCode, existingID)
		}
		slog.Info("Updated suggestion comment", "repo", repo, "pr", number, "comment_id", existingID)
		return nil
	}

	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", apiBase, owner, repo, number)
	resp, err := c.doRequest(ctx, httpMethodPost, url, payload)
	if err != nil {
		return fmt.Errorf("failed to post comment: %w", err)
	}
	drainAndCloseBody(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status %d posting comment", resp.StatusCode)
	}
	slog.Info("Posted suggestion comment", "repo", repo, "pr", number)
	return nil
}

// findMarkedComment returns the ID of the first comment containing marker,
// or 0 when none exists.
func (c *Client) findMarkedComment(ctx context.Context, owner, repo string, number int, marker string) (int64, error) {
	for page := 1; ; page++ {
		var comments []struct {
			Body string `json:"body"`
			ID   int64  `json:"id"`
		}
		url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments?per_page=%d&page=%d",
			apiBase, owner, repo, number, perPageMax, page)
		if err := c.getJSON(ctx, url, &comments); err != nil {
			return 0, fmt.Errorf("failed to list comments: %w", err)
		}

		for _, comment := range comments {
			if strings.Contains(comment.Body, marker) {
				return comment.ID, nil
			}
		}
		if len(comments) < perPageMax {
			return 0, nil
		}
	}
}
