// Package main implements a CLI tool that suggests reviewers for a GitHub
// pull request and optionally posts the suggestion as an idempotent comment.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/codeGROOVE-dev/review-suggester/pkg/github"
	"github.com/codeGROOVE-dev/review-suggester/pkg/suggest"
	"github.com/codeGROOVE-dev/review-suggester/pkg/types"

	"github.com/joho/godotenv"
)

var (
	prURL        = flag.String("pr", "", "Pull request URL (e.g., https://github.com/owner/repo/pull/123 or owner/repo#123)")
	post         = flag.Bool("post", false, "Post or update the suggestion comment on the PR")
	token        = flag.String("token", "", "GitHub token (default: GITHUB_TOKEN or gh auth token)")
	maxReviewers = flag.Int("max-reviewers", 5, "Maximum number of reviewers to suggest")
	samplePRs    = flag.Int("sample-prs", 20, "Closed PRs to sample for latency estimation (clamped to [5,50])")

	historyWeight = flag.Float64("history-weight", 1, "Weight for the commit-history signal")
	ownersWeight  = flag.Float64("owners-weight", 4, "Weight for the CODEOWNERS signal")
	latencyWeight = flag.Float64("latency-weight", 1, "Weight for the response-latency signal")

	verbose = flag.Bool("v", false, "Verbose output with detailed diagnostics")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -pr <PR_URL> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Suggests reviewers for a pull request by combining commit history,\n")
		fmt.Fprintf(os.Stderr, "CODEOWNERS rules, and reviewer response latency.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -pr https://github.com/owner/repo/pull/123\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -pr owner/repo#123 -post\n", os.Args[0])
	}
	flag.Parse()

	if *prURL == "" {
		flag.Usage()
		os.Exit(1)
	}

	// Local development convenience; absence of a .env file is fine.
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded environment from .env")
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	ctx := context.Background()

	owner, repo, number, err := github.ParsePRURL(*prURL)
	if err != nil {
		slog.Error("Invalid PR reference", "error", err)
		os.Exit(1)
	}

	authToken := *token
	if authToken == "" {
		authToken = os.Getenv("GITHUB_TOKEN")
	}

	client, err := github.New(ctx, github.Config{
		Token:       authToken,
		HTTPTimeout: 30 * time.Second,
		CacheTTL:    24 * time.Hour,
	})
	if err != nil {
		slog.Error("Failed to create GitHub client", "error", err)
		slog.Info("Provide a token via -token, GITHUB_TOKEN, or gh auth login")
		os.Exit(1)
	}

	pr, err := client.PullRequest(ctx, owner, repo, number)
	if err != nil {
		slog.Error("Failed to fetch pull request", "error", err)
		os.Exit(1)
	}

	suggester := suggest.New(client, suggest.Config{
		MaxReviewers: *maxReviewers,
		SamplePRs:    *samplePRs,
		Weights: types.Weights{
			CommitHistory: *historyWeight,
			Codeowners:    *ownersWeight,
			Latency:       *latencyWeight,
		},
	})

	result, err := suggester.Suggest(ctx, pr)
	if err != nil {
		slog.Error("Failed to compute suggestions", "error", err)
		os.Exit(1)
	}

	fmt.Println(result.Body)

	if *post {
		if err := client.UpsertComment(ctx, owner, repo, number, suggest.Marker, result.Body); err != nil {
			slog.Error("Failed to post comment", "error", err)
			os.Exit(1)
		}
	}
}
