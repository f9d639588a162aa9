// Package main implements a GitHub App bot that posts reviewer-suggestion
// comments on open pull requests across all installed organizations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/review-suggester/pkg/github"
	"github.com/codeGROOVE-dev/review-suggester/pkg/suggest"
	"github.com/codeGROOVE-dev/review-suggester/pkg/types"
)

var (
	// GitHub App authentication flags.
	appID      = flag.String("app-id", "", "GitHub App ID for authentication")
	appKeyPath = flag.String("app-key-path", "", "Path to GitHub App private key file")

	// Behavior flags.
	loopDelay = flag.Duration("loop-delay", 15*time.Minute, "Delay between polling sweeps")
	dryRun    = flag.Bool("dry-run", false, "Run in dry-run mode (no comments posted)")
	samplePRs = flag.Int("sample-prs", 20, "Closed PRs to sample for latency estimation (clamped to [5,50])")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "GitHub App bot that posts reviewer-suggestion comments on open PRs.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  GITHUB_APP_ID        - GitHub App ID\n")
		fmt.Fprintf(os.Stderr, "  GITHUB_APP_KEY       - GitHub App private key content (PEM)\n")
		fmt.Fprintf(os.Stderr, "  GITHUB_APP_KEY_PATH  - Path to GitHub App private key file\n")
		fmt.Fprintf(os.Stderr, "  PORT                 - HTTP server port (default: 8080)\n")
	}
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	ctx := context.Background()

	client, err := github.New(ctx, github.Config{
		UseAppAuth:  true,
		AppID:       *appID,
		AppKeyPath:  *appKeyPath,
		HTTPTimeout: 30 * time.Second,
		CacheTTL:    24 * time.Hour,
	})
	if err != nil {
		slog.Error("Failed to create GitHub client", "error", err)
		os.Exit(1)
	}

	bot := &Bot{
		client:    client,
		suggester: suggest.New(client, suggest.Config{SamplePRs: *samplePRs}),
		monitors:  make(map[string]*sprinklerMonitor),
		metrics:   newMetricsCollector(),
		dryRun:    *dryRun,
	}

	slog.Info("Starting in server mode", "loop_delay", *loopDelay)
	bot.run(ctx, *loopDelay)
}

// Bot posts suggestion comments across all installed organizations.
type Bot struct {
	client    *github.Client
	suggester *suggest.Suggester
	metrics   *metricsCollector
	monitors  map[string]*sprinklerMonitor
	dryRun    bool
}

// run starts the health server and sprinkler monitors, then alternates
// polling sweeps with sleep until the context is cancelled.
func (b *Bot) run(ctx context.Context, loopDelay time.Duration) {
	go b.startHealthServer(ctx)

	b.updateMonitors(ctx)
	defer func() {
		for org, monitor := range b.monitors {
			slog.Info("Stopping sprinkler monitor", "org", org)
			monitor.stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Context cancelled, shutting down")
			return
		default:
			start := time.Now()
			if err := b.processAllOrgs(ctx); err != nil {
				slog.Error("Polling sweep failed", "error", err)
			}
			b.updateMonitors(ctx)
			b.metrics.recordRun()
			slog.Info("Sweep completed", "duration", time.Since(start).Round(time.Second), "sleep", loopDelay)

			timer := time.NewTimer(loopDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}
}

// processAllOrgs sweeps every organization where the App is installed.
func (b *Bot) processAllOrgs(ctx context.Context) error {
	orgs, err := b.client.ListAppInstallations(ctx)
	if err != nil {
		return fmt.Errorf("failed to list app installations: %w", err)
	}
	if len(orgs) == 0 {
		slog.Info("No organization installations found")
		return nil
	}

	for _, org := range orgs {
		b.client.SetCurrentOrg(org)
		b.processOrg(ctx, org)
		b.client.SetCurrentOrg("")
		b.metrics.recordOrg(org)
	}
	return nil
}

// processOrg posts suggestions for every eligible open PR in one org.
func (b *Bot) processOrg(ctx context.Context, org string) {
	prs, err := b.client.OpenPullRequestsForOrg(ctx, org)
	if err != nil {
		slog.Warn("Failed to list open PRs for org", "org", org, "error", err)
		return
	}

	for _, pr := range prs {
		b.metrics.recordPRSeen(pr.Owner, pr.Repository, pr.Number)
		if b.processPR(ctx, pr) {
			b.metrics.recordPRCommented(pr.Owner, pr.Repository, pr.Number)
		}
	}
}

// processSinglePR fetches and processes one PR (used by sprinkler events).
func (b *Bot) processSinglePR(ctx context.Context, owner, repo string, number int) error {
	pr, err := b.client.PullRequest(ctx, owner, repo, number)
	if err != nil {
		return fmt.Errorf("failed to fetch PR: %w", err)
	}
	b.metrics.recordPRSeen(owner, repo, number)
	if b.processPR(ctx, pr) {
		b.metrics.recordPRCommented(owner, repo, number)
	}
	return nil
}

// processPR computes suggestions for one PR and upserts the comment.
// Returns true when a comment was posted or updated.
func (b *Bot) processPR(ctx context.Context, pr *types.PullRequest) bool {
	if pr.Draft {
		slog.Debug("Skipping draft PR", "pr", pr.Number, "repo", pr.Repository)
		return false
	}
	if pr.State != "open" {
		slog.Debug("Skipping non-open PR", "pr", pr.Number, "repo", pr.Repository, "state", pr.State)
		return false
	}

	result, err := b.suggester.Suggest(ctx, pr)
	if err != nil {
		slog.Warn("Failed to compute suggestions", "pr", pr.Number, "repo", pr.Repository, "error", err)
		return false
	}

	if b.dryRun {
		slog.Info("Would post suggestion (dry-run)",
			"pr", pr.Number,
			"repo", pr.Repository,
			"candidates", len(result.Candidates),
			"confidence", result.Confidence)
		return true
	}

	if err := b.client.UpsertComment(ctx, pr.Owner, pr.Repository, pr.Number, suggest.Marker, result.Body); err != nil {
		slog.Error("Failed to upsert comment", "pr", pr.Number, "repo", pr.Repository, "error", err)
		return false
	}
	return true
}

// updateMonitors reconciles sprinkler monitors with the current installation list.
func (b *Bot) updateMonitors(ctx context.Context) {
	orgs, err := b.client.ListAppInstallations(ctx)
	if err != nil {
		slog.Warn("Failed to list organizations for sprinkler update", "error", err)
		return
	}

	current := make(map[string]bool, len(orgs))
	for _, org := range orgs {
		current[org] = true
	}

	for org, monitor := range b.monitors {
		if !current[org] {
			slog.Info("Stopping sprinkler for removed org", "org", org)
			monitor.stop()
			delete(b.monitors, org)
		}
	}

	for _, org := range orgs {
		if _, exists := b.monitors[org]; exists {
			continue
		}
		monitor := newSprinklerMonitor(b, org)
		if err := monitor.start(ctx); err != nil {
			slog.Error("Failed to start sprinkler for org", "org", org, "error", err)
			continue
		}
		b.monitors[org] = monitor
		slog.Info("Started sprinkler monitor", "org", org)
	}
}

// startHealthServer serves the health endpoint with run metrics.
func (b *Bot) startHealthServer(_ context.Context) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/_-_/health", func(w http.ResponseWriter, _ *http.Request) {
		stats := b.metrics.stats()

		status := "ok"
		statusCode := http.StatusOK
		if stats.totalRuns > 0 && time.Since(stats.lastRun) > 4*(*loopDelay) {
			status = "stale"
			statusCode = http.StatusServiceUnavailable
		}

		w.WriteHeader(statusCode)
		fmt.Fprintf(w, "%s - %d organizations, %d PRs seen, %d PRs commented (last: %s, runs: %d)\n",
			status, stats.orgs, stats.prsSeen, stats.prsCommented,
			stats.lastRun.Format(time.RFC3339), stats.totalRuns)
	})

	http.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Review Suggester Bot\n/_-_/health - Health status\n")
	})

	slog.Info("Starting health server", "port", port)
	server := &http.Server{
		Addr:         ":" + port,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Health server failed", "error", err)
	}
}

// metricsCollector tracks counters for the health endpoint.
type metricsCollector struct {
	uniqueOrgs         map[string]bool
	uniquePRsSeen      map[string]bool
	uniquePRsCommented map[string]bool
	lastRun            time.Time
	mu                 sync.RWMutex
	totalRuns          int64
}

func newMetricsCollector() *metricsCollector {
	return &metricsCollector{
		uniqueOrgs:         make(map[string]bool),
		uniquePRsSeen:      make(map[string]bool),
		uniquePRsCommented: make(map[string]bool),
	}
}

func (m *metricsCollector) recordOrg(org string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uniqueOrgs[org] = true
}

func (m *metricsCollector) recordPRSeen(owner, repo string, number int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uniquePRsSeen[fmt.Sprintf("%s/%s#%d", owner, repo, number)] = true
}

func (m *metricsCollector) recordPRCommented(owner, repo string, number int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uniquePRsCommented[fmt.Sprintf("%s/%s#%d", owner, repo, number)] = true
}

func (m *metricsCollector) recordRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRun = time.Now()
	m.totalRuns++
}

type botStats struct {
	lastRun      time.Time
	totalRuns    int64
	orgs         int
	prsSeen      int
	prsCommented int
}

func (m *metricsCollector) stats() botStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return botStats{
		lastRun:      m.lastRun,
		totalRuns:    m.totalRuns,
		orgs:         len(m.uniqueOrgs),
		prsSeen:      len(m.uniquePRsSeen),
		prsCommented: len(m.uniquePRsCommented),
	}
}
