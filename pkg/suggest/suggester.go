package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/review-suggester/pkg/types"
)

// Configuration bounds. These exist to bound the I/O cost a Source incurs;
// the engine itself is linear in whatever it is handed.
const (
	defaultMaxReviewers = 5
	defaultMaxFiles     = 50
	defaultSamplePRs    = 20
	minSamplePRs        = 5
	maxSamplePRs        = 50
	defaultLookback     = 90 * 24 * time.Hour
)

// Source supplies the raw signals the engine consumes. Implementations talk
// to a code host; the engine only sees resolved collections. Any method may
// fail for one item without aborting the run — a failed fetch is an empty
// signal, not an error.
type Source interface {
	// ChangedFiles lists the paths touched by a pull request.
	ChangedFiles(ctx context.Context, owner, repo string, number int) ([]string, error)
	// FileContributors lists recent non-bot commit authors for one path,
	// most recent first.
	FileContributors(ctx context.Context, owner, repo, path string) ([]string, error)
	// OwnershipRuleText returns the raw CODEOWNERS content, or "" when the
	// repository has none.
	OwnershipRuleText(ctx context.Context, owner, repo string) (string, error)
	// ReviewSamples returns up to limit recently closed pull requests with
	// their review events.
	ReviewSamples(ctx context.Context, owner, repo string, limit int) ([]types.ReviewSample, error)
}

// Config holds tunables for one Suggester. Zero values select defaults.
type Config struct {
	Weights      types.Weights
	MaxReviewers int
	MaxFiles     int
	SamplePRs    int
	Lookback     time.Duration
}

// Suggester runs the full pipeline: collect signals through a Source, rank,
// classify confidence, and render the comment body.
type Suggester struct {
	source Source
	cfg    Config
}

// Result is the outcome of one suggestion pass.
type Result struct {
	Body       string
	Confidence types.Confidence
	Candidates []types.Candidate
}

// New creates a Suggester, applying defaults and clamping the PR sample
// size to its supported range.
func New(source Source, cfg Config) *Suggester {
	if cfg.MaxReviewers <= 0 {
		cfg.MaxReviewers = defaultMaxReviewers
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = defaultMaxFiles
	}
	if cfg.SamplePRs == 0 {
		cfg.SamplePRs = defaultSamplePRs
	}
	if cfg.SamplePRs < minSamplePRs {
		cfg.SamplePRs = minSamplePRs
	}
	if cfg.SamplePRs > maxSamplePRs {
		cfg.SamplePRs = maxSamplePRs
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = defaultLookback
	}
	if cfg.Weights == (types.Weights{}) {
		cfg.Weights = types.DefaultWeights()
	}
	return &Suggester{source: source, cfg: cfg}
}

// Suggest computes reviewer suggestions for one pull request. Missing data
// degrades the result instead of failing it; the only hard error is being
// unable to determine the changed-file list at all.
func (s *Suggester) Suggest(ctx context.Context, pr *types.PullRequest) (*Result, error) {
	if pr == nil {
		return nil, errors.New("pr cannot be nil")
	}

	files := pr.ChangedFiles
	if len(files) == 0 {
		fetched, err := s.source.ChangedFiles(ctx, pr.Owner, pr.Repository, pr.Number)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch changed files: %w", err)
		}
		files = fetched
	}
	files = dedupe(files, s.cfg.MaxFiles)
	slog.Info("Collecting signals", "pr", pr.Number, "repo", pr.Repository, "files", len(files))

	signals := s.collectContributorSignals(ctx, pr, files)
	rules := s.collectOwnershipRules(ctx, pr)
	latency := s.collectLatencyProfile(ctx, pr)

	ranked := Rank(RankInput{
		ChangedFiles:       files,
		ContributorSignals: signals,
		Rules:              rules,
		LatencyByLogin:     latency,
		Weights:            s.cfg.Weights,
		Author:             pr.Author,
	})

	confidence := EstimateConfidence(ranked, files, rules, signals)

	if len(ranked) > s.cfg.MaxReviewers {
		ranked = ranked[:s.cfg.MaxReviewers]
	}

	slog.Info("Suggestion computed", "pr", pr.Number, "candidates", len(ranked), "confidence", confidence)

	return &Result{
		Candidates: ranked,
		Confidence: confidence,
		Body:       Render(ranked, confidence),
	}, nil
}

// collectContributorSignals fetches per-file commit authors. A failed
// lookup for one file is logged and becomes an empty signal for that file.
func (s *Suggester) collectContributorSignals(ctx context.Context, pr *types.PullRequest, files []string) []types.FileContributors {
	var signals []types.FileContributors
	for _, file := range files {
		authors, err := s.source.FileContributors(ctx, pr.Owner, pr.Repository, file)
		if err != nil {
			slog.Warn("Failed to fetch file contributors (continuing)", "file", file, "error", err)
			continue
		}
		if len(authors) == 0 {
			continue
		}
		signals = append(signals, types.FileContributors{Path: file, Authors: authors})
	}
	return signals
}

// collectOwnershipRules fetches and parses CODEOWNERS. Absence or an
// unreadable file yields zero rules, never an error.
func (s *Suggester) collectOwnershipRules(ctx context.Context, pr *types.PullRequest) []OwnershipRule {
	text, err := s.source.OwnershipRuleText(ctx, pr.Owner, pr.Repository)
	if err != nil {
		slog.Warn("Failed to fetch ownership rules (continuing without)", "repo", pr.Repository, "error", err)
		return nil
	}
	if text == "" {
		return nil
	}
	rules := ParseOwners(text)
	slog.Debug("Parsed ownership rules", "repo", pr.Repository, "rules", len(rules))
	return rules
}

// collectLatencyProfile estimates reviewer responsiveness from recently
// closed pull requests. Failure yields an empty profile.
func (s *Suggester) collectLatencyProfile(ctx context.Context, pr *types.PullRequest) map[string]float64 {
	samples, err := s.source.ReviewSamples(ctx, pr.Owner, pr.Repository, s.cfg.SamplePRs)
	if err != nil {
		slog.Warn("Failed to fetch review samples (continuing without)", "repo", pr.Repository, "error", err)
		return nil
	}
	windowStart := time.Now().Add(-s.cfg.Lookback)
	return EstimateLatency(samples, windowStart)
}

// dedupe removes duplicate paths preserving first-seen order and caps the
// result at limit entries.
func dedupe(files []string, limit int) []string {
	seen := make(map[string]bool, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
		if len(out) >= limit {
			break
		}
	}
	return out
}
