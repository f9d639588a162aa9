package suggest

import "github.com/codeGROOVE-dev/review-suggester/pkg/types"

// Confidence thresholds. Evaluated in order; the first match wins.
const (
	highMinTop        = 12.0
	highMinCoverage   = 0.5
	highMinSeparation = 0.25
	mediumMinTop      = 6.0
	mediumMinCoverage = 0.25
)

// EstimateConfidence classifies how trustworthy the top suggestion is from
// the top score, the separation between first and second place, and how many
// changed files contributed any signal at all.
//
// Coverage counts a file as covered when an ownership rule matches it or
// when it appears in the contributor-signal list. The contributor side is a
// coarse stand-in for true per-file attribution; that approximation is
// intentional. The result is an auditable heuristic, not a statistical
// confidence interval.
func EstimateConfidence(
	ranked []types.Candidate,
	changedFiles []string,
	rules []OwnershipRule,
	signals []types.FileContributors,
) types.Confidence {
	var top, second float64
	if len(ranked) > 0 {
		top = ranked[0].Score
	}
	if len(ranked) > 1 {
		second = ranked[1].Score
	}

	separation := 0.0
	if top > 0 {
		separation = (top - second) / top
		if separation < 0 {
			separation = 0
		}
		if separation > 1 {
			separation = 1
		}
	}

	coverage := signalCoverage(changedFiles, rules, signals)

	switch {
	case top >= highMinTop && coverage >= highMinCoverage && separation >= highMinSeparation:
		return types.ConfidenceHigh
	case top >= mediumMinTop && coverage >= mediumMinCoverage:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceLow
	}
}

// signalCoverage returns the fraction of changed files with at least one
// signal, clamped to [0,1].
func signalCoverage(changedFiles []string, rules []OwnershipRule, signals []types.FileContributors) float64 {
	if len(changedFiles) == 0 {
		return 0
	}

	withContributors := make(map[string]bool, len(signals))
	for _, s := range signals {
		if len(s.Authors) > 0 {
			withContributors[s.Path] = true
		}
	}

	covered := 0
	for _, file := range changedFiles {
		if withContributors[file] || len(ResolveOwners(rules, file)) > 0 {
			covered++
		}
	}

	coverage := float64(covered) / float64(len(changedFiles))
	if coverage > 1 {
		coverage = 1
	}
	return coverage
}
