package suggest

import (
	"testing"

	"github.com/codeGROOVE-dev/review-suggester/pkg/types"
)

// covered returns contributor signals marking the first n of files as covered.
func covered(files []string, n int) []types.FileContributors {
	signals := make([]types.FileContributors, 0, n)
	for _, f := range files[:n] {
		signals = append(signals, types.FileContributors{Path: f, Authors: []string{"someone"}})
	}
	return signals
}

func TestEstimateConfidence_High(t *testing.T) {
	// top=14, second=9 -> separation ~0.357; coverage 3/5 = 0.6.
	files := []string{"a", "b", "c", "d", "e"}
	ranked := []types.Candidate{{Login: "x", Score: 14}, {Login: "y", Score: 9}}

	got := EstimateConfidence(ranked, files, nil, covered(files, 3))
	if got != types.ConfidenceHigh {
		t.Errorf("expected High, got %s", got)
	}
}

func TestEstimateConfidence_Medium(t *testing.T) {
	// top=7, second=6, coverage 0.3: separation too small for High.
	files := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	ranked := []types.Candidate{{Login: "x", Score: 7}, {Login: "y", Score: 6}}

	got := EstimateConfidence(ranked, files, nil, covered(files, 3))
	if got != types.ConfidenceMedium {
		t.Errorf("expected Medium, got %s", got)
	}
}

func TestEstimateConfidence_LowScore(t *testing.T) {
	files := []string{"a", "b"}
	ranked := []types.Candidate{{Login: "x", Score: 3}}

	got := EstimateConfidence(ranked, files, nil, covered(files, 2))
	if got != types.ConfidenceLow {
		t.Errorf("expected Low for top=3, got %s", got)
	}
}

func TestEstimateConfidence_NoCandidates(t *testing.T) {
	got := EstimateConfidence(nil, []string{"a"}, nil, nil)
	if got != types.ConfidenceLow {
		t.Errorf("expected Low with no candidates, got %s", got)
	}
}

func TestEstimateConfidence_HighScoreLowCoverage(t *testing.T) {
	// Big margin but almost no file coverage: cannot be High.
	files := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	ranked := []types.Candidate{{Login: "x", Score: 20}}

	got := EstimateConfidence(ranked, files, nil, covered(files, 1))
	if got == types.ConfidenceHigh {
		t.Error("expected coverage gate to block High")
	}
}

func TestEstimateConfidence_OwnershipCountsAsCoverage(t *testing.T) {
	files := []string{"src/a.go", "src/b.go"}
	rules := ParseOwners("src/ @alice\n")
	ranked := []types.Candidate{{Login: "alice", Score: 14}}

	got := EstimateConfidence(ranked, files, rules, nil)
	if got != types.ConfidenceHigh {
		t.Errorf("expected ownership matches to count as coverage, got %s", got)
	}
}

func TestSignalCoverage_Clamped(t *testing.T) {
	if c := signalCoverage(nil, nil, nil); c != 0 {
		t.Errorf("expected 0 coverage for no files, got %v", c)
	}

	files := []string{"a"}
	// Same file covered by both signal kinds still counts once.
	rules := ParseOwners("a @alice\n")
	c := signalCoverage(files, rules, covered(files, 1))
	if c != 1 {
		t.Errorf("expected coverage 1, got %v", c)
	}
}
