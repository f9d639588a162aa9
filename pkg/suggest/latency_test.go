package suggest

import (
	"testing"
	"time"

	"github.com/codeGROOVE-dev/review-suggester/pkg/types"
)

var latencyEpoch = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func ts(hours float64) *time.Time {
	t := latencyEpoch.Add(time.Duration(hours * float64(time.Hour)))
	return &t
}

func sampleAt(createdHours float64, events ...types.ReviewEvent) types.ReviewSample {
	return types.ReviewSample{
		CreatedAt: latencyEpoch.Add(time.Duration(createdHours * float64(time.Hour))),
		Events:    events,
	}
}

func TestEstimateLatency_MedianOddCount(t *testing.T) {
	samples := []types.ReviewSample{
		sampleAt(0, types.ReviewEvent{Reviewer: "alice", SubmittedAt: ts(1)}),
		sampleAt(0, types.ReviewEvent{Reviewer: "alice", SubmittedAt: ts(2)}),
		sampleAt(0, types.ReviewEvent{Reviewer: "alice", SubmittedAt: ts(9)}),
	}

	medians := EstimateLatency(samples, latencyEpoch)
	if got := medians["alice"]; got != 2 {
		t.Errorf("median([1,2,9]) = %v, want 2", got)
	}
}

func TestEstimateLatency_MedianEvenCountAverages(t *testing.T) {
	samples := []types.ReviewSample{
		sampleAt(0, types.ReviewEvent{Reviewer: "alice", SubmittedAt: ts(2)}),
		sampleAt(0, types.ReviewEvent{Reviewer: "alice", SubmittedAt: ts(4)}),
	}

	medians := EstimateLatency(samples, latencyEpoch)
	if got := medians["alice"]; got != 3 {
		t.Errorf("median([2,4]) = %v, want 3", got)
	}
}

func TestEstimateLatency_NoSamplesMeansNoEntry(t *testing.T) {
	medians := EstimateLatency(nil, latencyEpoch)
	if _, ok := medians["alice"]; ok {
		t.Error("expected no entry for reviewer with zero samples")
	}
}

func TestEstimateLatency_FirstResponseWins(t *testing.T) {
	// Two reviews by the same person on one request: only the earliest counts.
	samples := []types.ReviewSample{
		sampleAt(0,
			types.ReviewEvent{Reviewer: "alice", SubmittedAt: ts(8)},
			types.ReviewEvent{Reviewer: "alice", SubmittedAt: ts(2)},
		),
	}

	medians := EstimateLatency(samples, latencyEpoch)
	if got := medians["alice"]; got != 2 {
		t.Errorf("expected earliest response (2h) to win, got %v", got)
	}
}

func TestEstimateLatency_IgnoresBotsAndMissingTimestamps(t *testing.T) {
	samples := []types.ReviewSample{
		sampleAt(0,
			types.ReviewEvent{Reviewer: "dependabot[bot]", SubmittedAt: ts(1)},
			types.ReviewEvent{Reviewer: "alice", SubmittedAt: nil},
		),
	}

	medians := EstimateLatency(samples, latencyEpoch)
	if len(medians) != 0 {
		t.Errorf("expected empty profile, got %v", medians)
	}
}

func TestEstimateLatency_DropsNegativeElapsed(t *testing.T) {
	// Review timestamp before request creation: clock skew, drop the sample.
	samples := []types.ReviewSample{
		sampleAt(10, types.ReviewEvent{Reviewer: "alice", SubmittedAt: ts(5)}),
	}

	medians := EstimateLatency(samples, latencyEpoch)
	if _, ok := medians["alice"]; ok {
		t.Error("expected negative-latency sample to be dropped")
	}
}

func TestEstimateLatency_WindowFiltersOldRequests(t *testing.T) {
	samples := []types.ReviewSample{
		sampleAt(-100, types.ReviewEvent{Reviewer: "alice", SubmittedAt: ts(-98)}),
		sampleAt(0, types.ReviewEvent{Reviewer: "alice", SubmittedAt: ts(6)}),
	}

	medians := EstimateLatency(samples, latencyEpoch)
	if got := medians["alice"]; got != 6 {
		t.Errorf("expected only in-window sample to count, got %v", got)
	}
}

func TestEstimateLatency_OrderIndependent(t *testing.T) {
	forward := []types.ReviewSample{
		sampleAt(0, types.ReviewEvent{Reviewer: "alice", SubmittedAt: ts(1)}),
		sampleAt(2, types.ReviewEvent{Reviewer: "alice", SubmittedAt: ts(7)}, types.ReviewEvent{Reviewer: "bob", SubmittedAt: ts(3)}),
		sampleAt(4, types.ReviewEvent{Reviewer: "bob", SubmittedAt: ts(16)}),
	}
	reversed := []types.ReviewSample{forward[2], forward[0], forward[1]}

	a := EstimateLatency(forward, latencyEpoch)
	b := EstimateLatency(reversed, latencyEpoch)

	if len(a) != len(b) {
		t.Fatalf("profiles differ in size: %v vs %v", a, b)
	}
	for reviewer, hours := range a {
		if b[reviewer] != hours {
			t.Errorf("reviewer %s: %v vs %v after reordering", reviewer, hours, b[reviewer])
		}
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"single", []float64{5}, 5},
		{"even pair", []float64{2, 4}, 3},
		{"odd triple", []float64{1, 2, 9}, 2},
		{"unsorted", []float64{9, 1, 2}, 2},
		{"four values", []float64{1, 2, 3, 10}, 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := median(tt.values); got != tt.want {
				t.Errorf("median(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}
