package suggest

import (
	"math"
	"sort"
	"time"

	"github.com/codeGROOVE-dev/review-suggester/pkg/types"
)

// EstimateLatency derives each reviewer's median first-response latency, in
// hours, from a sample of closed pull requests. Only samples created at or
// after windowStart count. Per request, only a reviewer's earliest review
// event is kept; re-reviews on the same request do not count again. Bot
// reviewers, events without a timestamp, and negative or non-finite elapsed
// values are dropped. A reviewer with no valid sample has no map entry —
// "no data" is distinct from "median latency zero".
func EstimateLatency(samples []types.ReviewSample, windowStart time.Time) map[string]float64 {
	hoursByReviewer := make(map[string][]float64)

	for _, sample := range samples {
		if sample.CreatedAt.Before(windowStart) {
			continue
		}

		// First response per reviewer for this request.
		first := make(map[string]time.Time)
		for _, ev := range sample.Events {
			if ev.SubmittedAt == nil || IsBotLogin(ev.Reviewer) {
				continue
			}
			if prev, ok := first[ev.Reviewer]; !ok || ev.SubmittedAt.Before(prev) {
				first[ev.Reviewer] = *ev.SubmittedAt
			}
		}

		for reviewer, at := range first {
			hours := at.Sub(sample.CreatedAt).Hours()
			if hours < 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
				continue
			}
			hoursByReviewer[reviewer] = append(hoursByReviewer[reviewer], hours)
		}
	}

	medians := make(map[string]float64, len(hoursByReviewer))
	for reviewer, hours := range hoursByReviewer {
		medians[reviewer] = median(hours)
	}
	return medians
}

// median returns the statistical median; an even count averages the two
// middle values. Callers must not pass an empty slice — an empty sample set
// means "no entry", never zero.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
