// Package types contains shared data structures used across the suggester system.
//
//nolint:revive // "types" is a standard Go package name for shared data structures
package types

import "time"

// PullRequest represents a GitHub pull request.
type PullRequest struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Title        string
	State        string
	Author       string
	Repository   string
	Owner        string
	ChangedFiles []string
	Reviewers    []string
	Number       int
	Draft        bool
}

// FileContributors holds the ordered commit authors for one changed file,
// most recent first. Files with no known non-bot authors are simply absent.
type FileContributors struct {
	Path    string
	Authors []string
}

// ReviewEvent is a single review submitted on a pull request.
// SubmittedAt is nil when the API returned no submission timestamp.
type ReviewEvent struct {
	SubmittedAt *time.Time
	Reviewer    string
}

// ReviewSample is one closed pull request together with its review events,
// used to estimate reviewer response latency.
type ReviewSample struct {
	CreatedAt time.Time
	Events    []ReviewEvent
}

// Weights controls the relative contribution of each scoring signal.
// A zero weight disables the corresponding signal entirely.
type Weights struct {
	CommitHistory float64
	Codeowners    float64
	Latency       float64
}

// DefaultWeights returns the weights used when the caller does not override them.
func DefaultWeights() Weights {
	return Weights{CommitHistory: 1, Codeowners: 4, Latency: 1}
}

// Candidate is a ranked reviewer suggestion with its accumulated score and
// the human-readable reasons that produced it.
type Candidate struct {
	Login   string
	Reasons []string
	Score   float64
}

// Confidence is a coarse label for how trustworthy the top suggestion is.
// It is an auditable heuristic, not a calibrated probability.
type Confidence string

// Confidence labels, from most to least trustworthy.
const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)
