package suggest

import (
	"fmt"
	"math"
	"sort"

	"github.com/codeGROOVE-dev/review-suggester/pkg/types"
)

// Scoring constants.
const (
	maxAuthorsPerFile   = 10 // Contributor-history awards per file are capped at this prefix
	topAuthorBasePoints = 3  // Points for the most recent author of a file, decaying to 1

	reasonRecentCommits  = "recent commits"
	reasonOwnershipMatch = "ownership match"
)

// RankInput carries the already-collected signals for one ranking pass.
type RankInput struct {
	LatencyByLogin     map[string]float64
	Author             string
	ChangedFiles       []string
	ContributorSignals []types.FileContributors
	Rules              []OwnershipRule
	Weights            types.Weights
}

// candidateState accumulates score and reasons for one login during a pass.
type candidateState struct {
	reasonSeen map[string]bool
	reasons    []string
	score      float64
	order      int // first-seen position, breaks score ties deterministically
}

// scoreboard is the per-pass accumulation state. A fresh one is built for
// every Rank call; nothing survives between invocations.
type scoreboard struct {
	byLogin map[string]*candidateState
	author  string
	seen    int
}

// award adds points and a reason tag for a login. Awards to the pull
// request author or to bot-like logins are discarded here, making the
// exclusion invariant enforceable in exactly one place.
func (b *scoreboard) award(login string, points float64, reason string) {
	if login == "" || login == b.author || IsBotLogin(login) {
		return
	}

	state, ok := b.byLogin[login]
	if !ok {
		state = &candidateState{reasonSeen: make(map[string]bool), order: b.seen}
		b.byLogin[login] = state
		b.seen++
	}

	state.score += points
	if !state.reasonSeen[reason] {
		state.reasonSeen[reason] = true
		state.reasons = append(state.reasons, reason)
	}
}

// Rank fuses the contributor-history, ownership, and latency signals into a
// single ranked candidate list. Scores are additive and monotonic in the
// weights; ordering is deterministic for identical inputs (score descending,
// ties broken by first-seen order).
func Rank(in RankInput) []types.Candidate {
	board := &scoreboard{byLogin: make(map[string]*candidateState), author: in.Author}

	// Signal 1: contributor history. The i-th most recent author of a file
	// earns max(1, 3-i) points, rewarding recency while capping the long tail.
	if in.Weights.CommitHistory > 0 {
		for _, signal := range in.ContributorSignals {
			for i, author := range signal.Authors {
				if i >= maxAuthorsPerFile {
					break
				}
				points := float64(topAuthorBasePoints - i)
				if points < 1 {
					points = 1
				}
				board.award(author, points*in.Weights.CommitHistory, reasonRecentCommits)
			}
		}
	}

	// Signal 2: ownership. Each (owner, file) pair awards once; a single file
	// cannot award the same owner twice, but ownership across many files adds up.
	if in.Weights.Codeowners > 0 && len(in.Rules) > 0 {
		awarded := make(map[string]bool)
		for _, file := range in.ChangedFiles {
			for _, owner := range ResolveOwners(in.Rules, file) {
				key := owner + "\x00" + file
				if awarded[key] {
					continue
				}
				awarded[key] = true
				board.award(owner, in.Weights.Codeowners, reasonOwnershipMatch)
			}
		}
	}

	// Signal 3: responsiveness. Sorted iteration keeps first-seen order, and
	// therefore tie-breaking, deterministic across runs.
	if in.Weights.Latency > 0 && len(in.LatencyByLogin) > 0 {
		logins := make([]string, 0, len(in.LatencyByLogin))
		for login := range in.LatencyByLogin {
			logins = append(logins, login)
		}
		sort.Strings(logins)

		for _, login := range logins {
			hours := in.LatencyByLogin[login]
			bonus := latencyBonus(hours)
			if bonus == 0 {
				continue
			}
			reason := fmt.Sprintf("responds in ~%dh", int(math.Round(hours)))
			board.award(login, bonus*in.Weights.Latency, reason)
		}
	}

	return board.ranked()
}

// latencyBonus maps a median response latency to a bonus tier. Strictly
// decreasing in hours so that a faster reviewer always outscores a slower
// one on this signal; anything beyond two days contributes nothing.
func latencyBonus(medianHours float64) float64 {
	switch {
	case medianHours <= 4:
		return 4
	case medianHours <= 12:
		return 3
	case medianHours <= 24:
		return 2
	case medianHours <= 48:
		return 1
	default:
		return 0
	}
}

// ranked freezes the scoreboard into a sorted candidate list.
func (b *scoreboard) ranked() []types.Candidate {
	type entry struct {
		state *candidateState
		login string
	}
	entries := make([]entry, 0, len(b.byLogin))
	for login, state := range b.byLogin {
		entries = append(entries, entry{state: state, login: login})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].state.score != entries[j].state.score {
			return entries[i].state.score > entries[j].state.score
		}
		return entries[i].state.order < entries[j].state.order
	})

	candidates := make([]types.Candidate, 0, len(entries))
	for _, e := range entries {
		candidates = append(candidates, types.Candidate{
			Login:   e.login,
			Score:   e.state.score,
			Reasons: e.state.reasons,
		})
	}
	return candidates
}
