// Package suggest implements the reviewer suggestion engine: CODEOWNERS
// parsing and matching, response-latency estimation, weighted multi-signal
// ranking, and the confidence heuristic. The package performs no I/O; every
// function is a pure transform over already-fetched inputs.
package suggest

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// OwnershipRule is one effective line of a CODEOWNERS file: a glob-like
// pattern and the owners it assigns. Rules keep their file order because
// resolution replays them in order and lets the last match win.
type OwnershipRule struct {
	Pattern string
	Owners  []string
	Ordinal int
}

// ParseOwners parses CODEOWNERS text into ordered rules. Blank lines,
// comment lines, and malformed lines are skipped. Owners are normalized
// (leading @ stripped) and bot-like owners are removed; a rule left with
// no owners is dropped entirely so it cannot shadow an earlier rule.
func ParseOwners(text string) []OwnershipRule {
	var rules []OwnershipRule

	for _, line := range strings.Split(text, "\n") {
		line = stripInlineComment(line)
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		var owners []string
		for _, ref := range fields[1:] {
			owner := strings.TrimPrefix(ref, "@")
			if owner == "" || IsBotLogin(owner) {
				continue
			}
			owners = append(owners, owner)
		}
		if len(owners) == 0 {
			continue
		}

		rules = append(rules, OwnershipRule{
			Pattern: fields[0],
			Owners:  owners,
			Ordinal: len(rules),
		})
	}

	return rules
}

// stripInlineComment truncates a line at the first '#' that follows whitespace.
// A '#' embedded in a pattern (no preceding whitespace) is kept.
func stripInlineComment(line string) string {
	for i := 1; i < len(line); i++ {
		if line[i] == '#' && (line[i-1] == ' ' || line[i-1] == '\t') {
			return line[:i]
		}
	}
	return line
}

// ResolveOwners returns the owners of the last rule matching path, in rule
// order. Resolution is an explicit fold: every matching rule replaces the
// current owner set, never merges into it. No matching rule yields nil.
func ResolveOwners(rules []OwnershipRule, path string) []string {
	var owners []string
	for _, rule := range rules {
		if patternMatches(rule.Pattern, path) {
			owners = rule.Owners
		}
	}
	return owners
}

// patternMatches applies CODEOWNERS matching semantics: a leading slash
// anchors the pattern to the repository root, anything else matches at any
// directory depth, a trailing slash means everything under that directory,
// and a pattern also owns any file beneath the paths it names. Matching is
// case-sensitive and includes dotfiles.
func patternMatches(pattern, path string) bool {
	p := pattern
	anchored := strings.HasPrefix(p, "/")
	if anchored {
		p = strings.TrimPrefix(p, "/")
	}
	if strings.HasSuffix(p, "/") {
		p += "**"
	}
	if !anchored {
		p = "**/" + p
	}

	if ok, err := doublestar.Match(p, path); err == nil && ok {
		return true
	}
	ok, err := doublestar.Match(p+"/**", path)
	return err == nil && ok
}
