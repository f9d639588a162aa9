package suggest

import (
	"reflect"
	"testing"
)

func TestParseOwners_SkipsCommentsAndBlanks(t *testing.T) {
	text := "# top comment\n\n   \n*.go @alice\n# another\n"

	rules := ParseOwners(text)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].Pattern != "*.go" {
		t.Errorf("expected pattern '*.go', got %q", rules[0].Pattern)
	}
	if !reflect.DeepEqual(rules[0].Owners, []string{"alice"}) {
		t.Errorf("expected owners [alice], got %v", rules[0].Owners)
	}
}

func TestParseOwners_InlineComment(t *testing.T) {
	rules := ParseOwners("*.go @alice # backend owners\n")

	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if !reflect.DeepEqual(rules[0].Owners, []string{"alice"}) {
		t.Errorf("expected owners [alice], got %v", rules[0].Owners)
	}
}

func TestParseOwners_StripsAtSign(t *testing.T) {
	rules := ParseOwners("docs/ @alice bob\n")

	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if !reflect.DeepEqual(rules[0].Owners, []string{"alice", "bob"}) {
		t.Errorf("expected owners [alice bob], got %v", rules[0].Owners)
	}
}

func TestParseOwners_DropsBotOnlyRules(t *testing.T) {
	text := "*.go @dependabot[bot]\n*.md @alice @renovate-bot\n"

	rules := ParseOwners(text)
	if len(rules) != 1 {
		t.Fatalf("expected bot-only rule to be dropped, got %d rules", len(rules))
	}
	if rules[0].Pattern != "*.md" {
		t.Errorf("expected surviving rule '*.md', got %q", rules[0].Pattern)
	}
	if !reflect.DeepEqual(rules[0].Owners, []string{"alice"}) {
		t.Errorf("expected bot owner stripped, got %v", rules[0].Owners)
	}
}

func TestParseOwners_DropsPatternOnlyLines(t *testing.T) {
	rules := ParseOwners("*.go\n*.md @alice\n")

	if len(rules) != 1 {
		t.Fatalf("expected ownerless line to be dropped, got %d rules", len(rules))
	}
}

func TestParseOwners_OrdinalsFollowFileOrder(t *testing.T) {
	rules := ParseOwners("*.go @alice\n*.md @bob\n*.js @carol\n")

	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}
	for i, rule := range rules {
		if rule.Ordinal != i {
			t.Errorf("rule %d has ordinal %d", i, rule.Ordinal)
		}
	}
}

func TestResolveOwners_LastMatchWins(t *testing.T) {
	rules := ParseOwners("*.go @alice\npkg/ @bob\n")

	owners := ResolveOwners(rules, "pkg/server.go")
	if !reflect.DeepEqual(owners, []string{"bob"}) {
		t.Errorf("expected last matching rule to win with [bob], got %v", owners)
	}
}

func TestResolveOwners_ReplacesNotMerges(t *testing.T) {
	rules := ParseOwners("* @alice @bob\n*.go @carol\n")

	owners := ResolveOwners(rules, "main.go")
	if !reflect.DeepEqual(owners, []string{"carol"}) {
		t.Errorf("expected owner set replaced, not merged: got %v", owners)
	}
}

func TestResolveOwners_PrependNonMatchingIsNeutral(t *testing.T) {
	base := ParseOwners("*.go @alice\n")
	prepended := ParseOwners("*.rs @zed\n*.go @alice\n")

	want := ResolveOwners(base, "cmd/main.go")
	got := ResolveOwners(prepended, "cmd/main.go")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("prepending a non-matching rule changed the result: %v vs %v", got, want)
	}
}

func TestResolveOwners_AppendMatchingOverrides(t *testing.T) {
	rules := ParseOwners("*.go @alice\ncmd/** @bob\n")

	owners := ResolveOwners(rules, "cmd/main.go")
	if !reflect.DeepEqual(owners, []string{"bob"}) {
		t.Errorf("expected appended matching rule to override, got %v", owners)
	}
}

func TestResolveOwners_NoMatch(t *testing.T) {
	rules := ParseOwners("*.go @alice\n")

	if owners := ResolveOwners(rules, "README.md"); len(owners) != 0 {
		t.Errorf("expected no owners for unmatched file, got %v", owners)
	}
}

func TestResolveOwners_NoRules(t *testing.T) {
	if owners := ResolveOwners(nil, "main.go"); len(owners) != 0 {
		t.Errorf("expected no owners with zero rules, got %v", owners)
	}
}

func TestResolveOwners_AnchoredPattern(t *testing.T) {
	rules := ParseOwners("/src/** @alice\n")

	if owners := ResolveOwners(rules, "src/app.js"); !reflect.DeepEqual(owners, []string{"alice"}) {
		t.Errorf("expected anchored pattern to match src/app.js, got %v", owners)
	}
	if owners := ResolveOwners(rules, "vendor/src/app.js"); len(owners) != 0 {
		t.Errorf("expected anchored pattern not to match nested src/, got %v", owners)
	}
}

func TestResolveOwners_UnanchoredMatchesAnyDepth(t *testing.T) {
	rules := ParseOwners("*.md @bob\n")

	for _, path := range []string{"README.md", "docs/guide.md", "a/b/c/notes.md"} {
		if owners := ResolveOwners(rules, path); !reflect.DeepEqual(owners, []string{"bob"}) {
			t.Errorf("expected *.md to match %s, got %v", path, owners)
		}
	}
}

func TestResolveOwners_DirectoryPattern(t *testing.T) {
	rules := ParseOwners("docs/ @alice\n")

	if owners := ResolveOwners(rules, "docs/guide.md"); !reflect.DeepEqual(owners, []string{"alice"}) {
		t.Errorf("expected trailing-slash pattern to own files beneath it, got %v", owners)
	}
}

func TestResolveOwners_BareDirectoryName(t *testing.T) {
	rules := ParseOwners("internal @alice\n")

	if owners := ResolveOwners(rules, "internal/server/handler.go"); !reflect.DeepEqual(owners, []string{"alice"}) {
		t.Errorf("expected bare directory pattern to own files beneath it, got %v", owners)
	}
}

func TestResolveOwners_Dotfiles(t *testing.T) {
	rules := ParseOwners("*.yml @ops-team-a\n")

	// "ops-team-a" is not bot-like; dot-directories must still match.
	owners := ResolveOwners(rules, ".github/workflows/lint.yml")
	if !reflect.DeepEqual(owners, []string{"ops-team-a"}) {
		t.Errorf("expected dotfile path to match, got %v", owners)
	}
}

func TestResolveOwners_CaseSensitive(t *testing.T) {
	rules := ParseOwners("README.md @alice\n")

	if owners := ResolveOwners(rules, "readme.md"); len(owners) != 0 {
		t.Errorf("expected case-sensitive matching, got %v", owners)
	}
}
