package suggest

import (
	"fmt"
	"strings"

	"github.com/codeGROOVE-dev/review-suggester/pkg/types"
)

// Marker is the fixed idempotency token embedded in every rendered comment.
// Callers locate a previously posted comment by this token and update it in
// place instead of posting a duplicate. It must never change between
// versions of the renderer, or update-in-place breaks.
const Marker = "<!-- review-suggester:recommendation -->"

// Render produces the comment body for a ranked result. Output is
// byte-identical for identical input, which the update-in-place comment
// flow depends on.
func Render(candidates []types.Candidate, confidence types.Confidence) string {
	var b strings.Builder

	b.WriteString(Marker)
	b.WriteString("\n## Suggested reviewers\n\n")

	if len(candidates) == 0 {
		b.WriteString("No strong reviewer candidates were found for this change.\n")
		b.WriteString("\n_Suggestions are advisory and recomputed on every run._\n")
		return b.String()
	}

	for i, c := range candidates {
		b.WriteString(fmt.Sprintf("%d. **@%s** — score %.1f", i+1, c.Login, c.Score))
		if len(c.Reasons) > 0 {
			b.WriteString(" (" + strings.Join(c.Reasons, ", ") + ")")
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\nConfidence: **%s**\n", confidence))
	b.WriteString("\n_Suggestions are advisory and recomputed on every run._\n")

	return b.String()
}
