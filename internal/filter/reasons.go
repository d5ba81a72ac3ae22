// Package filter narrows a subreddit's removal reasons to the ones a
// moderator configured as usable saved responses.
package filter

import (
	"strings"

	"github.com/qepting91/saved-response/internal/domain"
)

// Keywords splits a comma separated keyword spec into trimmed, non-empty
// tokens. Matching stays case-sensitive so tokens are not folded.
func Keywords(spec string) []string {
	var kws []string
	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			kws = append(kws, tok)
		}
	}
	return kws
}

// Reasons keeps the reasons whose title contains at least one keyword of
// spec. An empty spec passes every reason through in its original order.
func Reasons(reasons []domain.RemovalReason, spec string) []domain.RemovalReason {
	if strings.TrimSpace(spec) == "" {
		return reasons
	}
	kws := Keywords(spec)

	filtered := make([]domain.RemovalReason, 0, len(reasons))
	for _, r := range reasons {
		if matchesAny(r.Title, kws) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func matchesAny(title string, kws []string) bool {
	for _, k := range kws {
		if strings.Contains(title, k) {
			return true
		}
	}
	return false
}
