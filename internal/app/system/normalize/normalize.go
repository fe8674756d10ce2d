// internal/app/system/normalize/normalize.go
package normalize

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and collapses inner whitespace. Case is kept.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Username trims and lowercases a username.
func Username(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role trims and lowercases a member role.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query parameter value. Case is kept.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Topic folds a topic tag for storage and matching.
func Topic(s string) string {
	return text.Fold(strings.TrimSpace(s))
}

// Topics folds, drops blanks and de-duplicates, keeping first-seen order.
func Topics(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = Topic(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
