// Package slug derives and matches URL slugs for communities and discussions.
//
// Lookups compare Normalize(input) with the stored slug, so "  Go-Lang "
// and "go-lang" address the same record.
package slug

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLen caps generated slugs.
const MaxLen = 80

// ErrEmpty is returned by Make when nothing slug-worthy is left.
var ErrEmpty = errors.New("slug: empty after normalization")

var valid = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Normalize is the lookup key for a slug: trimmed and lowercased.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Valid reports whether s is already a well-formed slug.
func Valid(s string) bool {
	return len(s) <= MaxLen && valid.MatchString(s)
}

// Make turns free text into a slug. Diacritics are stripped, letters are
// lowercased, and every run of other characters becomes one dash.
func Make(s string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(folded))
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}

	out := strings.TrimRight(b.String(), "-")
	if len(out) > MaxLen {
		out = strings.TrimRight(out[:MaxLen], "-")
	}
	if out == "" {
		return "", ErrEmpty
	}
	return out, nil
}

// FromInput picks the slug for a new record: an explicit slug is
// normalized and must be Valid; otherwise one is derived from fallback.
func FromInput(explicit, fallback string) (string, error) {
	if e := Normalize(explicit); e != "" {
		if !Valid(e) {
			return "", errors.New("slug may contain only lowercase letters, digits and single dashes")
		}
		return e, nil
	}
	return Make(fallback)
}
