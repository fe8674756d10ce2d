// Package htmlsanitize cleans user-supplied markup before it is stored.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcOnce sync.Once
	ugc     *bluemonday.Policy

	strictOnce sync.Once
	strict     *bluemonday.Policy
)

func ugcPolicy() *bluemonday.Policy {
	ugcOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").OnElements("pre", "code", "span")
		p.RequireNoFollowOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		ugc = p
	})
	return ugc
}

func strictPolicy() *bluemonday.Policy {
	strictOnce.Do(func() {
		strict = bluemonday.StrictPolicy()
	})
	return strict
}

// Sanitize keeps formatting markup (paragraphs, lists, links, code, tables)
// and drops scripts, event handlers, iframes and unsafe URLs. Used for
// discussion bodies, replies and community descriptions.
func Sanitize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return strings.TrimSpace(ugcPolicy().Sanitize(s))
}

// StripTags removes all markup, leaving text. Used for single-line fields
// and profile bios. Entities produced by the policy are decoded so the
// stored value is plain text.
func StripTags(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strictPolicy().Sanitize(s)))
}

// IsPlainText reports whether s contains no tag-like sequences.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// PlainTextToHTML escapes s and turns newlines into <br> inside one paragraph.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}

// Body prepares a post body for storage: plain text is wrapped as HTML,
// markup is sanitized.
func Body(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return PlainTextToHTML(s)
	}
	return Sanitize(s)
}
