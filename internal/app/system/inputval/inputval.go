// Package inputval holds small validators for request fields.
package inputval

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MinPasswordLen is the shortest accepted password, in runes.
const MinPasswordLen = 8

var (
	usernameRe  = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)
	localCharRe = regexp.MustCompile("^[A-Za-z0-9!#$%&'*+/=?^_`{|}~.-]+$")
	labelRe     = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?$`)
)

// IsValidEmail reports whether s is a bare addr-spec (no display name).
// Single-label domains such as "localhost" are accepted.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t\r\n") || strings.Count(s, "@") != 1 {
		return false
	}
	local, domain, _ := strings.Cut(s, "@")
	if local == "" || domain == "" {
		return false
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
		return false
	}
	if !localCharRe.MatchString(local) {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if !labelRe.MatchString(label) {
			return false
		}
	}
	return true
}

// IsValidUsername allows 3-30 letters, digits or underscores.
func IsValidUsername(s string) bool {
	return usernameRe.MatchString(strings.TrimSpace(s))
}

// IsValidPassword checks the minimum length.
func IsValidPassword(s string) bool {
	return utf8.RuneCountInString(s) >= MinPasswordLen
}

// IsValidHTTPURL reports whether s is an absolute http(s) URL with a host.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidObjectID reports whether s is a 24-hex-digit ObjectID.
func IsValidObjectID(s string) bool {
	_, err := ParseObjectID(s)
	return err == nil
}

// ParseObjectID trims and parses s.
func ParseObjectID(s string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(strings.ToLower(strings.TrimSpace(s)))
}

// MaxLen reports whether s has at most n runes after trimming.
func MaxLen(s string, n int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) <= n
}
