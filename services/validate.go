package services

import (
	"regexp"
	"strings"
)

// Permissive hostname/path check, deliberately loose: anything with a
// plausible host and TLD passes.
var urlPattern = regexp.MustCompile(`^(https?://)?([\da-z.-]+)\.([a-z.]{2,6})([/\w .-]*)*/?$`)

// NormalizeURL is the single validation point for destination URLs: it
// rejects empty or malformed values and prepends https:// when no scheme is
// present. Every caller that accepts a URL goes through here.
func NormalizeURL(originalURL string) (string, error) {
	if originalURL == "" {
		return "", ErrMissingURL
	}
	if !urlPattern.MatchString(originalURL) {
		return "", ErrInvalidURL
	}
	if !strings.HasPrefix(originalURL, "http") {
		return "https://" + originalURL, nil
	}
	return originalURL, nil
}
