package domain

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	slugStrip      = regexp.MustCompile(`[^\w\s-]+`)
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugHyphens    = regexp.MustCompile(`-{2,}`)
)

// fallbackSlug is used when a title has no word characters at all.
const fallbackSlug = "post"

// Slugify derives a URL-safe slug: lower-cased, non-word characters
// stripped, whitespace runs turned into single hyphens and repeated
// hyphens collapsed. Slugify(Slugify(s)) == Slugify(s).
func Slugify(s string) string {
	out := strings.ToLower(s)
	out = slugStrip.ReplaceAllString(out, "")
	out = strings.TrimSpace(out)
	out = slugWhitespace.ReplaceAllString(out, "-")
	out = slugHyphens.ReplaceAllString(out, "-")
	out = strings.Trim(out, "-")
	if out == "" {
		return fallbackSlug
	}
	return out
}

// SlugCandidate returns the n-th slug to try for base: the base itself
// for n <= 1, then base-2, base-3, ...
func SlugCandidate(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}
