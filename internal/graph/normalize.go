package graph

import (
	"regexp"
	"strings"
)

var conceptKeyPattern = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeConceptName maps a free-text concept name to its canonical
// identity key: lower-cased, with every run of characters outside [a-z0-9]
// collapsed to a single hyphen and leading/trailing hyphens trimmed. Names
// that normalize to nothing fall back to the lower-cased input so the key is
// never empty. This key is the sole deduplication axis for concept nodes.
func NormalizeConceptName(name string) string {
	lower := strings.ToLower(name)
	slug := strings.Trim(conceptKeyPattern.ReplaceAllString(lower, "-"), "-")
	if slug == "" {
		return lower
	}
	return slug
}
