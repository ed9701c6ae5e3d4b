package services

import (
	"fmt"
	"strings"
)

const (
	maxSlugLength   = 100
	maxSlugAttempts = 10
)

// Slugify derives a URL-safe identifier from a display name: lowercase, runs
// of non-alphanumerics collapsed to single hyphens, trimmed. The result is
// deterministic; uniqueness is the allocation loop's job.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	return slug
}

// slugCandidate returns the attempt-th candidate for a base slug:
// the base itself first, then base-1, base-2, ...
func slugCandidate(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, attempt)
}
