package calllog

import (
	"fmt"
	"regexp"
)

const maxSlugLen = 80

var unsafeSlugChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Slug turns a task hint into a filesystem-safe name: every character outside
// [a-zA-Z0-9_-] becomes an underscore and the result is cut to 80 characters.
func Slug(hint string) string {
	if hint == "" || hint == UnknownTask {
		return "unknown_task"
	}

	slug := unsafeSlugChars.ReplaceAllString(hint, "_")
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}

	return slug
}

// ArtifactPrefix returns the zero-padded, 1-based file prefix for the block at
// index i, e.g. "003_Analyze_the_data".
func ArtifactPrefix(i int, hint string) string {
	return fmt.Sprintf("%03d_%s", i+1, Slug(hint))
}
