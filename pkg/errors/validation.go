package errors

import (
	"strings"
	"unicode"
)

// ValidateLaneID validates a lane (thread) identifier from a trace document.
// Lane ids are used as join keys between preprocessing output and rendering
// state, in cache keys, and in file names for exported artifacts, so the
// rules are intentionally conservative:
//   - No empty ids
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateLaneID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidLane, "lane id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidLane, "lane id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidLane, "lane id contains control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidLane, "lane id contains invalid characters: %q", pattern)
		}
	}

	return nil
}
