package errors

import (
	"strings"
	"unicode"
)

// ValidateSource checks that source is a node id of a graph with n nodes.
// An empty graph accepts any source, since there is nothing to reorder.
func ValidateSource(source, n int) error {
	if n == 0 {
		return nil
	}
	if source < 0 || source >= n {
		return New(ErrCodeInvalidSource, "source node %d out of range [0, %d)", source, n)
	}
	return nil
}

// ValidateWorkers checks a worker count. Zero means "use the default".
func ValidateWorkers(workers int) error {
	if workers < 0 {
		return New(ErrCodeInvalidInput, "workers must not be negative (got %d)", workers)
	}
	const maxWorkers = 4096
	if workers > maxWorkers {
		return New(ErrCodeInvalidInput, "too many workers (max %d)", maxWorkers)
	}
	return nil
}

// ValidatePath validates a user-supplied file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a scheme the cache backends understand.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "redis://") && !strings.HasPrefix(rawURL, "rediss://") {
		return New(ErrCodeInvalidInput, "URL must use redis or rediss scheme")
	}
	return nil
}
