// Package shared provides common utility functions used across multiple
// packages in the docset-deps codebase.
package shared

import (
	"fmt"
	"strings"
)

// HTTPStatusErrorWithBody creates a formatted error that includes the
// response body for non-2xx HTTP responses.
func HTTPStatusErrorWithBody(status int, url string, body string) error {
	return fmt.Errorf("status=%d url=%s response=%s", status, url, body)
}

// TrimBody shortens a response body for inclusion in error messages.
func TrimBody(body []byte, limit int) string {
	trimmed := strings.TrimSpace(string(body))
	if limit > 0 && len(trimmed) > limit {
		return trimmed[:limit]
	}
	return trimmed
}
