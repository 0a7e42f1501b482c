package core

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// CacheDir maps a remote URL to its cache directory: the cache root joined
// with the URL's host and path segments, leading and trailing separators
// stripped, normalized to the platform's path conventions. The mapping is
// a pure function of its inputs; identical URLs always resolve to the
// identical directory regardless of which docset referenced them.
//
// A trailing slash on the URL path is trimmed before normalization, so
// "https://host/a/b" and "https://host/a/b/" share one directory.
func CacheDir(root string, rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("cache address requires a url")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("cache address requires a well-formed absolute url").
			WithCause(err)
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("cache address requires a well-formed absolute url")
	}
	segment := parsed.Host + strings.TrimSuffix(parsed.Path, "/")
	segment = strings.TrimPrefix(segment, "/")
	return filepath.Clean(filepath.Join(root, filepath.FromSlash(segment))), nil
}
