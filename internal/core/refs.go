package core

import (
	"net/url"
	"strings"

	"docset-deps/internal/types"
)

// RemoteURLs filters references down to the non-empty http/https entries
// that require a remote URL fetch, preserving input order. Empty entries,
// local paths, and git hrefs are skipped, not errored on.
func RemoteURLs(refs []string) []string {
	var out []string
	for _, ref := range refs {
		if IsRemoteURL(ref) {
			out = append(out, ref)
		}
	}
	return out
}

// IsRemoteURL reports whether ref is a well-formed absolute http or https
// reference that is not a git href.
func IsRemoteURL(ref string) bool {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" || IsGitHref(trimmed) {
		return false
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// GitRefs filters references down to git hrefs and parses each into its
// clone URL and optional ref fragment, preserving input order.
func GitRefs(refs []string) []types.GitRef {
	var out []types.GitRef
	for _, ref := range refs {
		trimmed := strings.TrimSpace(ref)
		if trimmed == "" || !IsGitHref(trimmed) {
			continue
		}
		out = append(out, ParseGitRef(trimmed))
	}
	return out
}

// IsGitHref reports whether ref names a git repository: an ssh:// URL, an
// scp-style user@host:path form, or any reference whose path carries a
// .git suffix.
func IsGitHref(ref string) bool {
	base, _ := splitRefFragment(strings.TrimSpace(ref))
	if base == "" {
		return false
	}
	if strings.HasPrefix(base, "ssh://") {
		return true
	}
	if isSCPStyle(base) {
		return true
	}
	return strings.HasSuffix(base, ".git")
}

// ParseGitRef splits a git href into its clone URL and ref fragment.
func ParseGitRef(href string) types.GitRef {
	base, frag := splitRefFragment(strings.TrimSpace(href))
	return types.GitRef{
		Href: strings.TrimSpace(href),
		URL:  base,
		Ref:  frag,
	}
}

func splitRefFragment(ref string) (string, string) {
	idx := strings.LastIndex(ref, "#")
	if idx < 0 {
		return ref, ""
	}
	return ref[:idx], strings.TrimSpace(ref[idx+1:])
}

// isSCPStyle matches git@host:path shorthand, which has no scheme.
func isSCPStyle(ref string) bool {
	if strings.Contains(ref, "://") {
		return false
	}
	at := strings.Index(ref, "@")
	colon := strings.Index(ref, ":")
	return at > 0 && colon > at
}
