// Package testutil provides shared test helpers used across the
// integration and e2e test packages.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// RepoRoot returns the absolute path to the repository root by walking
// up from the current working directory. It fails the test if the
// working directory cannot be determined.
func RepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(dir, "..", ".."))
}

// WriteDocset writes a docset.yml with the given content into dir.
func WriteDocset(t *testing.T, dir string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docset.yml"), []byte(content), 0o644))
}

// NewDocsetDir creates a fresh docset directory holding the given
// docset.yml content.
func NewDocsetDir(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	WriteDocset(t, dir, content)
	return dir
}

// InitGitDocset creates a local git repository whose work tree is itself a
// docset: it holds a docset.yml with the given content plus any extra
// files. The directory name carries a .git suffix so its path classifies
// as a git reference. Returns the repository path and its head commit.
func InitGitDocset(t *testing.T, docsetContent string, files map[string]string) (string, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "docset.git")
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)

	all := map[string]string{"docset.yml": docsetContent}
	for name, content := range files {
		all[name] = content
	}
	for name, content := range all {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
		_, err = worktree.Add(name)
		require.NoError(t, err)
	}
	hash, err := worktree.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir, hash.String()
}

// StartURLServer serves the given path-to-body responses over HTTP and
// shuts down with the test.
func StartURLServer(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}
