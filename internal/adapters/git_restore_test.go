package adapters

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docset-deps/internal/types"
)

// initFixtureRepo creates a local repository with one commit. The directory
// name carries a .git suffix so its path classifies as a git href.
func initFixtureRepo(t *testing.T, files map[string]string) (string, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "fixture.git")
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)
	for name, content := range files {
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

func TestGitRestoreClonesAndReportsHead(t *testing.T) {
	fixture, head := initFixtureRepo(t, map[string]string{"README.md": "hello"})
	adapter := NewGitRestoreAdapter(t.TempDir())

	cfg := types.Config{Name: "root", References: []string{fixture}}
	var visited []string
	heads, err := adapter.Restore(t.Context(), cfg, func(_ context.Context, dir string) error {
		visited = append(visited, dir)
		return nil
	}, "")
	require.NoError(t, err)

	assert.Equal(t, head, heads[fixture])
	require.Len(t, visited, 1)
	data, err := os.ReadFile(filepath.Join(visited[0], "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestGitRestoreDeduplicatesWorktree(t *testing.T) {
	fixture, head := initFixtureRepo(t, map[string]string{"a.txt": "a"})
	adapter := NewGitRestoreAdapter(t.TempDir())
	cfg := types.Config{Name: "root", References: []string{fixture}}

	first, err := adapter.Restore(t.Context(), cfg, nil, "")
	require.NoError(t, err)
	second, err := adapter.Restore(t.Context(), cfg, nil, "")
	require.NoError(t, err)
	assert.Equal(t, head, first[fixture])
	assert.Equal(t, first, second)
}

func TestGitRestoreTagFragment(t *testing.T) {
	fixture, head := initFixtureRepo(t, map[string]string{"a.txt": "a"})
	repo, err := git.PlainOpen(fixture)
	require.NoError(t, err)
	_, err = repo.CreateTag("v1.0.0", plumbing.NewHash(head), nil)
	require.NoError(t, err)

	adapter := NewGitRestoreAdapter(t.TempDir())
	href := fixture + "#v1.0.0"
	cfg := types.Config{Name: "root", References: []string{href}}

	heads, err := adapter.Restore(t.Context(), cfg, nil, "")
	require.NoError(t, err)
	assert.Equal(t, head, heads[href])

	// A later run reopens the pinned work tree without pulling.
	fresh := NewGitRestoreAdapter(adapter.Root)
	again, err := fresh.Restore(t.Context(), cfg, nil, "")
	require.NoError(t, err)
	assert.Equal(t, head, again[href])
}

func TestGitRestoreBranchFragment(t *testing.T) {
	fixture, head := initFixtureRepo(t, map[string]string{"a.txt": "a"})
	repo, err := git.PlainOpen(fixture)
	require.NoError(t, err)
	branch := plumbing.NewHashReference(plumbing.NewBranchReferenceName("stable"), plumbing.NewHash(head))
	require.NoError(t, repo.Storer.SetReference(branch))

	adapter := NewGitRestoreAdapter(t.TempDir())
	href := fixture + "#stable"
	heads, err := adapter.Restore(t.Context(), types.Config{Name: "root", References: []string{href}}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, head, heads[href])
}

func TestGitRestoreUnknownFragment(t *testing.T) {
	fixture, _ := initFixtureRepo(t, map[string]string{"a.txt": "a"})
	adapter := NewGitRestoreAdapter(t.TempDir())

	href := fixture + "#no-such-ref"
	_, err := adapter.Restore(t.Context(), types.Config{Name: "root", References: []string{href}}, nil, "")
	require.Error(t, err)
}

func TestGitRestoreVisitErrorAborts(t *testing.T) {
	fixture, _ := initFixtureRepo(t, map[string]string{"a.txt": "a"})
	adapter := NewGitRestoreAdapter(t.TempDir())
	cfg := types.Config{Name: "root", References: []string{fixture}}

	_, err := adapter.Restore(t.Context(), cfg, func(context.Context, string) error {
		return assert.AnError
	}, "")
	require.Error(t, err)
}

func TestGitGCVisitsExistingWorktrees(t *testing.T) {
	fixture, _ := initFixtureRepo(t, map[string]string{"a.txt": "a"})
	adapter := NewGitRestoreAdapter(t.TempDir())
	cfg := types.Config{Name: "root", References: []string{fixture}}

	_, err := adapter.Restore(t.Context(), cfg, nil, "")
	require.NoError(t, err)

	var visited []string
	require.NoError(t, adapter.GC(t.Context(), cfg, func(_ context.Context, dir string) error {
		visited = append(visited, dir)
		return nil
	}))
	assert.Len(t, visited, 1)
}

func TestGitGCSkipsNeverRestoredWorktrees(t *testing.T) {
	adapter := NewGitRestoreAdapter(t.TempDir())
	cfg := types.Config{Name: "root", References: []string{"/nonexistent/repo.git"}}

	visited := 0
	require.NoError(t, adapter.GC(t.Context(), cfg, func(context.Context, string) error {
		visited++
		return nil
	}))
	assert.Zero(t, visited, "gc never fetches")
}

func TestGitSweepRemovesUnreachableWorktrees(t *testing.T) {
	keepFixture, _ := initFixtureRepo(t, map[string]string{"keep.txt": "keep"})
	dropFixture, _ := initFixtureRepo(t, map[string]string{"drop.txt": "drop"})
	adapter := NewGitRestoreAdapter(t.TempDir())

	both := types.Config{Name: "root", References: []string{keepFixture, dropFixture}}
	_, err := adapter.Restore(t.Context(), both, nil, "")
	require.NoError(t, err)

	// Only the first fixture is still configured.
	require.NoError(t, adapter.GC(t.Context(), types.Config{Name: "root", References: []string{keepFixture}}, nil))

	removed, err := adapter.Sweep(t.Context())
	require.NoError(t, err)
	require.Len(t, removed, 1)
	_, err = os.Stat(removed[0])
	assert.True(t, os.IsNotExist(err))

	keptDir := adapter.worktreeDir(types.GitRef{Href: keepFixture, URL: keepFixture})
	_, err = os.Stat(keptDir)
	assert.NoError(t, err, "reachable work tree survives the sweep")
}

func TestGitSweepKeepsNestedReachableWorktree(t *testing.T) {
	adapter := NewGitRestoreAdapter(t.TempDir())
	outerURL := "https://example.com/team/docs.git"
	innerURL := "https://example.com/team/docs/default/extra.git"
	outer := adapter.worktreeDir(types.GitRef{Href: outerURL, URL: outerURL})
	inner := adapter.worktreeDir(types.GitRef{Href: innerURL, URL: innerURL})
	require.True(t, strings.HasPrefix(inner, outer+string(filepath.Separator)),
		"inner work tree nests under the outer one")

	require.NoError(t, os.MkdirAll(filepath.Join(outer, git.GitDirName), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(inner, git.GitDirName), 0o755))

	// Only the inner work tree is still configured.
	require.NoError(t, adapter.GC(t.Context(), types.Config{
		Name:       "root",
		References: []string{innerURL},
	}, nil))

	removed, err := adapter.Sweep(t.Context())
	require.NoError(t, err)
	assert.Empty(t, removed, "outer tree stays while it shelters a reachable one")

	_, err = os.Stat(inner)
	assert.NoError(t, err)
}

func TestGitSweepEmptyRoot(t *testing.T) {
	adapter := NewGitRestoreAdapter(filepath.Join(t.TempDir(), "never-created"))
	removed, err := adapter.Sweep(t.Context())
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestNormalizeGitURL(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"https://github.com/my/repo.git", "github.com/my/repo"},
		{"https://github.com/my/repo", "github.com/my/repo"},
		{"git@github.com:my/repo.git", "github.com/my/repo"},
		{"git@github.com:my/repo", "github.com/my/repo"},
		{"ssh://git@github.com/my/repo.git", "github.com/my/repo"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizeGitURL(tt.raw), "url: %q", tt.raw)
	}
}

func TestWorktreeDirRefSegment(t *testing.T) {
	adapter := NewGitRestoreAdapter("/cache/git")
	withRef := adapter.worktreeDir(types.GitRef{URL: "https://github.com/my/repo.git", Ref: "release/v2"})
	assert.Equal(t, filepath.Join("/cache/git", "github.com", "my", "repo", "release-v2"), withRef)

	noRef := adapter.worktreeDir(types.GitRef{URL: "https://github.com/my/repo.git"})
	assert.Equal(t, filepath.Join("/cache/git", "github.com", "my", "repo", "default"), noRef)
}
