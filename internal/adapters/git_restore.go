package adapters

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/rs/zerolog/log"

	"docset-deps/internal/core"
	"docset-deps/internal/ports"
	"docset-deps/internal/types"
)

// defaultRefSegment names the work tree directory for a git href without a
// #ref fragment.
const defaultRefSegment = "default"

// GitRestoreAdapter restores git dependencies into a work-tree cache and
// reclaims work trees no longer reachable from the configured tree. Each
// (repository, ref) pair owns one directory under Root. Restore calls for
// the same work tree across docsets are serialized and deduplicated: the
// second caller reuses the head resolved by the first, so one run never
// fetches a work tree twice.
type GitRestoreAdapter struct {
	Root   string
	DryRun bool

	mu        sync.Mutex
	locks     map[string]*sync.Mutex
	restored  map[string]string
	reachable map[string]struct{}
}

func NewGitRestoreAdapter(root string) *GitRestoreAdapter {
	return &GitRestoreAdapter{
		Root:      root,
		locks:     make(map[string]*sync.Mutex),
		restored:  make(map[string]string),
		reachable: make(map[string]struct{}),
	}
}

func (a *GitRestoreAdapter) Restore(ctx context.Context, cfg types.Config, visit ports.ChildVisit, token string) (map[string]string, error) {
	out := make(map[string]string)
	for _, ref := range core.GitRefs(cfg.References) {
		dir := a.worktreeDir(ref)
		head, err := a.restoreWorktree(ctx, dir, ref, token)
		if err != nil {
			return nil, err
		}
		out[ref.Href] = head
		if visit != nil {
			if err := visit(ctx, dir); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// GC marks each configured work tree reachable for this run and recurses
// into the existing ones via visit. A work tree that was never restored is
// simply skipped; GC never fetches.
func (a *GitRestoreAdapter) GC(ctx context.Context, cfg types.Config, visit ports.ChildVisit) error {
	for _, ref := range core.GitRefs(cfg.References) {
		dir := a.worktreeDir(ref)
		a.mu.Lock()
		a.reachable[dir] = struct{}{}
		a.mu.Unlock()
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if visit != nil {
			if err := visit(ctx, dir); err != nil {
				return err
			}
		}
	}
	return nil
}

// Sweep removes every cached work tree not marked reachable during this
// run's GC walk and returns the removed paths.
func (a *GitRestoreAdapter) Sweep(ctx context.Context) ([]string, error) {
	if _, err := os.Stat(a.Root); os.IsNotExist(err) {
		return nil, nil
	}
	a.mu.Lock()
	reachable := make(map[string]struct{}, len(a.reachable))
	for dir := range a.reachable {
		reachable[dir] = struct{}{}
	}
	a.mu.Unlock()

	var removed []string
	err := filepath.WalkDir(a.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.IsDir() || path == a.Root {
			return nil
		}
		if !isWorktree(path) {
			return nil
		}
		if _, ok := reachable[path]; ok {
			return filepath.SkipDir
		}
		if hasReachableDescendant(reachable, path) {
			// A reachable work tree nests under this one; removing the
			// outer tree would take it along, so the outer tree stays
			// until the nesting disappears.
			log.Ctx(ctx).Debug().Str("path", path).
				Msg("unreachable work tree shelters a reachable one, kept")
			return nil
		}
		removed = append(removed, path)
		if a.DryRun {
			return filepath.SkipDir
		}
		if err := os.RemoveAll(path); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("path", path).
				Msg("failed to remove unreachable git work tree")
		}
		return filepath.SkipDir
	})
	if err != nil {
		return removed, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to sweep git cache").
			WithCause(err)
	}
	if !a.DryRun {
		removeEmptyDirs(a.Root)
	}
	sort.Strings(removed)
	return removed, nil
}

func (a *GitRestoreAdapter) restoreWorktree(ctx context.Context, dir string, ref types.GitRef, token string) (string, error) {
	lock := a.lockFor(dir)
	lock.Lock()
	defer lock.Unlock()

	a.mu.Lock()
	head, done := a.restored[dir]
	a.mu.Unlock()
	if done {
		return head, nil
	}

	head, err := a.cloneOrUpdate(ctx, dir, ref, token)
	if err != nil {
		return "", err
	}
	a.mu.Lock()
	a.restored[dir] = head
	a.mu.Unlock()
	log.Ctx(ctx).Debug().Str("href", ref.Href).Str("head", head).Msg("git dependency restored")
	return head, nil
}

func (a *GitRestoreAdapter) cloneOrUpdate(ctx context.Context, dir string, ref types.GitRef, token string) (string, error) {
	repo, err := git.PlainOpen(dir)
	switch {
	case err == nil:
		if uErr := a.update(ctx, repo, ref, token); uErr != nil {
			return "", uErr
		}
	case errors.Is(err, git.ErrRepositoryNotExists):
		repo, err = a.clone(ctx, dir, ref, token)
		if err != nil {
			return "", err
		}
	default:
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open git cache directory: " + dir).
			WithCause(err)
	}

	headRef, err := repo.Head()
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to resolve git head: " + ref.Href).
			WithCause(err)
	}
	return headRef.Hash().String(), nil
}

// clone fetches the work tree. A #ref fragment names either a branch or a
// tag: the branch interpretation is tried first and a miss falls back to
// the tag.
func (a *GitRestoreAdapter) clone(ctx context.Context, dir string, ref types.GitRef, token string) (*git.Repository, error) {
	opts := &git.CloneOptions{URL: ref.URL, Auth: a.auth(ref, token)}
	if ref.Ref == "" {
		repo, err := git.PlainCloneContext(ctx, dir, false, opts)
		if err != nil {
			return nil, cloneError(ref, err)
		}
		return repo, nil
	}

	opts.ReferenceName = plumbing.NewBranchReferenceName(ref.Ref)
	opts.SingleBranch = true
	repo, branchErr := git.PlainCloneContext(ctx, dir, false, opts)
	if branchErr == nil {
		return repo, nil
	}
	_ = os.RemoveAll(dir)

	opts.ReferenceName = plumbing.NewTagReferenceName(ref.Ref)
	repo, tagErr := git.PlainCloneContext(ctx, dir, false, opts)
	if tagErr == nil {
		return repo, nil
	}
	_ = os.RemoveAll(dir)
	return nil, cloneError(ref, branchErr)
}

// update pulls the tracked branch of an existing work tree. A work tree
// pinned to a tag is already at the tag's commit and is left alone.
func (a *GitRestoreAdapter) update(ctx context.Context, repo *git.Repository, ref types.GitRef, token string) error {
	if ref.Ref != "" {
		if _, tagErr := repo.Reference(plumbing.NewTagReferenceName(ref.Ref), false); tagErr == nil {
			return nil
		}
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open git work tree: " + ref.Href).
			WithCause(err)
	}
	pull := &git.PullOptions{Auth: a.auth(ref, token), Force: true}
	if ref.Ref != "" {
		pull.ReferenceName = plumbing.NewBranchReferenceName(ref.Ref)
		pull.SingleBranch = true
	}
	if pErr := worktree.PullContext(ctx, pull); pErr != nil && !errors.Is(pErr, git.NoErrAlreadyUpToDate) {
		return errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("failed to update git dependency: " + ref.Href).
			WithCause(pErr)
	}
	return nil
}

func cloneError(ref types.GitRef, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg("failed to clone git dependency: " + ref.Href).
		WithCause(err)
}

func (a *GitRestoreAdapter) auth(ref types.GitRef, token string) *githttp.BasicAuth {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	if !strings.HasPrefix(ref.URL, "http://") && !strings.HasPrefix(ref.URL, "https://") {
		return nil
	}
	return &githttp.BasicAuth{Username: "token", Password: token}
}

func (a *GitRestoreAdapter) lockFor(dir string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.locks[dir]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[dir] = lock
	}
	return lock
}

func (a *GitRestoreAdapter) worktreeDir(ref types.GitRef) string {
	segment := ref.Ref
	if segment == "" {
		segment = defaultRefSegment
	}
	segment = strings.ReplaceAll(segment, "/", "-")
	return filepath.Join(a.Root, filepath.FromSlash(normalizeGitURL(ref.URL)), segment)
}

// normalizeGitURL maps a clone URL to a filesystem-safe host/path segment:
// https://github.com/my/repo.git and git@github.com:my/repo collapse to
// github.com/my/repo.
func normalizeGitURL(rawURL string) string {
	rawURL = strings.TrimSuffix(strings.TrimSpace(rawURL), ".git")

	if strings.Contains(rawURL, "@") && strings.Contains(rawURL, ":") && !strings.Contains(rawURL, "://") {
		parts := strings.SplitN(rawURL, "@", 2)
		if len(parts) == 2 {
			hostPath := strings.Replace(parts[1], ":", "/", 1)
			return strings.TrimSuffix(hostPath, "/")
		}
	}

	parsed, err := url.Parse(rawURL)
	if err == nil && parsed.Host != "" {
		return strings.TrimSuffix(parsed.Host+parsed.Path, "/")
	}

	return strings.TrimSuffix(rawURL, "/")
}

func isWorktree(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, git.GitDirName))
	return err == nil
}

var _ ports.GitPort = (*GitRestoreAdapter)(nil)
