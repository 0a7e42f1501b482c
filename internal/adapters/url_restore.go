package adapters

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"docset-deps/internal/core"
	"docset-deps/internal/policies"
	"docset-deps/internal/ports"
	"docset-deps/internal/shared"
	"docset-deps/internal/types"
)

const defaultURLTimeout = 60 * time.Second
const defaultURLKeepLast = 5
const urlTempPrefix = ".tmp-"
const maxErrorBodyBytes = 512

// URLRestoreAdapter fetches URL resources into a deterministic on-disk
// cache and reclaims stale revisions. Each URL owns one directory (the
// cache address); each downloaded revision is one content file inside it,
// named by the content's sha256. Identical content re-downloaded under the
// same URL reuses the existing file.
type URLRestoreAdapter struct {
	Root      string
	Client    *http.Client
	Retention types.RetentionPolicy
	DryRun    bool
	Clock     func() time.Time

	mu        sync.Mutex
	reachable map[string]struct{}
}

func NewURLRestoreAdapter(root string, timeoutSec int) *URLRestoreAdapter {
	timeout := defaultURLTimeout
	if timeoutSec > 0 {
		timeout = time.Duration(timeoutSec) * time.Second
	}
	return &URLRestoreAdapter{
		Root:      root,
		Client:    &http.Client{Timeout: timeout},
		Retention: types.RetentionPolicy{KeepLast: defaultURLKeepLast},
		Clock:     time.Now,
		reachable: make(map[string]struct{}),
	}
}

func (a *URLRestoreAdapter) Restore(ctx context.Context, rawURL string) (string, error) {
	dir, err := core.CacheDir(a.Root, rawURL)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to build request for url: " + rawURL).
			WithCause(err)
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("failed to fetch url: " + rawURL).
			WithCause(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("unexpected status fetching url: " + rawURL).
			WithCause(shared.HTTPStatusErrorWithBody(resp.StatusCode, rawURL, shared.TrimBody(body, maxErrorBodyBytes)))
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("failed to read url response: " + rawURL).
			WithCause(err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create url cache directory").
			WithCause(err)
	}
	sum := sha256.Sum256(content)
	path := filepath.Join(dir, hex.EncodeToString(sum[:])[:16])
	now := a.now()
	if _, err := os.Stat(path); err == nil {
		// Same content as a previous download; refresh the timestamp so
		// retention keeps recently used revisions.
		_ = os.Chtimes(path, now, now)
		return path, nil
	}
	if err := a.writeAtomic(dir, path, content); err != nil {
		return "", err
	}
	log.Ctx(ctx).Debug().Str("url", rawURL).Str("path", path).Msg("url restored")
	return path, nil
}

// GC marks rawURL's cache directory reachable for this run and prunes
// stale content revisions inside it per the retention policy. A revision
// that fails to delete is left for a future pass.
func (a *URLRestoreAdapter) GC(ctx context.Context, rawURL string) error {
	dir, err := core.CacheDir(a.Root, rawURL)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.reachable[dir] = struct{}{}
	a.mu.Unlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to list url cache directory").
			WithCause(err)
	}
	var cached []types.CacheEntry
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), urlTempPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		cached = append(cached, types.CacheEntry{ID: entry.Name(), ModTime: info.ModTime()})
	}

	plan := policies.BuildRetentionPlan(cached, a.Retention, a.now().UTC())
	for _, entry := range plan.Delete {
		path := filepath.Join(dir, entry.ID)
		if a.DryRun {
			log.Ctx(ctx).Info().Str("path", path).Msg("dry-run: would remove stale url revision")
			continue
		}
		if err := os.Remove(path); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("path", path).
				Msg("failed to remove stale url revision")
			continue
		}
		log.Ctx(ctx).Debug().Str("path", path).Msg("stale url revision removed")
	}
	return nil
}

// Sweep removes every URL cache directory never marked reachable during
// this run's GC walk and returns the removed paths.
func (a *URLRestoreAdapter) Sweep(ctx context.Context) ([]string, error) {
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
		if _, ok := reachable[path]; ok {
			return nil
		}
		if !containsFiles(path) {
			return nil
		}
		removed = append(removed, path)
		if hasReachableDescendant(reachable, path) {
			// Another URL's cache directory nests under this one (its
			// path is a prefix of the other's); only this resource's own
			// content revisions may go.
			if !a.DryRun {
				a.removeContentFiles(ctx, path)
			}
			return nil
		}
		if a.DryRun {
			return filepath.SkipDir
		}
		if err := os.RemoveAll(path); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("path", path).
				Msg("failed to remove unreachable url cache directory")
		}
		return filepath.SkipDir
	})
	if err != nil {
		return removed, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to sweep url cache").
			WithCause(err)
	}
	if !a.DryRun {
		removeEmptyDirs(a.Root)
	}
	sort.Strings(removed)
	return removed, nil
}

func (a *URLRestoreAdapter) writeAtomic(dir string, path string, content []byte) error {
	tmp, err := os.CreateTemp(dir, urlTempPrefix)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to stage url content").
			WithCause(err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write url content").
			WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write url content").
			WithCause(err)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to publish url content").
			WithCause(err)
	}
	return nil
}

func (a *URLRestoreAdapter) now() time.Time {
	if a.Clock == nil {
		return time.Now()
	}
	return a.Clock()
}

// removeContentFiles deletes the content revisions directly inside dir,
// leaving subdirectories (other resources' cache) alone.
func (a *URLRestoreAdapter) removeContentFiles(ctx context.Context, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("path", path).
				Msg("failed to remove unreachable url revision")
		}
	}
}

// hasReachableDescendant reports whether any marked directory lies below
// dir.
func hasReachableDescendant(reachable map[string]struct{}, dir string) bool {
	prefix := dir + string(filepath.Separator)
	for marked := range reachable {
		if strings.HasPrefix(marked, prefix) {
			return true
		}
	}
	return false
}

func containsFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			return true
		}
	}
	return false
}

// removeEmptyDirs prunes directories left empty after a sweep, deepest
// first. Failures are ignored; an empty directory is harmless.
func removeEmptyDirs(root string) {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err == nil && len(entries) == 0 {
			_ = os.Remove(dir)
		}
	}
}

var _ ports.URLPort = (*URLRestoreAdapter)(nil)
