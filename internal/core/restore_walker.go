package core

import (
	"context"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"docset-deps/internal/ports"
	"docset-deps/internal/types"
)

const defaultFanOut = 4

// RestoreWalker walks the docset dependency graph from a root docset and
// restores each reachable docset exactly once per run. Diamond and cyclic
// graphs collapse through the visited set; restore of distinct docsets
// proceeds concurrently, restore of the same docset is a no-op for every
// claimant after the first.
type RestoreWalker struct {
	Config  ports.ConfigPort
	Git     ports.GitPort
	URL     ports.URLPort
	Locks   ports.LockPort
	Token   string
	Workers int

	visited *VisitSet
}

func NewRestoreWalker(config ports.ConfigPort, git ports.GitPort, url ports.URLPort, locks ports.LockPort) *RestoreWalker {
	return &RestoreWalker{
		Config:  config,
		Git:     git,
		URL:     url,
		Locks:   locks,
		visited: NewVisitSet(),
	}
}

// Restore restores the root docset at dir and, transitively, every child
// docset discovered through its git dependencies. A missing or invalid
// root configuration is fatal; non-root directories without a loadable
// configuration are skipped silently.
func (w *RestoreWalker) Restore(ctx context.Context, dir string) error {
	if w.Config == nil || w.Git == nil || w.URL == nil || w.Locks == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("restore walker requires config, git, url, and lock ports")
	}
	return w.restore(ctx, dir, true)
}

// Restored reports how many distinct docset paths were claimed this run.
func (w *RestoreWalker) Restored() int {
	return w.visited.Len()
}

func (w *RestoreWalker) restore(ctx context.Context, dir string, root bool) error {
	dir = NormalizePath(dir)
	if !w.visited.Claim(dir) {
		return nil
	}

	var cfg types.Config
	if root {
		loaded, err := w.Config.Load(ctx, dir, false, nil)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		loaded, ok, err := w.Config.LoadIfExists(ctx, dir, false, nil)
		if err != nil {
			return err
		}
		if !ok {
			log.Ctx(ctx).Debug().Str("dir", dir).Msg("no docset configuration, skipping")
			return nil
		}
		cfg = loaded
	}

	_, err := w.Locks.WithLock(ctx, dir, func() (types.LockRecord, error) {
		return w.restoreOne(ctx, dir, cfg)
	})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Debug().Str("dir", dir).Msg("docset restored")
	return nil
}

// restoreOne produces dir's lock record: all extend URLs resolve before
// the extended configuration loads, then git dependencies drive child
// recursion, then the extended external references resolve. Any fetch
// failure aborts the whole docset with no record produced.
func (w *RestoreWalker) restoreOne(ctx context.Context, dir string, cfg types.Config) (types.LockRecord, error) {
	urls := make(map[string]string)
	var mu sync.Mutex

	if err := w.fetchURLs(ctx, RemoteURLs(cfg.Extend), urls, &mu); err != nil {
		return types.LockRecord{}, err
	}

	extended, err := w.Config.Load(ctx, dir, true, urls)
	if err != nil {
		return types.LockRecord{}, err
	}

	gitHeads, err := w.Git.Restore(ctx, extended, w.childVisit, w.Token)
	if err != nil {
		return types.LockRecord{}, err
	}

	if err := w.fetchURLs(ctx, RemoteURLs(extended.References), urls, &mu); err != nil {
		return types.LockRecord{}, err
	}

	return types.LockRecord{URLs: urls, Git: gitHeads}, nil
}

func (w *RestoreWalker) childVisit(ctx context.Context, dir string) error {
	return w.restore(ctx, dir, false)
}

// fetchURLs fans out over the distinct entries of list not already present
// in into. A URL appearing in both the extend and reference lists of one
// docset is fetched once.
func (w *RestoreWalker) fetchURLs(ctx context.Context, list []string, into map[string]string, mu *sync.Mutex) error {
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(w.fanOut())
	scheduled := make(map[string]struct{})
	for _, entry := range list {
		mu.Lock()
		_, done := into[entry]
		mu.Unlock()
		if done {
			continue
		}
		if _, dup := scheduled[entry]; dup {
			continue
		}
		scheduled[entry] = struct{}{}
		group.Go(func() error {
			resolved, err := w.URL.Restore(gctx, entry)
			if err != nil {
				return err
			}
			mu.Lock()
			into[entry] = resolved
			mu.Unlock()
			return nil
		})
	}
	return group.Wait()
}

func (w *RestoreWalker) fanOut() int {
	if w.Workers > 0 {
		return w.Workers
	}
	return defaultFanOut
}
