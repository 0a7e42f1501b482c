package core

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"docset-deps/internal/ports"
)

// GCWalker re-derives reachability from the current configuration tree and
// invokes the reclaim side of the fetch collaborators for every reachable
// docset. It carries its own visited set, never shared with a restore
// walk, and never consults lock records: a dependency removed from
// configuration since the last restore is simply not marked reachable.
type GCWalker struct {
	Config  ports.ConfigPort
	Git     ports.GitPort
	URL     ports.URLPort
	Workers int

	visited *VisitSet
}

func NewGCWalker(config ports.ConfigPort, git ports.GitPort, url ports.URLPort) *GCWalker {
	return &GCWalker{
		Config:  config,
		Git:     git,
		URL:     url,
		visited: NewVisitSet(),
	}
}

// GC walks the docset at dir. Directories without a loadable configuration
// are a no-op; the root is not special-cased because the orchestrator only
// runs GC after a successful restore.
func (w *GCWalker) GC(ctx context.Context, dir string) error {
	if w.Config == nil || w.Git == nil || w.URL == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("gc walker requires config, git, and url ports")
	}
	return w.gc(ctx, dir)
}

// Visited reports how many distinct docset paths were claimed this run.
func (w *GCWalker) Visited() int {
	return w.visited.Len()
}

func (w *GCWalker) gc(ctx context.Context, dir string) error {
	dir = NormalizePath(dir)
	if !w.visited.Claim(dir) {
		return nil
	}

	// Extension is irrelevant to reachability; the unextended document
	// names every dependency GC cares about.
	cfg, ok, err := w.Config.LoadIfExists(ctx, dir, false, nil)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := w.Git.GC(ctx, cfg, w.childVisit); err != nil {
		return err
	}

	refs := append(append([]string(nil), cfg.References...), cfg.Extend...)
	return w.reclaimURLs(ctx, RemoteURLs(refs))
}

func (w *GCWalker) childVisit(ctx context.Context, dir string) error {
	return w.gc(ctx, dir)
}

// reclaimURLs fans out reclaim calls over the distinct URLs. An individual
// reclaim failure leaves the cache entry for a future pass and does not
// block reclamation of siblings.
func (w *GCWalker) reclaimURLs(ctx context.Context, list []string) error {
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(w.fanOut())
	seen := make(map[string]struct{})
	for _, entry := range list {
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := w.URL.GC(gctx, entry); err != nil {
				log.Ctx(ctx).Warn().Err(err).Str("url", entry).
					Msg("reclaim failed, cache entry left for next gc")
			}
			return nil
		})
	}
	return group.Wait()
}

func (w *GCWalker) fanOut() int {
	if w.Workers > 0 {
		return w.Workers
	}
	return defaultFanOut
}
