package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"docset-deps/internal/core"
	"docset-deps/internal/ports"
	"docset-deps/internal/types"
)

// Restore runs the restore walk from the root docset and then, unless
// SkipGC is set, the GC walk. Restore must complete successfully in full
// before GC begins; if restore fails, GC does not run.
func (s Service) Restore(ctx context.Context, req RestoreRequest) (RestoreResult, error) {
	docsetDir := strings.TrimSpace(req.DocsetDir)
	if docsetDir == "" {
		return RestoreResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("docset directory is required")
	}
	cacheDir := strings.TrimSpace(req.CacheDir)
	if cacheDir == "" {
		return RestoreResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("cache directory is required")
	}

	retention := types.RetentionPolicy{KeepLast: req.KeepLast, KeepDays: req.KeepDays}
	gitPort := s.buildGitPort(cacheDir, false)
	urlPort := s.buildURLPort(cacheDir, req.HTTPTimeoutSec, retention, false)

	walker := core.NewRestoreWalker(s.Config, gitPort, urlPort, s.Locks)
	walker.Token = req.Token
	walker.Workers = req.Workers
	if err := walker.Restore(ctx, docsetDir); err != nil {
		return RestoreResult{}, err
	}

	cfg, err := s.Config.Load(ctx, docsetDir, false, nil)
	if err != nil {
		return RestoreResult{}, err
	}
	record, _, err := s.Locks.Read(core.NormalizePath(docsetDir))
	if err != nil {
		return RestoreResult{}, err
	}

	result := RestoreResult{
		DocsetName:  cfg.Name,
		DocsetCount: walker.Restored(),
		URLCount:    len(record.URLs),
		GitCount:    len(record.Git),
	}
	log.Ctx(ctx).Info().Int("docsets", result.DocsetCount).Msg("restore completed")

	if req.SkipGC {
		return result, nil
	}
	removedGit, removedURLs, _, err := s.runGC(ctx, docsetDir, gitPort, urlPort, req.Workers)
	if err != nil {
		return RestoreResult{}, err
	}
	result.RemovedGit = removedGit
	result.RemovedURLs = removedURLs
	return result, nil
}

// runGC walks reachability from docsetDir and then sweeps both caches.
func (s Service) runGC(ctx context.Context, docsetDir string, gitPort ports.GitPort, urlPort ports.URLPort, workers int) ([]string, []string, int, error) {
	walker := core.NewGCWalker(s.Config, gitPort, urlPort)
	walker.Workers = workers
	if err := walker.GC(ctx, docsetDir); err != nil {
		return nil, nil, 0, err
	}
	removedGit, err := gitPort.Sweep(ctx)
	if err != nil {
		return nil, nil, 0, err
	}
	removedURLs, err := urlPort.Sweep(ctx)
	if err != nil {
		return nil, nil, 0, err
	}
	log.Ctx(ctx).Info().
		Int("docsets", walker.Visited()).
		Int("git_removed", len(removedGit)).
		Int("url_removed", len(removedURLs)).
		Msg("gc completed")
	return removedGit, removedURLs, walker.Visited(), nil
}
