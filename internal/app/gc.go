package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"docset-deps/internal/types"
)

// GC runs a standalone GC walk from the root docset. Reachability is
// derived from the current configuration tree; lock records are never
// consulted.
func (s Service) GC(ctx context.Context, req GCRequest) (GCResult, error) {
	docsetDir := strings.TrimSpace(req.DocsetDir)
	if docsetDir == "" {
		return GCResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("docset directory is required")
	}
	cacheDir := strings.TrimSpace(req.CacheDir)
	if cacheDir == "" {
		return GCResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("cache directory is required")
	}

	retention := types.RetentionPolicy{KeepLast: req.KeepLast, KeepDays: req.KeepDays}
	gitPort := s.buildGitPort(cacheDir, req.DryRun)
	urlPort := s.buildURLPort(cacheDir, 0, retention, req.DryRun)

	removedGit, removedURLs, docsets, err := s.runGC(ctx, docsetDir, gitPort, urlPort, req.Workers)
	if err != nil {
		return GCResult{}, err
	}
	return GCResult{
		DocsetCount: docsets,
		RemovedGit:  removedGit,
		RemovedURLs: removedURLs,
		DryRun:      req.DryRun,
	}, nil
}
