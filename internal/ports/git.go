package ports

import (
	"context"

	"docset-deps/internal/types"
)

// ChildVisit is invoked once per discovered child docset directory.
type ChildVisit func(ctx context.Context, dir string) error

// GitPort restores and reclaims the git dependencies of one docset
// configuration.
type GitPort interface {
	// Restore clones or updates each git reference in cfg, invokes visit
	// once per restored work tree, and returns the href to head-commit
	// mapping. Concurrent calls for the same reference across docsets are
	// deduplicated by the implementation.
	Restore(ctx context.Context, cfg types.Config, visit ChildVisit, token string) (map[string]string, error)
	// GC marks each configured work tree reachable for the current run and
	// recurses into it via visit.
	GC(ctx context.Context, cfg types.Config, visit ChildVisit) error
	// Sweep removes every cached work tree not marked reachable since the
	// adapter was constructed and returns the removed paths.
	Sweep(ctx context.Context) ([]string, error)
}
