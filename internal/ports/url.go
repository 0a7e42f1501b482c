package ports

import "context"

// URLPort restores and reclaims URL-addressed resources.
type URLPort interface {
	// Restore fetches url into the cache and returns the resolved local
	// identifier (the cached content path).
	Restore(ctx context.Context, url string) (string, error)
	// GC marks url's cache directory reachable for the current run and
	// prunes stale content revisions inside it.
	GC(ctx context.Context, url string) error
	// Sweep removes every URL cache directory not marked reachable since
	// the adapter was constructed and returns the removed paths.
	Sweep(ctx context.Context) ([]string, error)
}
