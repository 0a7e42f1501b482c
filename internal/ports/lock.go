package ports

import (
	"context"

	"docset-deps/internal/types"
)

// LockPort provides the per-docset lock scope: scoped mutual exclusion
// around compute, persisting its result as the docset's lock record before
// release. On failure no partial record is written and any previously
// persisted record is left unchanged.
type LockPort interface {
	WithLock(ctx context.Context, dir string, compute func() (types.LockRecord, error)) (types.LockRecord, error)
	Read(dir string) (types.LockRecord, bool, error)
}
