package ports

import (
	"context"

	"docset-deps/internal/types"
)

// ConfigPort loads docset configurations. When extend is true, remote
// extend fragments are read from the cache paths recorded in urls and
// merged before the rest of the document is interpreted; extension never
// touches the network.
type ConfigPort interface {
	// Load fails with a coded error when the configuration is missing or
	// malformed.
	Load(ctx context.Context, dir string, extend bool, urls map[string]string) (types.Config, error)
	// LoadIfExists reports ok=false when the directory holds no loadable
	// configuration; a referenced directory need not be a docset.
	LoadIfExists(ctx context.Context, dir string, extend bool, urls map[string]string) (types.Config, bool, error)
}
