package core

import (
	"context"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"docset-deps/internal/types"
)

// ValidateConfig checks invariants on a loaded docset configuration.
func ValidateConfig(ctx context.Context, cfg types.Config) error {
	assert.NotEmpty(ctx, cfg.Name, "docset name must be set")
	for _, entry := range cfg.Extend {
		if IsGitHref(entry) {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("extend entries cannot be git references: " + entry)
		}
	}
	return nil
}
