package core

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docset-deps/internal/types"
)

func TestValidateConfigAccepts(t *testing.T) {
	cfg := types.Config{
		Name:       "guides",
		Extend:     []string{"https://example.com/base", "./fragments/common.yml"},
		References: []string{"https://example.com/data", "git@example.com:team/docs.git"},
	}
	require.NoError(t, ValidateConfig(t.Context(), cfg))
}

func TestValidateConfigRejectsGitExtend(t *testing.T) {
	cfg := types.Config{
		Name:   "guides",
		Extend: []string{"https://example.com/team/base.git"},
	}
	err := ValidateConfig(t.Context(), cfg)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
