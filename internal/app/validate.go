package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"docset-deps/internal/core"
)

func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	docsetDir := strings.TrimSpace(req.DocsetDir)
	if docsetDir == "" {
		return ValidateResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("docset directory is required")
	}
	cfg, err := s.Config.Load(ctx, docsetDir, false, nil)
	if err != nil {
		return ValidateResult{}, err
	}
	if err := core.ValidateConfig(ctx, cfg); err != nil {
		return ValidateResult{}, err
	}
	refs := append(append([]string(nil), cfg.References...), cfg.Extend...)
	return ValidateResult{
		DocsetName: cfg.Name,
		RemoteURLs: len(core.RemoteURLs(refs)),
		GitRefs:    len(core.GitRefs(cfg.References)),
	}, nil
}
