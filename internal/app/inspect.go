package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"docset-deps/internal/core"
)

// Inspect summarizes a docset's persisted lock record.
func (s Service) Inspect(ctx context.Context, req InspectRequest) (InspectResult, error) {
	docsetDir := strings.TrimSpace(req.DocsetDir)
	if docsetDir == "" {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("docset directory is required")
	}
	cfg, _, err := s.Config.LoadIfExists(ctx, docsetDir, false, nil)
	if err != nil {
		return InspectResult{}, err
	}
	record, ok, err := s.Locks.Read(core.NormalizePath(docsetDir))
	if err != nil {
		return InspectResult{}, err
	}
	if !ok {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("no lock record found; run restore first")
	}
	return InspectResult{
		DocsetName:  cfg.Name,
		GeneratedAt: record.GeneratedAt,
		URLs:        record.URLs,
		Git:         record.Git,
	}, nil
}
