package adapters

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"docset-deps/internal/core"
	"docset-deps/internal/ports"
	"docset-deps/internal/types"
)

// ConfigFileName is the docset configuration file looked up inside a
// docset directory.
const ConfigFileName = "docset.yml"

// ConfigFileAdapter implements ConfigPort over docset.yml files. Extension
// merges remote fragments (read from the supplied URL cache mapping) and
// local fragments under the docset's own values; it never touches the
// network.
type ConfigFileAdapter struct{}

func NewConfigFileAdapter() ConfigFileAdapter {
	return ConfigFileAdapter{}
}

func (a ConfigFileAdapter) Load(ctx context.Context, dir string, extend bool, urls map[string]string) (types.Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Config{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("docset configuration not found: " + path).
			WithCause(err)
	}
	var cfg types.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return types.Config{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse docset configuration: " + path).
			WithCause(err)
	}
	if !extend {
		return cfg, nil
	}
	return a.extendConfig(ctx, dir, cfg, urls)
}

// LoadIfExists treats both a missing file and an unparseable document as
// "not a docset": a referenced directory need not be a project, and a
// malformed configuration is only fatal for the root.
func (a ConfigFileAdapter) LoadIfExists(ctx context.Context, dir string, extend bool, urls map[string]string) (types.Config, bool, error) {
	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.Config{}, false, nil
		}
		return types.Config{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read docset configuration: " + path).
			WithCause(err)
	}
	var cfg types.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("path", path).
			Msg("unparseable docset configuration treated as absent")
		return types.Config{}, false, nil
	}
	if !extend {
		return cfg, true, nil
	}
	extended, err := a.extendConfig(ctx, dir, cfg, urls)
	if err != nil {
		return types.Config{}, false, err
	}
	return extended, true, nil
}

// extendConfig resolves the extend list in order: remote fragments come
// from the cache paths in urls, local fragments from disk relative to the
// docset directory. Fragments merge first, the docset's own document last,
// so the docset's values win. Extension is single level; a fragment's own
// extend entries are not chased.
func (a ConfigFileAdapter) extendConfig(ctx context.Context, dir string, cfg types.Config, urls map[string]string) (types.Config, error) {
	merged := types.Config{}
	for _, entry := range cfg.Extend {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		var data []byte
		var err error
		switch {
		case core.IsRemoteURL(trimmed):
			cached, ok := urls[trimmed]
			if !ok {
				return types.Config{}, errbuilder.New().
					WithCode(errbuilder.CodeFailedPrecondition).
					WithMsg("extend url has not been restored: " + trimmed)
			}
			data, err = os.ReadFile(cached)
			if err != nil {
				return types.Config{}, errbuilder.New().
					WithCode(errbuilder.CodeNotFound).
					WithMsg("cached extend fragment missing: " + trimmed).
					WithCause(err)
			}
		case core.IsGitHref(trimmed):
			// Git references never extend configuration.
			continue
		default:
			local := trimmed
			if !filepath.IsAbs(local) {
				local = filepath.Join(dir, filepath.FromSlash(local))
			}
			data, err = os.ReadFile(local)
			if err != nil {
				return types.Config{}, errbuilder.New().
					WithCode(errbuilder.CodeNotFound).
					WithMsg("extend fragment not found: " + trimmed).
					WithCause(err)
			}
		}
		var fragment types.Config
		if err := yaml.Unmarshal(data, &fragment); err != nil {
			return types.Config{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to parse extend fragment: " + trimmed).
				WithCause(err)
		}
		merged = mergeConfig(merged, fragment)
	}
	merged = mergeConfig(merged, cfg)
	merged.Extend = cfg.Extend
	return merged, nil
}

func mergeConfig(base types.Config, overlay types.Config) types.Config {
	out := base
	if strings.TrimSpace(overlay.Name) != "" {
		out.Name = overlay.Name
	}
	out.References = appendMissing(out.References, overlay.References)
	return out
}

func appendMissing(existing []string, extra []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, entry := range existing {
		seen[strings.TrimSpace(entry)] = struct{}{}
	}
	out := existing
	for _, entry := range extra {
		key := strings.TrimSpace(entry)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, entry)
	}
	return out
}

var _ ports.ConfigPort = ConfigFileAdapter{}
