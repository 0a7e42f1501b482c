package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"docset-deps/internal/app"
)

type gcOptions struct {
	DocsetDir string
	CacheDir  string
	Workers   int
	KeepLast  int
	KeepDays  int
	DryRun    bool
}

func newGCCommand() *cobra.Command {
	opts := gcOptions{}
	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Remove cache entries unreachable from the current configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGC(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.DocsetDir, "docset", ".", "Root docset directory")
	cmd.Flags().StringVar(&opts.CacheDir, "cache-dir", "", "Cache directory (defaults to the user cache dir)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Concurrent walk workers (0 = default)")
	cmd.Flags().IntVar(&opts.KeepLast, "keep-last", 0, "Keep last N revisions per cached URL (0 = default)")
	cmd.Flags().IntVar(&opts.KeepDays, "keep-days", 0, "Keep revisions newer than N days")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Only report removals without deleting")

	_ = viper.BindPFlag("docset", cmd.Flags().Lookup("docset"))
	_ = viper.BindPFlag("cache_dir", cmd.Flags().Lookup("cache-dir"))
	_ = viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("keep_last", cmd.Flags().Lookup("keep-last"))
	_ = viper.BindPFlag("keep_days", cmd.Flags().Lookup("keep-days"))
	_ = viper.BindPFlag("dry_run", cmd.Flags().Lookup("dry-run"))

	return cmd
}

func runGC(ctx context.Context, cmd *cobra.Command, opts gcOptions) error {
	cacheDir := resolveString(cmd, opts.CacheDir, "cache_dir", "cache-dir")
	if cacheDir == "" {
		cacheDir = defaultCacheDir()
	}
	service := newAppService()
	result, err := service.GC(ctx, app.GCRequest{
		DocsetDir: resolveString(cmd, opts.DocsetDir, "docset", "docset"),
		CacheDir:  cacheDir,
		Workers:   resolveInt(cmd, opts.Workers, "workers", "workers"),
		KeepLast:  resolveInt(cmd, opts.KeepLast, "keep_last", "keep-last"),
		KeepDays:  resolveInt(cmd, opts.KeepDays, "keep_days", "keep-days"),
		DryRun:    resolveBool(cmd, opts.DryRun, "dry_run", "dry-run"),
	})
	if err != nil {
		return err
	}
	if result.DryRun {
		fmt.Printf("dry-run: would remove %d repositories, %d url entries (%d docsets walked)\n",
			len(result.RemovedGit), len(result.RemovedURLs), result.DocsetCount)
		return nil
	}
	fmt.Printf("collected: %d repositories, %d url entries (%d docsets walked)\n",
		len(result.RemovedGit), len(result.RemovedURLs), result.DocsetCount)
	return nil
}
