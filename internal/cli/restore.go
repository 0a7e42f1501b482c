package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"docset-deps/internal/app"
)

type restoreOptions struct {
	DocsetDir      string
	CacheDir       string
	Token          string
	Workers        int
	HTTPTimeoutSec int
	KeepLast       int
	KeepDays       int
	SkipGC         bool
}

func newRestoreCommand() *cobra.Command {
	opts := restoreOptions{}
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore dependencies for a docset and everything it links to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRestore(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.DocsetDir, "docset", ".", "Root docset directory")
	cmd.Flags().StringVar(&opts.CacheDir, "cache-dir", "", "Cache directory (defaults to the user cache dir)")
	cmd.Flags().StringVar(&opts.Token, "token", "", "Bearer token for authenticated git hosts")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Concurrent URL fetches per docset (0 = default)")
	cmd.Flags().IntVar(&opts.HTTPTimeoutSec, "http-timeout", 60, "HTTP timeout in seconds (0 = default)")
	cmd.Flags().IntVar(&opts.KeepLast, "keep-last", 0, "Keep last N revisions per cached URL (0 = default)")
	cmd.Flags().IntVar(&opts.KeepDays, "keep-days", 0, "Keep revisions newer than N days")
	cmd.Flags().BoolVar(&opts.SkipGC, "skip-gc", false, "Skip garbage collection after restore")

	_ = viper.BindPFlag("docset", cmd.Flags().Lookup("docset"))
	_ = viper.BindPFlag("cache_dir", cmd.Flags().Lookup("cache-dir"))
	_ = viper.BindPFlag("token", cmd.Flags().Lookup("token"))
	_ = viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("http_timeout_sec", cmd.Flags().Lookup("http-timeout"))
	_ = viper.BindPFlag("keep_last", cmd.Flags().Lookup("keep-last"))
	_ = viper.BindPFlag("keep_days", cmd.Flags().Lookup("keep-days"))
	_ = viper.BindPFlag("skip_gc", cmd.Flags().Lookup("skip-gc"))

	return cmd
}

func runRestore(ctx context.Context, cmd *cobra.Command, opts restoreOptions) error {
	cacheDir := resolveString(cmd, opts.CacheDir, "cache_dir", "cache-dir")
	if cacheDir == "" {
		cacheDir = defaultCacheDir()
	}
	service := newAppService()
	result, err := service.Restore(ctx, app.RestoreRequest{
		DocsetDir:      resolveString(cmd, opts.DocsetDir, "docset", "docset"),
		CacheDir:       cacheDir,
		Token:          resolveString(cmd, opts.Token, "token", "token"),
		Workers:        resolveInt(cmd, opts.Workers, "workers", "workers"),
		HTTPTimeoutSec: resolveInt(cmd, opts.HTTPTimeoutSec, "http_timeout_sec", "http-timeout"),
		KeepLast:       resolveInt(cmd, opts.KeepLast, "keep_last", "keep-last"),
		KeepDays:       resolveInt(cmd, opts.KeepDays, "keep_days", "keep-days"),
		SkipGC:         resolveBool(cmd, opts.SkipGC, "skip_gc", "skip-gc"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("restored: %s (%d docsets, %d urls, %d repositories)\n",
		result.DocsetName, result.DocsetCount, result.URLCount, result.GitCount)
	if len(result.RemovedGit) > 0 || len(result.RemovedURLs) > 0 {
		fmt.Printf("collected: %d repositories, %d url entries\n",
			len(result.RemovedGit), len(result.RemovedURLs))
	}
	return nil
}
