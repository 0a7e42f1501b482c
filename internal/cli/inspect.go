package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"docset-deps/internal/app"
)

type inspectOptions struct {
	DocsetDir string
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the persisted lock record of a docset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.DocsetDir, "docset", ".", "Docset directory")
	_ = viper.BindPFlag("docset", cmd.Flags().Lookup("docset"))
	return cmd
}

func runInspect(cmd *cobra.Command, opts inspectOptions) error {
	service := newAppService()
	result, err := service.Inspect(cmd.Context(), app.InspectRequest{
		DocsetDir: resolveString(cmd, opts.DocsetDir, "docset", "docset"),
	})
	if err != nil {
		return err
	}

	if result.DocsetName != "" {
		fmt.Printf("docset: %s\n", result.DocsetName)
	}
	fmt.Printf("generated: %s\n", result.GeneratedAt)
	fmt.Printf("urls: %d\n", len(result.URLs))
	for _, url := range sortedKeys(result.URLs) {
		fmt.Printf("- %s -> %s\n", url, result.URLs[url])
	}
	fmt.Printf("repositories: %d\n", len(result.Git))
	for _, href := range sortedKeys(result.Git) {
		fmt.Printf("- %s @ %s\n", href, result.Git[href])
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
