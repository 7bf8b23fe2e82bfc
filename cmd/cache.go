package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/mirrorkeep/infrastructure/cache"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local scan caches",
}

//nolint:gochecknoglobals // required by cobra CLI pattern
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached scan result",
	RunE:  runCacheClear,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(_ *cobra.Command, _ []string) error {
	container, err := buildContainer()
	if err != nil {
		return err
	}

	return container.Invoke(func(store *cache.Store) error {
		store.Invalidate()
		fmt.Println("Caches cleared")
		return nil
	})
}
