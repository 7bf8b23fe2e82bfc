package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/mirrorkeep/infrastructure/cache"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently updated mirrors",
	Long: `Print the recent-mirror log, newest first. The log keeps the last
ten mirrors touched by an update and has no staleness limit, so it works
as a fallback candidate list when no scan cache is available.`,
	RunE: runRecent,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.AddCommand(recentCmd)
}

func runRecent(_ *cobra.Command, _ []string) error {
	container, err := buildContainer()
	if err != nil {
		return err
	}

	return container.Invoke(func(store *cache.Store) error {
		mirrors := store.RecentMirrors()
		if len(mirrors) == 0 {
			fmt.Println("No recent mirrors")
			return nil
		}

		for _, mirror := range mirrors {
			if mirror.UpstreamURL != "" {
				fmt.Printf("%s (mirror of %s)\n", mirror.FullName, mirror.UpstreamURL)
				continue
			}
			fmt.Println(mirror.FullName)
		}
		return nil
	})
}
