package cmd

import (
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	configDir string
	verbose   bool
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var rootCmd = &cobra.Command{
	Use:   "mirrorkeep",
	Short: "Discover and maintain a fleet of mirror repositories",
	Long: `A CLI tool that keeps private mirror repositories in sync with their
upstreams. Mirrors carry a scheduled workflow file that pulls upstream
changes; mirrorkeep discovers them, caches what it finds, and batch-applies
secret and workflow updates with per-mirror failure isolation.

This tool helps maintain consistency across a mirror fleet by:
- Scanning your account (and optionally an organization) for mirrors
- Caching scan results between invocations
- Updating each mirror's secrets and sync workflow in bulk`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetLevel(logger.DebugLevel)
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"Configuration directory (default: ~/.mirrorkeep)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")
}
