package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/mirrorkeep/application"
	"github.com/rios0rios0/mirrorkeep/config"
	"github.com/rios0rios0/mirrorkeep/domain"
	"github.com/rios0rios0/mirrorkeep/infrastructure/workflow"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var forceScan bool

//nolint:gochecknoglobals // required by cobra CLI pattern
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for mirror repositories",
	Long: `Scan the configured account (and organization, when set) for
repositories carrying the mirror sync workflow.

The default output is one repository name per line, suitable for piping:
  mirrorkeep scan | xargs -I {} mirrorkeep update --repo {}

Results are cached between invocations; use --force to rescan.`,
	RunE: runScan,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	scanCmd.Flags().BoolVarP(&forceScan, "force", "f", false,
		"Ignore cached scan results")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	container, err := buildContainer()
	if err != nil {
		return err
	}

	return container.Invoke(func(service *application.MirrorService, settings *config.Settings) error {
		mirrors, findErr := service.FindMirrors(cmd.Context(), application.FindOptions{
			Org:        settings.GitHub.DefaultOrg,
			Prefix:     settings.Preferences.DefaultPrefix,
			MarkerPath: workflow.MarkerPath,
			ForceScan:  forceScan,
		})
		if findErr != nil {
			return findErr
		}

		if len(mirrors) == 0 {
			fmt.Println("No mirror repositories found")
			return nil
		}

		if verbose {
			renderMirrorTable(mirrors)
			return nil
		}

		// Pipe-friendly output, just repo names.
		for _, mirror := range mirrors {
			fmt.Println(mirror.FullName)
		}
		return nil
	})
}

func renderMirrorTable(mirrors []domain.MirrorRecord) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Repository", "Visibility", "Upstream", "Updated"})

	for i, mirror := range mirrors {
		visibility := "public"
		if mirror.Private {
			visibility = "private"
		}

		upstream := mirror.UpstreamURL
		if upstream == "" {
			upstream = "(configured via secrets)"
		}

		updated := ""
		if mirror.UpdatedAt != nil {
			updated = mirror.UpdatedAt.Format(time.DateTime)
		}

		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			mirror.FullName,
			visibility,
			upstream,
			updated,
		})
	}

	table.Render()
}
