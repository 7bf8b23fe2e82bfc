package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/mirrorkeep/application"
	"github.com/rios0rios0/mirrorkeep/config"
	"github.com/rios0rios0/mirrorkeep/domain"
	"github.com/rios0rios0/mirrorkeep/infrastructure/workflow"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	updateRepo string
	updateAll  bool
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update mirror repositories with current settings",
	Long: `Bring mirror secrets and sync workflows up to date.

Without flags the candidate list is resolved from the cache (or a fresh
scan) and offered for interactive selection. A failing mirror never stops
the rest of the batch; the summary lists the failures so they can be
retargeted individually.

Examples:
  # Update a specific mirror
  mirrorkeep update --repo testuser/mirror-repo

  # Update every known mirror without prompting
  mirrorkeep update --all`,
	RunE: runUpdate,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	updateCmd.Flags().StringVarP(&updateRepo, "repo", "r", "",
		"Specific repository to update (owner/repo)")
	updateCmd.Flags().BoolVarP(&updateAll, "all", "a", false,
		"Update all mirrors without interactive selection")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	container, err := buildContainer()
	if err != nil {
		return err
	}

	return container.Invoke(func(
		service *application.MirrorService,
		settings *config.Settings,
		forgeClient domain.ForgeClient,
	) error {
		ctx := cmd.Context()

		// Prerequisites: a usable identity and membership in the configured
		// organization. Everything past this point is isolated per mirror and
		// cannot abort the command.
		if _, identityErr := forgeClient.CurrentUser(ctx); identityErr != nil {
			return fmt.Errorf("cannot resolve current identity: %w", identityErr)
		}
		if orgErr := service.VerifyOrgMembership(ctx, settings.GitHub.DefaultOrg); orgErr != nil {
			return orgErr
		}

		mirrors, findErr := service.FindMirrors(ctx, application.FindOptions{
			Repo:       updateRepo,
			Org:        settings.GitHub.DefaultOrg,
			Prefix:     settings.Preferences.DefaultPrefix,
			MarkerPath: workflow.MarkerPath,
		})
		if findErr != nil {
			return findErr
		}
		if len(mirrors) == 0 {
			fmt.Println("No mirror repositories found; run 'mirrorkeep scan' first")
			return nil
		}

		if updateRepo == "" && !updateAll {
			subset, cancelled, selectErr := selectMirrors(os.Stdin, os.Stdout, mirrors)
			if selectErr != nil {
				return selectErr
			}
			if cancelled {
				fmt.Println("Cancelled, nothing updated")
				return nil
			}
			mirrors = subset
		}

		result := service.Run(ctx, mirrors, domain.Secrets{
			Token:           settings.GitHub.Token,
			SlackWebhookURL: settings.GitHub.SlackWebhookURL,
		})

		fmt.Printf("\nUpdate complete: %d/%d mirrors updated successfully\n",
			result.SuccessCount, result.TotalCount)
		if len(result.Failed) > 0 {
			fmt.Printf("Failed: %s\n", strings.Join(result.Failed, ", "))
		}
		return nil
	})
}
