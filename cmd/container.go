package cmd

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/mirrorkeep/application"
	"github.com/rios0rios0/mirrorkeep/config"
	"github.com/rios0rios0/mirrorkeep/domain"
	"github.com/rios0rios0/mirrorkeep/infrastructure/cache"
	"github.com/rios0rios0/mirrorkeep/infrastructure/forge"
	ghForge "github.com/rios0rios0/mirrorkeep/infrastructure/forge/github"
	"github.com/rios0rios0/mirrorkeep/infrastructure/workflow"
)

// buildContainer wires every collaborator through DIG so commands only
// declare what they consume.
func buildContainer() (*dig.Container, error) {
	container := dig.New()

	constructors := []any{
		func() (*config.Manager, error) { return config.NewManager(configDir) },
		func(manager *config.Manager) (*config.Settings, error) { return manager.Load() },
		func(manager *config.Manager) *cache.Store { return cache.NewStore(manager.CacheDir()) },
		buildForgeRegistry,
		func(registry *forge.Registry, settings *config.Settings) (domain.ForgeClient, error) {
			return registry.Get("github", settings.GitHub.Token)
		},
		application.NewMirrorScanner,
		func(
			forgeClient domain.ForgeClient,
			renderer application.WorkflowRenderer,
			settings *config.Settings,
		) *application.MirrorReconciler {
			return application.NewMirrorReconciler(
				forgeClient, renderer, workflow.MarkerPath, settings.Preferences.DefaultSchedule)
		},
		application.NewMirrorService,
	}

	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return nil, err
		}
	}

	if err := container.Provide(
		workflow.NewRenderer, dig.As(new(application.WorkflowRenderer)),
	); err != nil {
		return nil, err
	}

	return container, nil
}

func buildForgeRegistry() *forge.Registry {
	registry := forge.NewRegistry()
	registry.Register("github", ghForge.New)
	return registry
}
