package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/mirrorkeep/application"
	"github.com/rios0rios0/mirrorkeep/domain"
	"github.com/rios0rios0/mirrorkeep/infrastructure/workflow"
	testdoubles "github.com/rios0rios0/mirrorkeep/test"
)

func TestMirrorScanner(t *testing.T) {
	t.Parallel()

	t.Run("should classify repositories by marker presence", func(t *testing.T) {
		t.Parallel()

		// given
		forge := &testdoubles.SpyForgeClient{
			RepositoriesByOwner: map[string][]domain.Repository{
				"testuser": {
					{FullName: "testuser/mirror-repo", HTMLURL: "https://github.com/testuser/mirror-repo", Private: true},
					{FullName: "testuser/regular-repo"},
				},
			},
		}
		forge.AddFile("testuser/mirror-repo", workflow.MarkerPath,
			&domain.FileContent{Content: "name: Mirror Sync\n", SHA: "abc123"})
		scanner := application.NewMirrorScanner(forge)

		// when
		result := scanner.Scan(context.Background(), []string{"testuser"}, workflow.MarkerPath, "")

		// then
		require.Len(t, result.Mirrors, 1)
		assert.Equal(t, "testuser/mirror-repo", result.Mirrors[0].FullName)
		assert.True(t, result.Mirrors[0].Private)
		assert.Len(t, result.Repositories, 2)
	})

	t.Run("should never include archived repositories", func(t *testing.T) {
		t.Parallel()

		// given
		forge := &testdoubles.SpyForgeClient{
			RepositoriesByOwner: map[string][]domain.Repository{
				"testuser": {
					{FullName: "testuser/archived-mirror", Archived: true},
				},
			},
		}
		forge.AddFile("testuser/archived-mirror", workflow.MarkerPath,
			&domain.FileContent{Content: "name: Mirror Sync\n", SHA: "abc123"})
		scanner := application.NewMirrorScanner(forge)

		// when
		result := scanner.Scan(context.Background(), []string{"testuser"}, workflow.MarkerPath, "")

		// then
		assert.Empty(t, result.Mirrors)
		assert.Empty(t, result.Repositories)
	})

	t.Run("should apply the name prefix filter", func(t *testing.T) {
		t.Parallel()

		// given
		forge := &testdoubles.SpyForgeClient{
			RepositoriesByOwner: map[string][]domain.Repository{
				"testuser": {
					{FullName: "testuser/mirror-linux"},
					{FullName: "testuser/dotfiles"},
				},
			},
		}
		forge.AddFile("testuser/mirror-linux", workflow.MarkerPath,
			&domain.FileContent{Content: "name: Mirror Sync\n", SHA: "abc123"})
		forge.AddFile("testuser/dotfiles", workflow.MarkerPath,
			&domain.FileContent{Content: "name: Mirror Sync\n", SHA: "def456"})
		scanner := application.NewMirrorScanner(forge)

		// when
		result := scanner.Scan(context.Background(), []string{"testuser"}, workflow.MarkerPath, "mirror-")

		// then
		require.Len(t, result.Mirrors, 1)
		assert.Equal(t, "testuser/mirror-linux", result.Mirrors[0].FullName)
	})

	t.Run("should continue with remaining owners when one listing fails", func(t *testing.T) {
		t.Parallel()

		// given
		forge := &testdoubles.SpyForgeClient{
			RepositoriesByOwner: map[string][]domain.Repository{
				"testorg": {
					{FullName: "testorg/mirror-repo"},
				},
			},
			ListErrByOwner: map[string]error{
				"testuser": errors.New("auth failure"),
			},
		}
		forge.AddFile("testorg/mirror-repo", workflow.MarkerPath,
			&domain.FileContent{Content: "name: Mirror Sync\n", SHA: "abc123"})
		scanner := application.NewMirrorScanner(forge)

		// when
		result := scanner.Scan(context.Background(), []string{"testuser", "testorg"}, workflow.MarkerPath, "")

		// then
		require.Len(t, result.Mirrors, 1)
		assert.Equal(t, "testorg/mirror-repo", result.Mirrors[0].FullName)
		assert.Equal(t, []string{"testuser", "testorg"}, forge.ListedOwners)
	})

	t.Run("should recover the upstream from the marker annotation", func(t *testing.T) {
		t.Parallel()

		// given
		forge := &testdoubles.SpyForgeClient{
			RepositoriesByOwner: map[string][]domain.Repository{
				"testuser": {
					{FullName: "testuser/mirror-repo"},
				},
			},
		}
		forge.AddFile("testuser/mirror-repo", workflow.MarkerPath, &domain.FileContent{
			Content: "# Upstream: https://github.com/upstream/repo\nname: Mirror Sync\n",
			SHA:     "abc123",
		})
		scanner := application.NewMirrorScanner(forge)

		// when
		result := scanner.Scan(context.Background(), []string{"testuser"}, workflow.MarkerPath, "")

		// then
		require.Len(t, result.Mirrors, 1)
		assert.Equal(t, "https://github.com/upstream/repo", result.Mirrors[0].UpstreamURL)
	})

	t.Run("should leave the upstream unset when recovery fails", func(t *testing.T) {
		t.Parallel()

		// given
		forge := &testdoubles.SpyForgeClient{
			RepositoriesByOwner: map[string][]domain.Repository{
				"testuser": {
					{FullName: "testuser/mirror-repo"},
				},
			},
		}
		forge.AddFile("testuser/mirror-repo", workflow.MarkerPath,
			&domain.FileContent{Content: "name: Mirror Sync\n", SHA: "abc123"})
		scanner := application.NewMirrorScanner(forge)

		// when
		result := scanner.Scan(context.Background(), []string{"testuser"}, workflow.MarkerPath, "")

		// then
		require.Len(t, result.Mirrors, 1)
		assert.Empty(t, result.Mirrors[0].UpstreamURL)
	})
}
