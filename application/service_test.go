package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/mirrorkeep/application"
	"github.com/rios0rios0/mirrorkeep/domain"
	"github.com/rios0rios0/mirrorkeep/infrastructure/cache"
	"github.com/rios0rios0/mirrorkeep/infrastructure/workflow"
	testdoubles "github.com/rios0rios0/mirrorkeep/test"
	"github.com/rios0rios0/mirrorkeep/test/domain/entitybuilders"
)

func newService(t *testing.T, forge *testdoubles.SpyForgeClient) (*application.MirrorService, *cache.Store) {
	t.Helper()
	store := cache.NewStore(t.TempDir())
	scanner := application.NewMirrorScanner(forge)
	reconciler := application.NewMirrorReconciler(
		forge, &testdoubles.StubWorkflowRenderer{}, workflow.MarkerPath, testSchedule)
	return application.NewMirrorService(forge, store, scanner, reconciler), store
}

func TestMirrorServiceRun(t *testing.T) {
	t.Parallel()

	t.Run("should produce exactly one outcome per mirror and keep the tally invariant", func(t *testing.T) {
		t.Parallel()

		// given
		forge := &testdoubles.SpyForgeClient{
			SecretErr: errors.New("secret rejected"),
		}
		// ok/mirror updates, skipped/mirror has no marker, bad/mirror fails on secrets
		forge.AddFile("testuser/ok-mirror", workflow.MarkerPath,
			&domain.FileContent{Content: "name: Mirror Sync\n", SHA: "s1"})
		forge.AddFile("testuser/bad-mirror", workflow.MarkerPath,
			&domain.FileContent{Content: "name: Mirror Sync\n", SHA: "s2"})
		service, _ := newService(t, forge)

		mirrors := []domain.MirrorRecord{
			entitybuilders.NewMirrorRecordBuilder().
				WithFullName("testuser/ok-mirror").WithUpstreamURL("").BuildMirrorRecord(),
			entitybuilders.NewMirrorRecordBuilder().
				WithFullName("testuser/skipped-mirror").WithUpstreamURL("").BuildMirrorRecord(),
			entitybuilders.NewMirrorRecordBuilder().
				WithFullName("testuser/bad-mirror").BuildMirrorRecord(),
		}

		// when
		result := service.Run(context.Background(), mirrors, domain.Secrets{})

		// then
		assert.Equal(t, 3, result.TotalCount)
		assert.Equal(t, 1, result.SuccessCount)
		assert.Equal(t, []string{"testuser/bad-mirror"}, result.Failed)
		assert.LessOrEqual(t, result.SuccessCount+len(result.Failed), result.TotalCount)
	})

	t.Run("should record successfully updated mirrors in the recent log", func(t *testing.T) {
		t.Parallel()

		// given
		forge := &testdoubles.SpyForgeClient{}
		forge.AddFile("testuser/mirror-repo", workflow.MarkerPath,
			&domain.FileContent{Content: "name: Mirror Sync\n", SHA: "s1"})
		service, store := newService(t, forge)
		mirror := entitybuilders.NewMirrorRecordBuilder().WithUpstreamURL("").BuildMirrorRecord()

		// when
		service.Run(context.Background(), []domain.MirrorRecord{mirror}, domain.Secrets{})

		// then
		recent := store.RecentMirrors()
		require.Len(t, recent, 1)
		assert.Equal(t, "testuser/mirror-repo", recent[0].FullName)
	})

	t.Run("should return an empty result for an empty batch", func(t *testing.T) {
		t.Parallel()

		// given
		forge := &testdoubles.SpyForgeClient{}
		service, _ := newService(t, forge)

		// when
		result := service.Run(context.Background(), nil, domain.Secrets{})

		// then
		assert.Equal(t, 0, result.TotalCount)
		assert.Equal(t, 0, result.SuccessCount)
		assert.Empty(t, result.Failed)
	})
}

func TestMirrorServiceVerifyOrgMembership(t *testing.T) {
	t.Parallel()

	t.Run("should pass when no organization is configured", func(t *testing.T) {
		t.Parallel()

		// given
		forge := &testdoubles.SpyForgeClient{}
		service, _ := newService(t, forge)

		// when
		err := service.VerifyOrgMembership(context.Background(), "")

		// then
		assert.NoError(t, err)
	})

	t.Run("should pass for an organization the user belongs to", func(t *testing.T) {
		t.Parallel()

		// given
		forge := &testdoubles.SpyForgeClient{Orgs: []string{"OtherOrg", "TestOrg"}}
		service, _ := newService(t, forge)

		// when
		err := service.VerifyOrgMembership(context.Background(), "testorg")

		// then
		assert.NoError(t, err)
	})

	t.Run("should fail for an organization the user does not belong to", func(t *testing.T) {
		t.Parallel()

		// given
		forge := &testdoubles.SpyForgeClient{Orgs: []string{"otherorg"}}
		service, _ := newService(t, forge)

		// when
		err := service.VerifyOrgMembership(context.Background(), "testorg")

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "testorg")
	})

	t.Run("should fail when the organization listing fails", func(t *testing.T) {
		t.Parallel()

		// given
		forge := &testdoubles.SpyForgeClient{OrgsErr: errors.New("forbidden")}
		service, _ := newService(t, forge)

		// when
		err := service.VerifyOrgMembership(context.Background(), "testorg")

		// then
		assert.Error(t, err)
	})
}

func TestMirrorServiceFindMirrors(t *testing.T) {
	t.Parallel()

	t.Run("should return a single record for an explicit repository", func(t *testing.T) {
		t.Parallel()

		// given
		forge := &testdoubles.SpyForgeClient{}
		service, _ := newService(t, forge)

		// when
		mirrors, err := service.FindMirrors(context.Background(), application.FindOptions{
			Repo:       "testuser/mirror-repo",
			MarkerPath: workflow.MarkerPath,
		})

		// then
		require.NoError(t, err)
		require.Len(t, mirrors, 1)
		assert.Equal(t, "testuser/mirror-repo", mirrors[0].FullName)
		assert.Empty(t, forge.ListedOwners, "explicit repo must not trigger a scan")
	})

	t.Run("should serve from the cache when fresh", func(t *testing.T) {
		t.Parallel()

		// given
		forge := &testdoubles.SpyForgeClient{Login: "testuser"}
		service, store := newService(t, forge)
		require.NoError(t, store.SaveScannedMirrors(
			[]domain.MirrorRecord{{FullName: "testuser/cached-mirror"}}, nil))

		// when
		mirrors, err := service.FindMirrors(context.Background(), application.FindOptions{
			MarkerPath: workflow.MarkerPath,
		})

		// then
		require.NoError(t, err)
		require.Len(t, mirrors, 1)
		assert.Equal(t, "testuser/cached-mirror", mirrors[0].FullName)
		assert.Empty(t, forge.ListedOwners)
	})

	t.Run("should scan both the user and the organization on a cache miss", func(t *testing.T) {
		t.Parallel()

		// given
		forge := &testdoubles.SpyForgeClient{Login: "testuser"}
		service, _ := newService(t, forge)

		// when
		_, err := service.FindMirrors(context.Background(), application.FindOptions{
			Org:        "testorg",
			MarkerPath: workflow.MarkerPath,
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"testuser", "testorg"}, forge.ListedOwners)
	})

	t.Run("should write scan results back into the cache", func(t *testing.T) {
		t.Parallel()

		// given
		forge := &testdoubles.SpyForgeClient{
			Login: "testuser",
			RepositoriesByOwner: map[string][]domain.Repository{
				"testuser": {{FullName: "testuser/mirror-repo"}},
			},
		}
		forge.AddFile("testuser/mirror-repo", workflow.MarkerPath,
			&domain.FileContent{Content: "name: Mirror Sync\n", SHA: "s1"})
		service, store := newService(t, forge)

		// when
		mirrors, err := service.FindMirrors(context.Background(), application.FindOptions{
			MarkerPath: workflow.MarkerPath,
		})

		// then
		require.NoError(t, err)
		require.Len(t, mirrors, 1)
		cached := store.ScannedMirrors(cache.DefaultScannedMaxAge, nil)
		require.Len(t, cached, 1)
		assert.Equal(t, "testuser/mirror-repo", cached[0].FullName)
	})

	t.Run("should bypass the cache when a scan is forced", func(t *testing.T) {
		t.Parallel()

		// given
		forge := &testdoubles.SpyForgeClient{Login: "testuser"}
		service, store := newService(t, forge)
		require.NoError(t, store.SaveScannedMirrors(
			[]domain.MirrorRecord{{FullName: "testuser/cached-mirror"}}, nil))

		// when
		_, err := service.FindMirrors(context.Background(), application.FindOptions{
			MarkerPath: workflow.MarkerPath,
			ForceScan:  true,
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"testuser"}, forge.ListedOwners)
	})

	t.Run("should abort when the current identity cannot be resolved", func(t *testing.T) {
		t.Parallel()

		// given
		forge := &testdoubles.SpyForgeClient{LoginErr: errors.New("not authenticated")}
		service, _ := newService(t, forge)

		// when
		_, err := service.FindMirrors(context.Background(), application.FindOptions{
			MarkerPath: workflow.MarkerPath,
		})

		// then
		assert.Error(t, err)
	})
}
