// Package appsrepotest provides contract tests for [apps.Repository]
// implementations.
package appsrepotest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/helmsync/internal/apps"
)

// Factory creates a fresh, empty [apps.Repository] for each test.
type Factory func(t *testing.T) apps.Repository

var baseTime = time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)

func sample(name string) apps.ManagedApplication {
	return apps.ManagedApplication{
		ReleaseName:  name,
		ChartURL:     "oci://registry.example.com/charts/" + name,
		ChartVersion: "1.2.3",
		Namespace:    "team-a",
		Values: apps.Values{
			"replicaCount": 2,
			"image":        map[string]any{"tag": "v1"},
			"hosts":        []any{"a.example.com", "b.example.com"},
		},
		Status:    apps.StatusRunning,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
}

// Run exercises the [apps.Repository] contract.
func Run(t *testing.T, factory Factory) {
	t.Run("CreateAndGet", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		created, err := repo.Create(ctx, sample("web"))
		require.NoError(t, err)
		assert.Equal(t, "web", created.ReleaseName)

		got, err := repo.Get(ctx, "web")
		require.NoError(t, err)
		assert.Equal(t, "oci://registry.example.com/charts/web", got.ChartURL)
		assert.Equal(t, "1.2.3", got.ChartVersion)
		assert.Equal(t, "team-a", got.Namespace)
		assert.Equal(t, apps.StatusRunning, got.Status)
		assert.True(t, baseTime.Equal(got.CreatedAt), "CreatedAt = %v, want %v", got.CreatedAt, baseTime)
		assert.True(t, baseTime.Equal(got.UpdatedAt), "UpdatedAt = %v, want %v", got.UpdatedAt, baseTime)

		assert.EqualValues(t, 2, got.Values["replicaCount"])
		image, ok := got.Values["image"].(map[string]any)
		require.True(t, ok, "nested values should round-trip as a mapping")
		assert.Equal(t, "v1", image["tag"])
		assert.Len(t, got.Values["hosts"], 2)
	})

	t.Run("CreateDuplicate", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		_, err := repo.Create(ctx, sample("web"))
		require.NoError(t, err)
		_, err = repo.Create(ctx, sample("web"))
		assert.ErrorIs(t, err, apps.ErrAlreadyExists)
	})

	t.Run("CreateEmptyValues", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		app := sample("bare")
		app.Values = nil

		_, err := repo.Create(ctx, app)
		require.NoError(t, err)

		got, err := repo.Get(ctx, "bare")
		require.NoError(t, err)
		assert.NotNil(t, got.Values)
		assert.Empty(t, got.Values)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		repo := factory(t)
		_, err := repo.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, apps.ErrNotFound)
	})

	t.Run("List", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()

		list, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)

		for i := range 3 {
			_, err := repo.Create(ctx, sample(fmt.Sprintf("app-%d", i)))
			require.NoError(t, err)
		}

		list, err = repo.List(ctx)
		require.NoError(t, err)
		names := make([]string, 0, len(list))
		for _, app := range list {
			names = append(names, app.ReleaseName)
		}
		assert.ElementsMatch(t, []string{"app-0", "app-1", "app-2"}, names)
	})

	t.Run("Update", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		_, err := repo.Create(ctx, sample("web"))
		require.NoError(t, err)

		later := baseTime.Add(time.Minute)
		app := sample("web")
		app.ChartVersion = "2.0.0"
		app.Namespace = "team-b"
		app.Values = apps.Values{"replicaCount": 5}
		app.Status = apps.StatusDeleted
		app.UpdatedAt = later

		_, err = repo.Update(ctx, app)
		require.NoError(t, err)

		got, err := repo.Get(ctx, "web")
		require.NoError(t, err)
		assert.Equal(t, "2.0.0", got.ChartVersion)
		assert.Equal(t, "team-b", got.Namespace)
		assert.Equal(t, apps.StatusDeleted, got.Status)
		assert.EqualValues(t, 5, got.Values["replicaCount"])
		assert.NotContains(t, got.Values, "image")
		assert.True(t, later.Equal(got.UpdatedAt), "UpdatedAt = %v, want %v", got.UpdatedAt, later)
		assert.True(t, baseTime.Equal(got.CreatedAt), "CreatedAt must not change on update")
	})

	t.Run("UpdateNotFound", func(t *testing.T) {
		repo := factory(t)
		_, err := repo.Update(context.Background(), sample("missing"))
		assert.ErrorIs(t, err, apps.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		_, err := repo.Create(ctx, sample("web"))
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, "web"))

		_, err = repo.Get(ctx, "web")
		assert.ErrorIs(t, err, apps.ErrNotFound)
	})

	t.Run("DeleteNotFound", func(t *testing.T) {
		repo := factory(t)
		err := repo.Delete(context.Background(), "missing")
		assert.ErrorIs(t, err, apps.ErrNotFound)
	})
}
