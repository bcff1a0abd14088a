package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/helmsync/internal/apps"
	"github.com/imamik/helmsync/internal/config"
	"github.com/imamik/helmsync/internal/store"
)

func TestSweep(t *testing.T) {
	ctx := context.Background()
	cfgPath := writeConfig(t, "")
	drv := newMockDriver()
	useDriver(t, drv)

	require.NoError(t, AppsCreate(ctx, &bytes.Buffer{}, cfgPath, CreateOptions{
		ReleaseName: "redis", ChartURL: "bitnami/redis", Namespace: "cache",
	}))

	var out bytes.Buffer
	require.NoError(t, Sweep(ctx, &out, cfgPath, false))
	assert.Contains(t, out.String(), "Installed:    1")
	assert.Equal(t, []string{"cache/redis"}, drv.InstallCalls)

	// The release is now up to date.
	out.Reset()
	require.NoError(t, Sweep(ctx, &out, cfgPath, true))
	var report SweepReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Unchanged)
	require.Len(t, report.Records, 1)
	assert.Equal(t, "none", report.Records[0].Action)
	assert.Len(t, drv.InstallCalls, 1)

	require.NoError(t, AppsDelete(ctx, &bytes.Buffer{}, cfgPath, "redis"))
	require.NoError(t, Sweep(ctx, &bytes.Buffer{}, cfgPath, false))
	assert.Equal(t, []string{"cache/redis"}, drv.UninstallCalls)
}

func TestSweep_FailedRecord(t *testing.T) {
	ctx := context.Background()
	cfgPath := writeConfig(t, "")
	drv := newMockDriver()
	drv.InstallErr = errors.New("chart not found")
	useDriver(t, drv)

	require.NoError(t, AppsCreate(ctx, &bytes.Buffer{}, cfgPath, CreateOptions{
		ReleaseName: "redis", ChartURL: "bitnami/redis", Namespace: "cache",
	}))

	var out bytes.Buffer
	err := Sweep(ctx, &out, cfgPath, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 records failed")

	var report SweepReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, report.Records[0].Error, "chart not found")
}

func TestSweep_RequiresHelmInCLIMode(t *testing.T) {
	useTools(t)
	drv := newMockDriver()
	useDriver(t, drv)
	t.Setenv("HELMSYNC_DRIVER_MODE", "cli")

	err := Sweep(context.Background(), &bytes.Buffer{}, writeConfig(t, ""), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "helm")
	assert.Empty(t, drv.InstallCalls)
}

type unreachableRepo struct {
	apps.Repository
}

func (unreachableRepo) List(context.Context) ([]apps.ManagedApplication, error) {
	return nil, errors.New("connection refused")
}

func TestSweep_StoreUnavailable(t *testing.T) {
	cfgPath := writeConfig(t, "")
	drv := newMockDriver()
	useDriver(t, drv)

	orig := openStore
	openStore = func(context.Context, config.StoreConfig, store.Options) (*store.Store, error) {
		return &store.Store{Repository: unreachableRepo{}}, nil
	}
	t.Cleanup(func() { openStore = orig })

	var out bytes.Buffer
	err := Sweep(context.Background(), &out, cfgPath, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no records were reconciled")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, out.String())
	assert.Empty(t, drv.InstallCalls)
}
