package handlers

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/helmsync/internal/config"
	"github.com/imamik/helmsync/internal/driver/helmcli"
)

func TestLoadConfig_DefaultFile(t *testing.T) {
	path := writeConfig(t, "interval: 42s\n")
	t.Chdir(filepath.Dir(path))

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 42*time.Second, cfg.Interval)
}

func TestLoadConfig_NoFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.Default().Interval, cfg.Interval)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := loadConfig(writeConfig(t, "concurrency: 0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestBuildDriver(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	drv, err := buildDriver(cfg)
	require.NoError(t, err)
	assert.IsType(t, &helmcli.Driver{}, drv)

	cfg.Driver.Mode = "kubectl"
	_, err = buildDriver(cfg)
	assert.Error(t, err)
}

func TestRequireHelm(t *testing.T) {
	cfg := config.Default()

	useTools(t)
	assert.Error(t, requireHelm(context.Background(), cfg), "cli mode needs helm")

	cfg.Driver.Mode = config.DriverSDK
	assert.NoError(t, requireHelm(context.Background(), cfg))
}

func TestRequireHelm_Found(t *testing.T) {
	useTools(t, "helm")
	assert.NoError(t, requireHelm(context.Background(), config.Default()))
}

func TestReconcilerOptions(t *testing.T) {
	t.Parallel()
	assert.Len(t, reconcilerOptions(config.Default(), false), 4)
}

func TestIsInteractiveTTY(t *testing.T) {
	t.Parallel()
	assert.False(t, isInteractiveTTY(&bytes.Buffer{}))
}
