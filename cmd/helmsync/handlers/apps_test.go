package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/helmsync/internal/apps"
	testutil "github.com/imamik/helmsync/internal/testing"
)

func writeValues(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestApps_Lifecycle(t *testing.T) {
	t.Parallel()
	ctx := testutil.TestContext(t)
	cfgPath := writeConfig(t, "")
	var out bytes.Buffer

	err := AppsCreate(ctx, &out, cfgPath, CreateOptions{
		ReleaseName:  "nginx",
		ChartURL:     "oci://registry-1.docker.io/bitnamicharts/nginx",
		ChartVersion: "15.0.0",
		Namespace:    "web",
		ValuesFile:   writeValues(t, "values.yaml", "replicaCount: 2\nservice:\n  type: ClusterIP\n"),
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Created nginx in namespace web")

	out.Reset()
	require.NoError(t, AppsGet(ctx, &out, cfgPath, "nginx", true))
	var app apps.ManagedApplication
	require.NoError(t, json.Unmarshal(out.Bytes(), &app))
	assert.Equal(t, apps.StatusRunning, app.Status)
	assert.Equal(t, float64(2), app.Values["replicaCount"])
	assert.Equal(t, map[string]any{"type": "ClusterIP"}, app.Values["service"])

	version := "15.1.0"
	out.Reset()
	require.NoError(t, AppsUpdate(ctx, &out, cfgPath, "nginx", UpdateOptions{ChartVersion: &version}))
	assert.Contains(t, out.String(), "Updated nginx")

	out.Reset()
	require.NoError(t, AppsDelete(ctx, &out, cfgPath, "nginx"))
	assert.Contains(t, out.String(), "Marked nginx deleted")

	out.Reset()
	require.NoError(t, AppsList(ctx, &out, cfgPath, true))
	var list []apps.ManagedApplication
	require.NoError(t, json.Unmarshal(out.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "15.1.0", list[0].ChartVersion)
	assert.Equal(t, apps.StatusDeleted, list[0].Status)

	out.Reset()
	require.NoError(t, AppsPurge(ctx, &out, cfgPath, "nginx"))
	assert.Contains(t, out.String(), "Purged nginx")

	err = AppsGet(ctx, &out, cfgPath, "nginx", false)
	assert.ErrorIs(t, err, apps.ErrNotFound)
}

func TestAppsList_Plain(t *testing.T) {
	t.Parallel()
	ctx := testutil.TestContext(t)
	cfgPath := writeConfig(t, "")

	var out bytes.Buffer
	require.NoError(t, AppsList(ctx, &out, cfgPath, false))
	assert.Contains(t, out.String(), "No applications.")

	require.NoError(t, AppsCreate(ctx, &out, cfgPath, CreateOptions{
		ReleaseName: "redis", ChartURL: "bitnami/redis", Namespace: "cache",
	}))

	out.Reset()
	require.NoError(t, AppsList(ctx, &out, cfgPath, false))
	assert.Contains(t, out.String(), "RELEASE")
	assert.Contains(t, out.String(), "redis")
	assert.Contains(t, out.String(), "latest")
	assert.NotContains(t, out.String(), "\x1b[", "no escape codes when not on a terminal")
}

func TestAppsCreate_Invalid(t *testing.T) {
	t.Parallel()
	ctx := testutil.TestContext(t)
	cfgPath := writeConfig(t, "")

	err := AppsCreate(ctx, &bytes.Buffer{}, cfgPath, CreateOptions{
		ReleaseName: "Not_Valid", ChartURL: "bitnami/redis", Namespace: "cache",
	})
	assert.True(t, apps.IsConfigurationError(err))

	opts := CreateOptions{ReleaseName: "redis", ChartURL: "bitnami/redis", Namespace: "cache"}
	require.NoError(t, AppsCreate(ctx, &bytes.Buffer{}, cfgPath, opts))
	assert.ErrorIs(t, AppsCreate(ctx, &bytes.Buffer{}, cfgPath, opts), apps.ErrAlreadyExists)
}

func TestAppsUpdate_NothingToUpdate(t *testing.T) {
	t.Parallel()
	err := AppsUpdate(context.Background(), &bytes.Buffer{}, writeConfig(t, ""), "nginx", UpdateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
}

func TestAppsPurge_Running(t *testing.T) {
	t.Parallel()
	ctx := testutil.TestContext(t)
	cfgPath := writeConfig(t, "")
	require.NoError(t, AppsCreate(ctx, &bytes.Buffer{}, cfgPath, CreateOptions{
		ReleaseName: "redis", ChartURL: "bitnami/redis", Namespace: "cache",
	}))

	assert.ErrorIs(t, AppsPurge(ctx, &bytes.Buffer{}, cfgPath, "redis"), apps.ErrInvalidArgument)
}

func TestReadValuesFile(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		file    string
		content string
		want    apps.Values
		wantErr bool
	}{
		{
			name:    "yaml",
			file:    "values.yaml",
			content: "image:\n  tag: \"1.25\"\nreplicas: 3\n",
			want:    apps.Values{"image": map[string]any{"tag": "1.25"}, "replicas": float64(3)},
		},
		{
			name:    "json",
			file:    "values.json",
			content: `{"enabled": true, "ports": [80, 443]}`,
			want:    apps.Values{"enabled": true, "ports": []any{float64(80), float64(443)}},
		},
		{
			name:    "empty",
			file:    "empty.yaml",
			content: "",
			want:    apps.Values{},
		},
		{
			name:    "not a map",
			file:    "list.yaml",
			content: "- a\n- b\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := readValuesFile(writeValues(t, tt.file, tt.content))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadValuesFile_Missing(t *testing.T) {
	t.Parallel()
	_, err := readValuesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
