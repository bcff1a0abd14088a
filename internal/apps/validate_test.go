package apps

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validApp() ManagedApplication {
	return ManagedApplication{
		ReleaseName:  "web",
		ChartURL:     "oci://registry-1.docker.io/bitnamicharts/nginx",
		ChartVersion: "18.2.4",
		Namespace:    "web",
		Values:       Values{"replicaCount": 1},
		Status:       StatusRunning,
	}
}

func TestManagedApplicationValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*ManagedApplication)
		field   string
		wantErr bool
	}{
		{name: "valid", mutate: func(*ManagedApplication) {}},
		{name: "repo/chart reference", mutate: func(a *ManagedApplication) { a.ChartURL = "bitnami/nginx" }},
		{name: "https tarball", mutate: func(a *ManagedApplication) { a.ChartURL = "https://charts.example.com/nginx-1.0.0.tgz" }},
		{name: "version range", mutate: func(a *ManagedApplication) { a.ChartVersion = "^18.0.0" }},
		{name: "latest version", mutate: func(a *ManagedApplication) { a.ChartVersion = "" }},
		{name: "missing release name", mutate: func(a *ManagedApplication) { a.ReleaseName = "" }, field: "releaseName", wantErr: true},
		{name: "uppercase release name", mutate: func(a *ManagedApplication) { a.ReleaseName = "Web" }, field: "releaseName", wantErr: true},
		{name: "release name too long", mutate: func(a *ManagedApplication) { a.ReleaseName = strings.Repeat("a", 54) }, field: "releaseName", wantErr: true},
		{name: "flag-like release name", mutate: func(a *ManagedApplication) { a.ReleaseName = "--debug" }, field: "releaseName", wantErr: true},
		{name: "missing namespace", mutate: func(a *ManagedApplication) { a.Namespace = "" }, field: "namespace", wantErr: true},
		{name: "dotted namespace", mutate: func(a *ManagedApplication) { a.Namespace = "a.b" }, field: "namespace", wantErr: true},
		{name: "missing chart", mutate: func(a *ManagedApplication) { a.ChartURL = " " }, field: "chartUrl", wantErr: true},
		{name: "flag-like chart", mutate: func(a *ManagedApplication) { a.ChartURL = "--post-renderer=/bin/sh" }, field: "chartUrl", wantErr: true},
		{name: "chart with spaces", mutate: func(a *ManagedApplication) { a.ChartURL = "nginx; rm -rf /" }, field: "chartUrl", wantErr: true},
		{name: "unsupported scheme", mutate: func(a *ManagedApplication) { a.ChartURL = "ftp://example.com/chart.tgz" }, field: "chartUrl", wantErr: true},
		{name: "url without host", mutate: func(a *ManagedApplication) { a.ChartURL = "oci:///chart" }, field: "chartUrl", wantErr: true},
		{name: "bad version", mutate: func(a *ManagedApplication) { a.ChartVersion = "not-a-version" }, field: "chartVersion", wantErr: true},
		{name: "flag-like version", mutate: func(a *ManagedApplication) { a.ChartVersion = "--devel" }, field: "chartVersion", wantErr: true},
		{name: "unknown status", mutate: func(a *ManagedApplication) { a.Status = "paused" }, field: "status", wantErr: true},
		{name: "unencodable values", mutate: func(a *ManagedApplication) { a.Values = Values{"f": func() {}} }, field: "values", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			app := validApp()
			tt.mutate(&app)

			err := app.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()
	st, err := ParseStatus("RUNNING")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, st)

	st, err = ParseStatus(" deleted ")
	require.NoError(t, err)
	assert.Equal(t, StatusDeleted, st)

	_, err = ParseStatus("gone")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStatus_UnmarshalJSON(t *testing.T) {
	t.Parallel()
	var app ManagedApplication
	require.NoError(t, json.Unmarshal([]byte(`{"releaseName":"web","status":"DELETED"}`), &app))
	assert.Equal(t, StatusDeleted, app.Status)

	var patch Patch
	require.NoError(t, json.Unmarshal([]byte(`{"status":""}`), &patch))
	require.NotNil(t, patch.Status)
	assert.Equal(t, Status(""), *patch.Status)

	err := json.Unmarshal([]byte(`{"status":"paused"}`), &app)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
