package handlers

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/helmsync/internal/reconciler"
	testutil "github.com/imamik/helmsync/internal/testing"
)

func TestRenderApp(t *testing.T) {
	t.Parallel()
	app := testutil.NewAppBuilder("nginx").
		WithNamespace("web").
		WithChart("bitnami/nginx", "").
		WithValue("replicaCount", 2).
		Build()
	out, err := renderApp(app, false)
	require.NoError(t, err)

	assert.Contains(t, out, "Version:    latest")
	assert.Contains(t, out, "Status:     running")
	assert.Contains(t, out, "    replicaCount: 2")
}

func TestRenderSweep(t *testing.T) {
	t.Parallel()
	res := &reconciler.SweepResult{
		ID:        "sweep-1",
		Total:     2,
		Running:   2,
		Installed: 1,
		Failed:    1,
		Duration:  1500 * time.Millisecond,
		Records: []reconciler.RecordResult{
			{ReleaseName: "ok", Namespace: "web", Action: reconciler.InstallOrUpgrade},
			{ReleaseName: "broken", Namespace: "web", Action: reconciler.InstallOrUpgrade, Err: errors.New("timed out")},
		},
	}

	out := renderSweep(res, false)
	assert.Contains(t, out, "Sweep sweep-1")
	assert.Contains(t, out, "Records:      2 (2 running)")
	assert.Contains(t, out, "Failed:       1")
	assert.Contains(t, out, "[!!]  web/broken (install-or-upgrade): timed out")
	assert.NotContains(t, out, "web/ok")
}

func TestPainter(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "plain", painter{}.paint(failedStyle, "plain"))
	assert.Contains(t, painter{}.row("helm", false, false, ""), warnMark)
	assert.Contains(t, painter{}.row("helm", false, true, ""), crossMark)
	assert.Contains(t, painter{}.row("helm", true, true, "v3"), checkMark)
}
