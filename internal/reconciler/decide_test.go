package reconciler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/imamik/helmsync/internal/apps"
	"github.com/imamik/helmsync/internal/driver"
)

var (
	t1 = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 = t1.Add(time.Minute)
)

func record(name string, status apps.Status, updatedAt time.Time) apps.ManagedApplication {
	return apps.ManagedApplication{
		ReleaseName:  name,
		ChartURL:     "bitnami/nginx",
		ChartVersion: "18.2.4",
		Namespace:    "default",
		Values:       apps.Values{},
		Status:       status,
		CreatedAt:    t1,
		UpdatedAt:    updatedAt,
	}
}

func deployedAt(ts time.Time) *driver.ReleaseStatus {
	return &driver.ReleaseStatus{Name: "web", Namespace: "default", Status: driver.StatusDeployed, LastDeployed: ts}
}

func TestDecide(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		desired apps.ManagedApplication
		actual  *driver.ReleaseStatus
		want    Action
	}{
		{"running and absent", record("web", apps.StatusRunning, t2), nil, InstallOrUpgrade},
		{"running and stale", record("web", apps.StatusRunning, t2), deployedAt(t1), InstallOrUpgrade},
		{"running and newer deploy", record("web", apps.StatusRunning, t1), deployedAt(t2), NoAction},
		{"running and equal timestamps", record("web", apps.StatusRunning, t1), deployedAt(t1), NoAction},
		{"running one microsecond newer", record("web", apps.StatusRunning, t1.Add(time.Microsecond)), deployedAt(t1), InstallOrUpgrade},
		{"running and failed release", record("web", apps.StatusRunning, t1),
			&driver.ReleaseStatus{Status: "failed", LastDeployed: t2}, NoAction},
		{"deleted and present", record("web", apps.StatusDeleted, t1), deployedAt(t2), Uninstall},
		{"deleted and absent", record("web", apps.StatusDeleted, t2), nil, NoAction},
		{"unknown status", record("web", apps.Status("paused"), t2), nil, NoAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Decide(tt.desired, tt.actual))
			assert.Equal(t, tt.want, Decide(tt.desired, tt.actual), "deciding twice gives the same action")
		})
	}
}

func TestAction_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "none", NoAction.String())
	assert.Equal(t, "install-or-upgrade", InstallOrUpgrade.String())
	assert.Equal(t, "uninstall", Uninstall.String())
	assert.Equal(t, "unknown", Action(42).String())
}
