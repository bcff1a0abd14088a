package reconciler

import (
	"github.com/imamik/helmsync/internal/apps"
	"github.com/imamik/helmsync/internal/driver"
)

// Action is what a reconcile does for one record.
type Action int

const (
	NoAction Action = iota
	InstallOrUpgrade
	Uninstall
)

func (a Action) String() string {
	switch a {
	case NoAction:
		return "none"
	case InstallOrUpgrade:
		return "install-or-upgrade"
	case Uninstall:
		return "uninstall"
	default:
		return "unknown"
	}
}

// Decide picks the action that moves actual toward desired. A nil actual
// means the release does not exist. Equal timestamps count as up to date.
func Decide(desired apps.ManagedApplication, actual *driver.ReleaseStatus) Action {
	switch desired.Status {
	case apps.StatusRunning:
		if actual == nil {
			return InstallOrUpgrade
		}
		if desired.UpdatedAt.After(actual.LastDeployed) {
			return InstallOrUpgrade
		}
		return NoAction
	case apps.StatusDeleted:
		if actual != nil {
			return Uninstall
		}
		return NoAction
	default:
		return NoAction
	}
}
