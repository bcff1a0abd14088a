package reconciler

import (
	"context"

	"github.com/imamik/helmsync/internal/apps"
)

// desiredStateStore is the part of the store API the reconciler uses.
// *apps.Service satisfies it.
type desiredStateStore interface {
	// ListAll returns every record, in no defined order.
	ListAll(ctx context.Context) ([]apps.ManagedApplication, error)

	// Purge permanently removes a deleted record.
	Purge(ctx context.Context, releaseName string) error
}
