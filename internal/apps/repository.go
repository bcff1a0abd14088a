package apps

import "context"

// Repository persists ManagedApplication records keyed by release name.
//
// Implementations store timestamps as given; [Service] decides their values.
type Repository interface {
	Create(ctx context.Context, app ManagedApplication) (ManagedApplication, error)
	List(ctx context.Context) ([]ManagedApplication, error)
	Get(ctx context.Context, releaseName string) (ManagedApplication, error)
	Update(ctx context.Context, app ManagedApplication) (ManagedApplication, error)
	Delete(ctx context.Context, releaseName string) error
}
