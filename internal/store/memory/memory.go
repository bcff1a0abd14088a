// Package memory provides an in-process [apps.Repository] used for local
// runs without a database and as a test double.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/imamik/helmsync/internal/apps"
)

// Repo implements [apps.Repository] in memory. List returns records in
// creation order.
type Repo struct {
	mu    sync.RWMutex
	order []string
	items map[string]apps.ManagedApplication
}

// New creates an empty repository.
func New() *Repo {
	return &Repo{items: make(map[string]apps.ManagedApplication)}
}

func (r *Repo) Create(_ context.Context, app apps.ManagedApplication) (apps.ManagedApplication, error) {
	stored, err := clone(app)
	if err != nil {
		return apps.ManagedApplication{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[app.ReleaseName]; exists {
		return apps.ManagedApplication{}, fmt.Errorf("application %q: %w", app.ReleaseName, apps.ErrAlreadyExists)
	}
	r.items[app.ReleaseName] = stored
	r.order = append(r.order, app.ReleaseName)
	return clone(stored)
}

func (r *Repo) List(_ context.Context) ([]apps.ManagedApplication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]apps.ManagedApplication, 0, len(r.order))
	for _, name := range r.order {
		app, err := clone(r.items[name])
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, nil
}

func (r *Repo) Get(_ context.Context, releaseName string) (apps.ManagedApplication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.items[releaseName]
	if !ok {
		return apps.ManagedApplication{}, fmt.Errorf("application %q: %w", releaseName, apps.ErrNotFound)
	}
	return clone(app)
}

func (r *Repo) Update(_ context.Context, app apps.ManagedApplication) (apps.ManagedApplication, error) {
	stored, err := clone(app)
	if err != nil {
		return apps.ManagedApplication{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[app.ReleaseName]
	if !ok {
		return apps.ManagedApplication{}, fmt.Errorf("application %q: %w", app.ReleaseName, apps.ErrNotFound)
	}
	stored.CreatedAt = existing.CreatedAt
	r.items[app.ReleaseName] = stored
	return clone(stored)
}

func (r *Repo) Delete(_ context.Context, releaseName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[releaseName]; !ok {
		return fmt.Errorf("application %q: %w", releaseName, apps.ErrNotFound)
	}
	delete(r.items, releaseName)
	for i, name := range r.order {
		if name == releaseName {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// clone detaches the values document so callers cannot mutate stored state.
func clone(app apps.ManagedApplication) (apps.ManagedApplication, error) {
	values, err := app.Values.Clone()
	if err != nil {
		return apps.ManagedApplication{}, err
	}
	app.Values = values
	return app, nil
}
