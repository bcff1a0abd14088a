package apps

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// timestampPrecision matches the resolution of PostgreSQL timestamps, so a
// value read back compares equal to the value written.
const timestampPrecision = time.Microsecond

// Service is the desired-state store API. It validates input, enforces the
// status state machine and stamps updatedAt on every mutation.
type Service struct {
	repo Repository
	now  func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service backed by repo.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new record. Status defaults to running.
func (s *Service) Create(ctx context.Context, app ManagedApplication) (ManagedApplication, error) {
	if app.Status == "" {
		app.Status = StatusRunning
	}
	if app.Values == nil {
		app.Values = Values{}
	}
	if err := app.Validate(); err != nil {
		return ManagedApplication{}, err
	}

	now := s.timestamp()
	app.CreatedAt = now
	app.UpdatedAt = now

	created, err := s.repo.Create(ctx, app)
	if err != nil {
		return ManagedApplication{}, fmt.Errorf("create %q: %w", app.ReleaseName, err)
	}
	return created, nil
}

// ListAll returns every record, including deleted ones, in store order.
func (s *Service) ListAll(ctx context.Context) ([]ManagedApplication, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return list, nil
}

// FindByName returns the record for releaseName or ErrNotFound.
func (s *Service) FindByName(ctx context.Context, releaseName string) (ManagedApplication, error) {
	app, err := s.repo.Get(ctx, releaseName)
	if err != nil {
		return ManagedApplication{}, fmt.Errorf("find %q: %w", releaseName, err)
	}
	return app, nil
}

// UpdateFields applies patch to the record and bumps updatedAt.
//
// An empty patch is a no-op and returns the current record unchanged, so
// that it does not trigger a redeploy.
func (s *Service) UpdateFields(ctx context.Context, releaseName string, patch Patch) (ManagedApplication, error) {
	current, err := s.repo.Get(ctx, releaseName)
	if err != nil {
		return ManagedApplication{}, fmt.Errorf("update %q: %w", releaseName, err)
	}
	if patch.IsEmpty() {
		if _, err := patch.apply(current); err != nil {
			return ManagedApplication{}, err
		}
		return current, nil
	}

	next, err := patch.apply(current)
	if err != nil {
		return ManagedApplication{}, err
	}
	if next.LoadErr != nil {
		// The stored values are unreadable. Only a deleted record may be
		// written without new values; its values are reset to empty.
		if next.Status != StatusDeleted {
			return ManagedApplication{}, fmt.Errorf("update %q: supply new values: %w", releaseName, next.LoadErr)
		}
		next.Values = Values{}
		next.LoadErr = nil
	}
	if err := next.Validate(); err != nil {
		return ManagedApplication{}, err
	}
	next.UpdatedAt = s.nextUpdatedAt(current.UpdatedAt)

	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		return ManagedApplication{}, fmt.Errorf("update %q: %w", releaseName, err)
	}
	return updated, nil
}

// MarkDeleted sets the record's status to deleted. Marking an already
// deleted record is a no-op.
func (s *Service) MarkDeleted(ctx context.Context, releaseName string) (ManagedApplication, error) {
	current, err := s.repo.Get(ctx, releaseName)
	if err != nil {
		return ManagedApplication{}, fmt.Errorf("delete %q: %w", releaseName, err)
	}
	if current.Status == StatusDeleted {
		return current, nil
	}
	deleted := StatusDeleted
	return s.UpdateFields(ctx, releaseName, Patch{Status: &deleted})
}

// Purge permanently removes a deleted record. Running records must be
// marked deleted first so the reconciler gets a chance to uninstall them.
func (s *Service) Purge(ctx context.Context, releaseName string) error {
	current, err := s.repo.Get(ctx, releaseName)
	if err != nil {
		return fmt.Errorf("purge %q: %w", releaseName, err)
	}
	if current.Status != StatusDeleted {
		return fmt.Errorf("purge %q: release is %s, mark it deleted first: %w", releaseName, current.Status, ErrInvalidArgument)
	}
	if err := s.repo.Delete(ctx, releaseName); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("purge %q: %w", releaseName, err)
	}
	return nil
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(timestampPrecision)
}

// nextUpdatedAt returns a timestamp strictly after prev even if the clock
// has not advanced or has stepped backwards.
func (s *Service) nextUpdatedAt(prev time.Time) time.Time {
	now := s.timestamp()
	if !now.After(prev) {
		return prev.UTC().Add(timestampPrecision)
	}
	return now
}
