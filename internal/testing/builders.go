package testing

import (
	"maps"
	"time"

	"github.com/imamik/helmsync/internal/apps"
)

// DefaultTimestamp is the createdAt and updatedAt of built records unless
// overridden.
var DefaultTimestamp = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// AppBuilder provides a fluent interface for constructing records.
// Each method returns a new builder (immutable) for chaining.
type AppBuilder struct {
	app apps.ManagedApplication
}

// NewAppBuilder creates a builder for a valid running record.
func NewAppBuilder(releaseName string) *AppBuilder {
	return &AppBuilder{
		app: apps.ManagedApplication{
			ReleaseName:  releaseName,
			ChartURL:     "oci://registry-1.docker.io/bitnamicharts/" + releaseName,
			ChartVersion: "1.0.0",
			Namespace:    "default",
			Values:       apps.Values{},
			Status:       apps.StatusRunning,
			CreatedAt:    DefaultTimestamp,
			UpdatedAt:    DefaultTimestamp,
		},
	}
}

// WithNamespace sets the target namespace.
func (b *AppBuilder) WithNamespace(ns string) *AppBuilder {
	nb := b.clone()
	nb.app.Namespace = ns
	return nb
}

// WithChart sets the chart reference and version.
func (b *AppBuilder) WithChart(chartURL, version string) *AppBuilder {
	nb := b.clone()
	nb.app.ChartURL = chartURL
	nb.app.ChartVersion = version
	return nb
}

// WithValue sets one top-level value.
func (b *AppBuilder) WithValue(key string, value any) *AppBuilder {
	nb := b.clone()
	nb.app.Values[key] = value
	return nb
}

// Deleted marks the record deleted.
func (b *AppBuilder) Deleted() *AppBuilder {
	nb := b.clone()
	nb.app.Status = apps.StatusDeleted
	return nb
}

// UpdatedAt sets updatedAt, and createdAt when it would be later.
func (b *AppBuilder) UpdatedAt(t time.Time) *AppBuilder {
	nb := b.clone()
	nb.app.UpdatedAt = t
	if nb.app.CreatedAt.After(t) {
		nb.app.CreatedAt = t
	}
	return nb
}

// Build returns the record.
func (b *AppBuilder) Build() apps.ManagedApplication {
	return b.clone().app
}

func (b *AppBuilder) clone() *AppBuilder {
	nb := &AppBuilder{app: b.app}
	nb.app.Values = maps.Clone(b.app.Values)
	if nb.app.Values == nil {
		nb.app.Values = apps.Values{}
	}
	return nb
}
