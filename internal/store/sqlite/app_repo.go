package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/imamik/helmsync/internal/apps"
)

const selectColumns = `release_name, chart_url, chart_version, namespace, values_json, status, created_at, updated_at`

// AppRepo implements [apps.Repository] backed by SQLite.
type AppRepo struct {
	DB *sql.DB
}

func (r *AppRepo) Create(ctx context.Context, app apps.ManagedApplication) (apps.ManagedApplication, error) {
	values, err := apps.MarshalValues(app.Values)
	if err != nil {
		return apps.ManagedApplication{}, err
	}

	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO managed_applications
		 (release_name, chart_url, chart_version, namespace, values_json, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		app.ReleaseName, app.ChartURL, app.ChartVersion, app.Namespace, string(values),
		string(app.Status), toMicros(app.CreatedAt), toMicros(app.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apps.ManagedApplication{}, fmt.Errorf("application %q: %w", app.ReleaseName, apps.ErrAlreadyExists)
		}
		return apps.ManagedApplication{}, fmt.Errorf("insert application: %w", err)
	}
	return r.Get(ctx, app.ReleaseName)
}

func (r *AppRepo) List(ctx context.Context) ([]apps.ManagedApplication, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+selectColumns+` FROM managed_applications`)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var list []apps.ManagedApplication
	for rows.Next() {
		app, err := scanApp(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, app)
	}
	return list, rows.Err()
}

func (r *AppRepo) Get(ctx context.Context, releaseName string) (apps.ManagedApplication, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM managed_applications WHERE release_name = ?`,
		releaseName,
	)
	app, err := scanApp(row)
	if errors.Is(err, apps.ErrNotFound) {
		return app, fmt.Errorf("application %q: %w", releaseName, apps.ErrNotFound)
	}
	return app, err
}

func (r *AppRepo) Update(ctx context.Context, app apps.ManagedApplication) (apps.ManagedApplication, error) {
	values, err := apps.MarshalValues(app.Values)
	if err != nil {
		return apps.ManagedApplication{}, err
	}

	res, err := r.DB.ExecContext(ctx,
		`UPDATE managed_applications
		 SET chart_url = ?, chart_version = ?, namespace = ?, values_json = ?, status = ?, updated_at = ?
		 WHERE release_name = ?`,
		app.ChartURL, app.ChartVersion, app.Namespace, string(values), string(app.Status),
		toMicros(app.UpdatedAt), app.ReleaseName,
	)
	if err != nil {
		return apps.ManagedApplication{}, fmt.Errorf("update application: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apps.ManagedApplication{}, fmt.Errorf("application %q: %w", app.ReleaseName, apps.ErrNotFound)
	}
	return r.Get(ctx, app.ReleaseName)
}

func (r *AppRepo) Delete(ctx context.Context, releaseName string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM managed_applications WHERE release_name = ?`, releaseName)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("application %q: %w", releaseName, apps.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApp(s scanner) (apps.ManagedApplication, error) {
	var app apps.ManagedApplication
	var valuesJSON, status string
	var createdAt, updatedAt int64
	if err := s.Scan(&app.ReleaseName, &app.ChartURL, &app.ChartVersion, &app.Namespace,
		&valuesJSON, &status, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return app, apps.ErrNotFound
		}
		return app, fmt.Errorf("scan application: %w", err)
	}

	app.Status = apps.Status(status)
	app.CreatedAt = fromMicros(createdAt)
	app.UpdatedAt = fromMicros(updatedAt)

	values, err := apps.UnmarshalValues([]byte(valuesJSON))
	if err != nil {
		// A corrupt values column fails only its own record. The row is
		// still returned so it can be repaired, deleted or purged.
		app.LoadErr = fmt.Errorf("application %q: %w", app.ReleaseName, err)
		return app, nil
	}
	app.Values = values
	return app, nil
}
