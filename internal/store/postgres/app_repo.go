package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/imamik/helmsync/internal/apps"
)

const selectColumns = `release_name, chart_url, chart_version, namespace, values_json, status::text, created_at, updated_at`

// AppRepo implements [apps.Repository] backed by PostgreSQL.
type AppRepo struct {
	DB *sql.DB
}

func (r *AppRepo) Create(ctx context.Context, app apps.ManagedApplication) (apps.ManagedApplication, error) {
	values, err := apps.MarshalValues(app.Values)
	if err != nil {
		return apps.ManagedApplication{}, err
	}

	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO managed_applications
		 (release_name, chart_url, chart_version, namespace, values_json, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6::app_status, $7, $8)
		 RETURNING `+selectColumns,
		app.ReleaseName, app.ChartURL, app.ChartVersion, app.Namespace, string(values),
		string(app.Status), app.CreatedAt.UTC(), app.UpdatedAt.UTC(),
	)
	created, err := scanApp(row)
	if err != nil {
		if isUniqueViolation(err) {
			return apps.ManagedApplication{}, fmt.Errorf("application %q: %w", app.ReleaseName, apps.ErrAlreadyExists)
		}
		return apps.ManagedApplication{}, fmt.Errorf("insert application: %w", err)
	}
	return created, nil
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
		`SELECT `+selectColumns+` FROM managed_applications WHERE release_name = $1`,
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

	row := r.DB.QueryRowContext(ctx,
		`UPDATE managed_applications
		 SET chart_url = $1, chart_version = $2, namespace = $3, values_json = $4::jsonb,
		     status = $5::app_status, updated_at = $6
		 WHERE release_name = $7
		 RETURNING `+selectColumns,
		app.ChartURL, app.ChartVersion, app.Namespace, string(values), string(app.Status),
		app.UpdatedAt.UTC(), app.ReleaseName,
	)
	updated, err := scanApp(row)
	if errors.Is(err, apps.ErrNotFound) {
		return updated, fmt.Errorf("application %q: %w", app.ReleaseName, apps.ErrNotFound)
	}
	if err != nil {
		return updated, fmt.Errorf("update application: %w", err)
	}
	return updated, nil
}

func (r *AppRepo) Delete(ctx context.Context, releaseName string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM managed_applications WHERE release_name = $1`, releaseName)
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
	var valuesJSON []byte
	var status string
	if err := s.Scan(&app.ReleaseName, &app.ChartURL, &app.ChartVersion, &app.Namespace,
		&valuesJSON, &status, &app.CreatedAt, &app.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return app, apps.ErrNotFound
		}
		return app, err
	}

	app.Status = apps.Status(status)
	app.CreatedAt = app.CreatedAt.UTC()
	app.UpdatedAt = app.UpdatedAt.UTC()

	values, err := apps.UnmarshalValues(valuesJSON)
	if err != nil {
		// A corrupt values column fails only its own record. The row is
		// still returned so it can be repaired, deleted or purged.
		app.LoadErr = fmt.Errorf("application %q: %w", app.ReleaseName, err)
		return app, nil
	}
	app.Values = values
	return app, nil
}
