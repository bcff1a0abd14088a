package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for consistency and reports every
// problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", c.Interval))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.DriverTimeout <= 0 {
		errs = append(errs, fmt.Errorf("driver_timeout must be positive, got %s", c.DriverTimeout))
	}

	errs = append(errs, c.Store.validate()...)

	switch c.Driver.Mode {
	case DriverCLI:
		if c.Driver.HelmBinary == "" {
			errs = append(errs, errors.New("driver.helm_binary is required in cli mode"))
		}
	case DriverSDK:
	default:
		errs = append(errs, fmt.Errorf("driver.mode must be %q or %q, got %q", DriverCLI, DriverSDK, c.Driver.Mode))
	}

	if c.LeaderElection.Enabled && c.LeaderElection.ID == "" {
		errs = append(errs, errors.New("leader_election.id is required when leader election is enabled"))
	}

	return errors.Join(errs...)
}

func (s StoreConfig) validate() []error {
	var errs []error
	switch s.Driver {
	case StorePostgres:
		if s.DSN == "" {
			if s.Host == "" {
				errs = append(errs, errors.New("store.host is required for postgres"))
			}
			if s.Port <= 0 || s.Port > 65535 {
				errs = append(errs, fmt.Errorf("store.port must be between 1 and 65535, got %d", s.Port))
			}
			if s.Database == "" {
				errs = append(errs, errors.New("store.database is required for postgres"))
			}
		}
	case StoreSQLite:
		if s.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for sqlite"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("store.driver must be one of %q, %q, %q, got %q",
			StorePostgres, StoreSQLite, StoreMemory, s.Driver))
	}
	if s.ConnectRetries < 0 {
		errs = append(errs, fmt.Errorf("store.connect_retries must not be negative, got %d", s.ConnectRetries))
	}
	return errs
}
