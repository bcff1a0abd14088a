// Package config defines the runtime configuration of helmsync.
//
// Configuration is read from an optional YAML file, then overridden by
// environment variables, then validated. Every field has a default, so an
// empty file (or none at all) yields a usable configuration against a local
// PostgreSQL instance.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// Driver modes.
const (
	DriverCLI = "cli"
	DriverSDK = "sdk"
)

// Config is the complete helmsync configuration.
type Config struct {
	// Interval is the fixed period between reconciliation sweeps.
	Interval time.Duration `yaml:"interval"`

	// Concurrency is the number of records reconciled in parallel within a
	// sweep. 1 processes records one at a time.
	Concurrency int `yaml:"concurrency"`

	// DriverTimeout bounds every single driver call.
	DriverTimeout time.Duration `yaml:"driver_timeout"`

	// PurgeAfterUninstall removes a deleted record from the store once its
	// release has been uninstalled.
	PurgeAfterUninstall bool `yaml:"purge_after_uninstall"`

	// Kubeconfig is the path of the kubeconfig used by helm. Empty means
	// the default loading rules (KUBECONFIG, ~/.kube/config, in-cluster).
	Kubeconfig string `yaml:"kubeconfig"`

	Store          StoreConfig          `yaml:"store"`
	Driver         DriverConfig         `yaml:"driver"`
	API            ServerConfig         `yaml:"api"`
	Metrics        ServerConfig         `yaml:"metrics"`
	Health         ServerConfig         `yaml:"health"`
	LeaderElection LeaderElectionConfig `yaml:"leader_election"`
}

// StoreConfig selects and locates the desired-state store.
type StoreConfig struct {
	Driver string `yaml:"driver"`

	// DSN is used verbatim when set. For sqlite it is the database path.
	DSN string `yaml:"dsn"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`

	// ConnectRetries is how many times opening the store is retried at
	// startup before giving up.
	ConnectRetries int `yaml:"connect_retries"`
}

// DriverConfig configures the deployment driver.
type DriverConfig struct {
	Mode            string `yaml:"mode"`
	HelmBinary      string `yaml:"helm_binary"`
	CreateNamespace bool   `yaml:"create_namespace"`
	Wait            bool   `yaml:"wait"`
}

// ServerConfig holds a listen address.
type ServerConfig struct {
	BindAddress string `yaml:"bind_address"`
}

// LeaderElectionConfig configures leader election between replicas.
type LeaderElectionConfig struct {
	Enabled   bool   `yaml:"enabled"`
	ID        string `yaml:"id"`
	Namespace string `yaml:"namespace"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Interval:      10 * time.Second,
		Concurrency:   1,
		DriverTimeout: 5 * time.Minute,
		Store: StoreConfig{
			Driver:         StorePostgres,
			Host:           "localhost",
			Port:           5432,
			Username:       "postgres",
			Password:       "postgres",
			Database:       "helm_apps",
			SSLMode:        "disable",
			ConnectRetries: 5,
		},
		Driver: DriverConfig{
			Mode:            DriverCLI,
			HelmBinary:      "helm",
			CreateNamespace: true,
		},
		API:     ServerConfig{BindAddress: ":3000"},
		Metrics: ServerConfig{BindAddress: ":8080"},
		Health:  ServerConfig{BindAddress: ":8081"},
		LeaderElection: LeaderElectionConfig{
			ID: "helmsync",
		},
	}
}

// PostgresDSN returns the connection string for the postgres backend.
// An explicit DSN wins over the individual fields.
func (s StoreConfig) PostgresDSN() string {
	if s.DSN != "" {
		return s.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(s.Username, s.Password),
		Host:   fmt.Sprintf("%s:%d", s.Host, s.Port),
		Path:   "/" + s.Database,
	}
	if s.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{s.SSLMode}}.Encode()
	}
	return u.String()
}

// Redacted returns the DSN with any password masked, for logging.
func (s StoreConfig) Redacted() string {
	switch s.Driver {
	case StorePostgres:
		u, err := url.Parse(s.PostgresDSN())
		if err != nil {
			return "<unparseable dsn>"
		}
		return u.Redacted()
	default:
		return s.DSN
	}
}
