package config

import (
	"os"
	"strconv"
	"time"
)

// ApplyEnv overrides configuration values from environment variables.
// Unset or unparseable variables leave the current value in place.
//
// Environment Variables:
//   - HELMSYNC_INTERVAL, HELMSYNC_CONCURRENCY, HELMSYNC_DRIVER_TIMEOUT
//   - HELMSYNC_PURGE_AFTER_UNINSTALL
//   - HELMSYNC_KUBECONFIG or KUBECONFIG_PATH
//   - HELMSYNC_STORE_DRIVER, HELMSYNC_STORE_DSN, HELMSYNC_STORE_SSLMODE
//   - DB_HOST, DB_PORT, DB_USERNAME, DB_PASSWORD, DB_DATABASE
//   - HELMSYNC_DRIVER_MODE, HELMSYNC_HELM_BINARY
//   - HELMSYNC_API_BIND_ADDRESS, HELMSYNC_METRICS_BIND_ADDRESS, HELMSYNC_HEALTH_BIND_ADDRESS
//   - HELMSYNC_LEADER_ELECT
func (c *Config) ApplyEnv() {
	c.Interval = parseDuration("HELMSYNC_INTERVAL", c.Interval)
	c.Concurrency = parseInt("HELMSYNC_CONCURRENCY", c.Concurrency)
	c.DriverTimeout = parseDuration("HELMSYNC_DRIVER_TIMEOUT", c.DriverTimeout)
	c.PurgeAfterUninstall = parseBool("HELMSYNC_PURGE_AFTER_UNINSTALL", c.PurgeAfterUninstall)
	c.Kubeconfig = parseString("KUBECONFIG_PATH", c.Kubeconfig)
	c.Kubeconfig = parseString("HELMSYNC_KUBECONFIG", c.Kubeconfig)

	c.Store.Driver = parseString("HELMSYNC_STORE_DRIVER", c.Store.Driver)
	c.Store.DSN = parseString("HELMSYNC_STORE_DSN", c.Store.DSN)
	c.Store.Host = parseString("DB_HOST", c.Store.Host)
	c.Store.Port = parseInt("DB_PORT", c.Store.Port)
	c.Store.Username = parseString("DB_USERNAME", c.Store.Username)
	c.Store.Password = parseString("DB_PASSWORD", c.Store.Password)
	c.Store.Database = parseString("DB_DATABASE", c.Store.Database)
	c.Store.SSLMode = parseString("HELMSYNC_STORE_SSLMODE", c.Store.SSLMode)

	c.Driver.Mode = parseString("HELMSYNC_DRIVER_MODE", c.Driver.Mode)
	c.Driver.HelmBinary = parseString("HELMSYNC_HELM_BINARY", c.Driver.HelmBinary)

	c.API.BindAddress = parseString("HELMSYNC_API_BIND_ADDRESS", c.API.BindAddress)
	c.Metrics.BindAddress = parseString("HELMSYNC_METRICS_BIND_ADDRESS", c.Metrics.BindAddress)
	c.Health.BindAddress = parseString("HELMSYNC_HEALTH_BIND_ADDRESS", c.Health.BindAddress)
	c.LeaderElection.Enabled = parseBool("HELMSYNC_LEADER_ELECT", c.LeaderElection.Enabled)
}

func parseString(envVar, defaultVal string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultVal
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}

func parseBool(envVar string, defaultVal bool) bool {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}

	return b
}
