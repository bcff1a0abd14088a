package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/imamik/helmsync/internal/apps"
	"github.com/imamik/helmsync/internal/config"
	"github.com/imamik/helmsync/internal/store"
	"github.com/imamik/helmsync/internal/util/prerequisites"
)

// DoctorReport is the result of the doctor checks.
type DoctorReport struct {
	ConfigFile string      `json:"configFile,omitempty"`
	DriverMode string      `json:"driverMode"`
	Interval   string      `json:"interval"`
	Store      StoreHealth `json:"store"`
	Tools      []ToolCheck `json:"tools"`
	Healthy    bool        `json:"healthy"`
}

// StoreHealth reports whether the desired-state store is reachable.
type StoreHealth struct {
	Driver    string `json:"driver"`
	Address   string `json:"address,omitempty"`
	Reachable bool   `json:"reachable"`
	Records   int    `json:"records"`
	Error     string `json:"error,omitempty"`
}

// ToolCheck is the outcome of looking up one external tool.
type ToolCheck struct {
	Name       string `json:"name"`
	Required   bool   `json:"required"`
	Found      bool   `json:"found"`
	Path       string `json:"path,omitempty"`
	Version    string `json:"version,omitempty"`
	InstallURL string `json:"installUrl,omitempty"`
}

// ErrDoctorFailed is returned when a required check fails.
var ErrDoctorFailed = errors.New("doctor found problems")

// Doctor checks the configuration, the store and the external tools the
// selected driver needs.
func Doctor(ctx context.Context, w io.Writer, configPath string, jsonOutput bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if configPath == "" && fileExists(defaultConfigFile) {
		configPath = defaultConfigFile
	}

	report := &DoctorReport{
		ConfigFile: configPath,
		DriverMode: cfg.Driver.Mode,
		Interval:   cfg.Interval.String(),
		Store:      probeStore(ctx, cfg.Store),
		Tools:      probeTools(ctx, cfg),
	}
	report.Healthy = report.Store.Reachable
	for _, tool := range report.Tools {
		if tool.Required && !tool.Found {
			report.Healthy = false
		}
	}

	if jsonOutput {
		err = printJSON(w, report)
	} else {
		_, err = fmt.Fprint(w, renderDoctor(report, isInteractiveTTY(w)))
	}
	if err != nil {
		return err
	}
	if !report.Healthy {
		return ErrDoctorFailed
	}
	return nil
}

// probeStore opens the store once, without waiting for it.
func probeStore(ctx context.Context, cfg config.StoreConfig) StoreHealth {
	health := StoreHealth{Driver: cfg.Driver, Address: cfg.Redacted()}

	cfg.ConnectRetries = 0
	st, err := openStore(ctx, cfg, store.Options{})
	if err != nil {
		health.Error = err.Error()
		return health
	}
	defer func() { _ = st.Close() }()

	list, err := apps.NewService(st).ListAll(ctx)
	if err != nil {
		health.Error = err.Error()
		return health
	}
	health.Reachable = true
	health.Records = len(list)
	return health
}

func probeTools(ctx context.Context, cfg *config.Config) []ToolCheck {
	tools := append([]prerequisites.Tool{prerequisites.Helm(cfg.Driver.HelmBinary, cfg.Driver.Mode == config.DriverCLI)},
		prerequisites.OptionalTools()...)

	results := checkTools(ctx, tools)
	checks := make([]ToolCheck, 0, len(results.Results))
	for _, r := range results.Results {
		checks = append(checks, ToolCheck{
			Name:       r.Tool.Name,
			Required:   r.Tool.Required,
			Found:      r.Found,
			Path:       r.Path,
			Version:    r.Version,
			InstallURL: r.Tool.InstallURL,
		})
	}
	return checks
}
