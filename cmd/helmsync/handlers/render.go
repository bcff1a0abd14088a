package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/helmsync/internal/apps"
	"github.com/imamik/helmsync/internal/reconciler"
)

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorDim    = lipgloss.Color("#6b7280")
	colorWhite  = lipgloss.Color("#f9fafb")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	okStyle = lipgloss.NewStyle().
		Foreground(colorGreen)

	failedStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

const (
	checkMark = "[OK]"
	crossMark = "[!!]"
	warnMark  = "[??]"
)

// painter applies styles only when writing to a terminal.
type painter struct {
	styled bool
}

func (p painter) paint(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

func (p painter) rule(width int) string {
	return p.paint(dimStyle, "  "+strings.Repeat("─", width))
}

// renderAppsTable lists records one per line.
func renderAppsTable(list []apps.ManagedApplication, styled bool) string {
	p := painter{styled: styled}
	var b strings.Builder

	if len(list) == 0 {
		b.WriteString(p.paint(dimStyle, "  No applications."))
		b.WriteString("\n")
		return b.String()
	}

	header := fmt.Sprintf("  %-30s %-20s %-9s %-12s %s", "RELEASE", "NAMESPACE", "STATUS", "VERSION", "UPDATED")
	b.WriteString(p.paint(dimStyle, header))
	b.WriteString("\n")

	for _, app := range list {
		status := fmt.Sprintf("%-9s", app.Status)
		if app.Status == apps.StatusDeleted {
			status = p.paint(warningStyle, status)
		} else {
			status = p.paint(okStyle, status)
		}
		version := app.ChartVersion
		if version == "" {
			version = "latest"
		}
		fmt.Fprintf(&b, "  %-30s %-20s %s %-12s %s\n",
			app.ReleaseName, app.Namespace, status, version, app.UpdatedAt.Format(time.RFC3339))
	}
	return b.String()
}

// renderApp shows a single record in detail.
func renderApp(app apps.ManagedApplication, styled bool) (string, error) {
	p := painter{styled: styled}
	var b strings.Builder

	b.WriteString(p.paint(titleStyle, "  "+app.ReleaseName))
	b.WriteString("\n")
	b.WriteString(p.rule(len(app.ReleaseName)))
	b.WriteString("\n")

	version := app.ChartVersion
	if version == "" {
		version = "latest"
	}
	fmt.Fprintf(&b, "    Namespace:  %s\n", app.Namespace)
	fmt.Fprintf(&b, "    Chart:      %s\n", app.ChartURL)
	fmt.Fprintf(&b, "    Version:    %s\n", version)
	fmt.Fprintf(&b, "    Status:     %s\n", app.Status)
	fmt.Fprintf(&b, "    Created:    %s\n", app.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "    Updated:    %s\n", app.UpdatedAt.Format(time.RFC3339Nano))

	values, err := app.Values.ToYAML()
	if err != nil {
		return "", err
	}
	b.WriteString("\n")
	b.WriteString(p.paint(sectionStyle, "  Values"))
	b.WriteString("\n")
	for _, line := range strings.Split(strings.TrimRight(string(values), "\n"), "\n") {
		b.WriteString("    " + line + "\n")
	}
	return b.String(), nil
}

// renderSweep summarizes a sweep and lists failed records.
func renderSweep(res *reconciler.SweepResult, styled bool) string {
	p := painter{styled: styled}
	var b strings.Builder

	b.WriteString(p.paint(titleStyle, "  Sweep "+res.ID))
	b.WriteString("\n")
	b.WriteString(p.rule(42))
	b.WriteString("\n")
	fmt.Fprintf(&b, "    Records:      %d (%d running)\n", res.Total, res.Running)
	fmt.Fprintf(&b, "    Installed:    %d\n", res.Installed)
	fmt.Fprintf(&b, "    Uninstalled:  %d\n", res.Uninstalled)
	fmt.Fprintf(&b, "    Unchanged:    %d\n", res.Unchanged)

	failed := fmt.Sprintf("%d", res.Failed)
	if res.Failed > 0 {
		failed = p.paint(failedStyle, failed)
	}
	fmt.Fprintf(&b, "    Failed:       %s\n", failed)
	fmt.Fprintf(&b, "    Duration:     %s\n", res.Duration.Round(time.Millisecond))

	for _, rec := range res.Failures() {
		fmt.Fprintf(&b, "  %s  %s/%s (%s): %v\n",
			p.paint(failedStyle, crossMark), rec.Namespace, rec.ReleaseName, rec.Action, rec.Err)
	}
	return b.String()
}

// renderDoctor prints the diagnostic report.
func renderDoctor(r *DoctorReport, styled bool) string {
	p := painter{styled: styled}
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(p.paint(titleStyle, "  helmsync doctor"))
	b.WriteString("\n")
	b.WriteString(p.rule(35))
	b.WriteString("\n\n")

	b.WriteString(p.paint(sectionStyle, "  Configuration"))
	b.WriteString("\n")
	configFile := r.ConfigFile
	if configFile == "" {
		configFile = "(defaults and environment)"
	}
	fmt.Fprintf(&b, "    File:      %s\n", configFile)
	fmt.Fprintf(&b, "    Driver:    %s\n", r.DriverMode)
	fmt.Fprintf(&b, "    Interval:  %s\n", r.Interval)
	b.WriteString("\n")

	b.WriteString(p.paint(sectionStyle, "  Store"))
	b.WriteString("\n")
	storeExtra := r.Store.Address
	if r.Store.Reachable {
		storeExtra = fmt.Sprintf("%s, %d records", r.Store.Address, r.Store.Records)
	} else if r.Store.Error != "" {
		storeExtra = r.Store.Error
	}
	b.WriteString(p.row(r.Store.Driver, r.Store.Reachable, true, storeExtra))
	b.WriteString("\n")

	b.WriteString(p.paint(sectionStyle, "  Tools"))
	b.WriteString("\n")
	for _, tool := range r.Tools {
		extra := tool.Version
		if !tool.Found {
			extra = "not found, see " + tool.InstallURL
		}
		b.WriteString(p.row(tool.Name, tool.Found, tool.Required, extra))
	}
	b.WriteString("\n")

	if r.Healthy {
		b.WriteString(p.paint(okStyle, "  Ready to reconcile."))
	} else {
		b.WriteString(p.paint(failedStyle, "  Problems found, see above."))
	}
	b.WriteString("\n")
	return b.String()
}

func (p painter) row(name string, ok, required bool, extra string) string {
	indicator := p.paint(okStyle, checkMark)
	switch {
	case !ok && required:
		indicator = p.paint(failedStyle, crossMark)
	case !ok:
		indicator = p.paint(warningStyle, warnMark)
	}
	if extra == "" {
		return fmt.Sprintf("  %s  %s\n", indicator, name)
	}
	return fmt.Sprintf("  %s  %-20s %s\n", indicator, name, extra)
}
