package app

import (
	"fmt"
	"strings"

	"cellplot/internal/config"
	"cellplot/internal/preset"
)

type StartupSummary struct {
	HTTPAddr string
	Chart    config.ChartConfig
	Export   config.ExportConfig
	Store    config.StoreConfig
	Presets  []string
}

func newStartupSummary(cfg *config.Config, presets *preset.Registry) *StartupSummary {
	s := &StartupSummary{
		HTTPAddr: cfg.App.HTTPAddr,
		Chart:    cfg.Chart,
		Export:   cfg.Export,
		Store:    cfg.Store,
	}
	if presets != nil {
		s.Presets = presets.Snapshot().Names()
	}
	return s
}

func (s *StartupSummary) String() string {
	var b strings.Builder
	line := strings.Repeat("=", 60)
	b.WriteString(line + "\n")
	b.WriteString("STARTUP SUMMARY\n")
	b.WriteString(line + "\n")

	b.WriteString("[HTTP]\n")
	fmt.Fprintf(&b, "  addr: %s\n\n", s.HTTPAddr)

	b.WriteString("[CHART]\n")
	fmt.Fprintf(&b, "  size: %dx%d  theme: %s\n", s.Chart.Width, s.Chart.Height, s.Chart.Theme)
	fmt.Fprintf(&b, "  stacked=%t horizontal=%t percentage=%t sort=%s\n",
		s.Chart.Stacked, s.Chart.Horizontal, s.Chart.Percentage, orDash(s.Chart.SortBy))
	fmt.Fprintf(&b, "  presets: %s\n\n", formatList(s.Presets))

	b.WriteString("[EXPORT]\n")
	if s.Export.Enabled {
		fmt.Fprintf(&b, "  enabled  timeout=%s  rate=%d/min burst=%d  name=%s\n\n",
			s.Export.Timeout(), s.Export.RatePerMinute, s.Export.Burst, s.Export.DownloadName)
	} else {
		b.WriteString("  disabled (html only)\n\n")
	}

	b.WriteString("[STORE]\n")
	fmt.Fprintf(&b, "  datasets: %s\n", s.Store.DatasetPath)
	fmt.Fprintf(&b, "  exports:  %s\n", s.Store.ExportLogPath)
	b.WriteString(line)
	return b.String()
}

func (s *StartupSummary) Print() {
	fmt.Println(s.String())
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
