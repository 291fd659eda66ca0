package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Chart.validate(); err != nil {
		return err
	}
	if err := c.Export.validate(); err != nil {
		return err
	}
	return c.Store.validate()
}

var knownThemes = map[string]bool{
	"white": true, "dark": true, "chalk": true, "essos": true, "infographic": true,
	"macarons": true, "purple-passion": true, "roma": true, "romantic": true,
	"shine": true, "vintage": true, "walden": true, "westeros": true, "wonderland": true,
}

func (c *ChartConfig) validate() error {
	if c.Width < 100 || c.Height < 100 {
		return fmt.Errorf("chart.width and chart.height must be >= 100 (got %dx%d)", c.Width, c.Height)
	}
	if !knownThemes[strings.ToLower(c.Theme)] {
		return fmt.Errorf("chart.theme %q is not a known echarts theme", c.Theme)
	}
	return nil
}

func (e *ExportConfig) validate() error {
	if !e.Enabled {
		return nil
	}
	if e.TimeoutSeconds <= 0 {
		return fmt.Errorf("export.timeout_seconds must be > 0")
	}
	if e.RatePerMinute <= 0 || e.Burst <= 0 {
		return fmt.Errorf("export.rate_per_minute and export.burst must be > 0")
	}
	if strings.ContainsAny(e.DownloadName, `/\`) {
		return fmt.Errorf("export.download_name cannot contain path separators")
	}
	return nil
}

func (s *StoreConfig) validate() error {
	if strings.TrimSpace(s.DatasetPath) == "" {
		return fmt.Errorf("store.dataset_path cannot be empty")
	}
	if strings.TrimSpace(s.ExportLogPath) == "" {
		return fmt.Errorf("store.export_log_path cannot be empty")
	}
	return nil
}
