package config

import "strings"

// 默认值常量
const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultAppHTTPAddr     = ":9992"
	defaultAppLogPath      = "/data/logs/cellplot.log"
	defaultChartWidth      = 600
	defaultChartHeight     = 400
	defaultChartTheme      = "white"
	defaultChartSpacing    = 1
	defaultExportTimeout   = 20
	defaultExportWaitMS    = 800
	defaultExportRate      = 30
	defaultExportBurst     = 3
	defaultExportName      = "bar_chart"
	defaultExportFailures  = 3
	defaultExportCooldown  = 60
	defaultDatasetPath     = "/data/db/datasets.db"
	defaultExportLogPath   = "/data/db/exports.db"
	defaultChartPresetPath = "configs/presets.yaml"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Chart.applyDefaults(keys)
	c.Export.applyDefaults(keys)
	c.Store.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (c *ChartConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("chart.width", &c.Width, defaultChartWidth),
		intFieldDefault("chart.height", &c.Height, defaultChartHeight),
		stringFieldDefault("chart.theme", &c.Theme, defaultChartTheme),
		stringFieldDefault("chart.preset_path", &c.PresetPath, defaultChartPresetPath),
		fieldDefault{
			key:   "chart.category_spacing",
			need:  func() bool { return c.CategorySpacing <= 0 },
			apply: func() { c.CategorySpacing = defaultChartSpacing },
		},
	)
	c.SortBy = strings.TrimSpace(c.SortBy)
}

func (e *ExportConfig) applyDefaults(keys keySet) {
	if e == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("export.enabled", &e.Enabled, true),
		intFieldDefault("export.timeout_seconds", &e.TimeoutSeconds, defaultExportTimeout),
		intFieldDefault("export.render_wait_ms", &e.RenderWaitMS, defaultExportWaitMS),
		intFieldDefault("export.rate_per_minute", &e.RatePerMinute, defaultExportRate),
		intFieldDefault("export.burst", &e.Burst, defaultExportBurst),
		stringFieldDefault("export.download_name", &e.DownloadName, defaultExportName),
		intFieldDefault("export.failure_threshold", &e.FailureThreshold, defaultExportFailures),
		intFieldDefault("export.breaker_cooldown_seconds", &e.BreakerCooldownSeconds, defaultExportCooldown),
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.dataset_path", &s.DatasetPath, defaultDatasetPath),
		stringFieldDefault("store.export_log_path", &s.ExportLogPath, defaultExportLogPath),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return target != nil && strings.TrimSpace(*target) == "" },
		apply: func() { *target = def },
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return target != nil && *target <= 0 },
		apply: func() { *target = def },
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return target != nil },
		apply: func() { *target = def },
	}
}
