package config

import (
	"strings"
	"time"
)

// Config 是 cellplot 的主配置载体。
type Config struct {
	App    AppConfig    `toml:"app"`
	Chart  ChartConfig  `toml:"chart"`
	Export ExportConfig `toml:"export"`
	Store  StoreConfig  `toml:"store"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// ChartConfig 是图表渲染的默认选项，请求或 preset 可覆盖。
type ChartConfig struct {
	Width           int     `toml:"width"`
	Height          int     `toml:"height"`
	Theme           string  `toml:"theme"`
	Stacked         bool    `toml:"stacked"`
	Horizontal      bool    `toml:"horizontal"`
	Percentage      bool    `toml:"percentage"`
	SortBy          string  `toml:"sort_by"`
	CategorySpacing float64 `toml:"category_spacing"`
	PresetPath      string  `toml:"preset_path"`
}

// ExportConfig 控制 headless Chrome 导出。
type ExportConfig struct {
	Enabled        bool   `toml:"enabled"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RenderWaitMS   int    `toml:"render_wait_ms"`
	RatePerMinute  int    `toml:"rate_per_minute"`
	Burst          int    `toml:"burst"`
	DownloadName   string `toml:"download_name"`

	// FailureThreshold 连续失败次数达到后暂停 Chrome 导出 BreakerCooldownSeconds 秒。
	FailureThreshold       int `toml:"failure_threshold"`
	BreakerCooldownSeconds int `toml:"breaker_cooldown_seconds"`
}

func (e ExportConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

func (e ExportConfig) BreakerCooldown() time.Duration {
	return time.Duration(e.BreakerCooldownSeconds) * time.Second
}

func (e ExportConfig) RenderWait() time.Duration {
	return time.Duration(e.RenderWaitMS) * time.Millisecond
}

type StoreConfig struct {
	DatasetPath   string `toml:"dataset_path"`
	ExportLogPath string `toml:"export_log_path"`
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
