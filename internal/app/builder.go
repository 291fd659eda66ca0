package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"cellplot/internal/chart"
	"cellplot/internal/config"
	"cellplot/internal/export"
	"cellplot/internal/logger"
	"cellplot/internal/preset"
	"cellplot/internal/store"
	apihttp "cellplot/internal/transport/http/api"
)

type AppBuilder struct {
	cfg *config.Config

	datasetStoreFn func(string) (*store.DatasetStore, error)
	exportLogFn    func(string) (*store.ExportLog, error)
	presetsFn      func(string) (*preset.Registry, error)
	browserFn      func(config.ExportConfig) export.Browser
	httpFn         func(config.AppConfig, apihttp.ServerConfig) (*apihttp.Server, error)
}

type AppBuilderOption func(*AppBuilder)

// WithBrowser swaps the headless browser used for exports.
func WithBrowser(b export.Browser) AppBuilderOption {
	return func(ab *AppBuilder) {
		ab.browserFn = func(config.ExportConfig) export.Browser { return b }
	}
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:            cfg,
		datasetStoreFn: store.NewDatasetStore,
		exportLogFn:    store.NewExportLog,
		presetsFn:      loadPresets,
		browserFn:      chromeBrowser,
		httpFn:         buildHTTPServer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (app *App, err error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	datasets, err := b.datasetStoreFn(cfg.Store.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("open dataset store: %w", err)
	}
	defer func() {
		if err != nil {
			_ = datasets.Close()
		}
	}()
	logger.Infof("✓ dataset store: %s", cfg.Store.DatasetPath)

	exports, err := b.exportLogFn(cfg.Store.ExportLogPath)
	if err != nil {
		return nil, fmt.Errorf("open export log: %w", err)
	}
	defer func() {
		if err != nil {
			_ = exports.Close()
		}
	}()

	presets, err := b.presetsFn(cfg.Chart.PresetPath)
	if err != nil {
		return nil, err
	}

	exporter := export.New(export.Options{
		Enabled:          cfg.Export.Enabled,
		Timeout:          cfg.Export.Timeout(),
		RatePerMinute:    cfg.Export.RatePerMinute,
		Burst:            cfg.Export.Burst,
		FailureThreshold: cfg.Export.FailureThreshold,
		BreakerCooldown:  cfg.Export.BreakerCooldown(),
	}, b.browserFn(cfg.Export))

	deps := chart.Deps{
		Exporter: exporter,
		Exports:  exports,
		Datasets: datasets,
	}
	serverCfg := apihttp.ServerConfig{
		Datasets: datasets,
		Exports:  exports,
	}
	// a nil *Registry must not leak into the interface fields
	if presets != nil {
		deps.Presets = presets
		serverCfg.Presets = presets
	}
	serverCfg.Charts = chart.NewService(cfg.Chart, cfg.Export.DownloadName, deps)

	server, err := b.httpFn(cfg.App, serverCfg)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		server:   server,
		datasets: datasets,
		exports:  exports,
		presets:  presets,
		Summary:  newStartupSummary(cfg, presets),
	}, nil
}

// loadPresets treats a missing preset file as "no presets".
func loadPresets(path string) (*preset.Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logger.Warnf("preset file %s not found, presets disabled", path)
		return nil, nil
	}
	reg, err := preset.NewRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}
	reg.OnChange(func(s preset.Snapshot) {
		logger.Infof("presets reloaded (v%d): %s", s.Version, strings.Join(s.Names(), ", "))
	})
	return reg, nil
}

func chromeBrowser(cfg config.ExportConfig) export.Browser {
	return export.ChromeBrowser{RenderWait: cfg.RenderWait()}
}

func buildHTTPServer(cfg config.AppConfig, serverCfg apihttp.ServerConfig) (*apihttp.Server, error) {
	serverCfg.Addr = cfg.HTTPAddr
	server, err := apihttp.NewServer(serverCfg)
	if err != nil {
		return nil, fmt.Errorf("init http server: %w", err)
	}
	logger.Infof("✓ HTTP API listening on %s", server.Addr())
	return server, nil
}
