package app

import (
	"context"
	"fmt"

	"cellplot/internal/config"
	"cellplot/internal/export"
	"cellplot/internal/logger"
	"cellplot/internal/preset"
	"cellplot/internal/store"
	apihttp "cellplot/internal/transport/http/api"

	"golang.org/x/sync/errgroup"
)

// App 负责应用级编排：加载配置→初始化依赖→启动 HTTP 服务。
type App struct {
	cfg      *config.Config
	server   *apihttp.Server
	datasets *store.DatasetStore
	exports  *store.ExportLog
	presets  *preset.Registry
	Summary  *StartupSummary
}

// NewApp 根据配置构建应用对象（不启动）
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run 启动 HTTP 服务，ctx 取消后关闭存储。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.server == nil {
		return fmt.Errorf("http server not initialized")
	}
	defer a.Close()

	if a.Summary != nil {
		a.Summary.Print()
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	if a.cfg.Export.Enabled {
		group.Go(func() error {
			// a missing browser only disables png/pdf/svg, html keeps working
			if err := export.EnsureHeadless(ctx); err != nil {
				logger.Warnf("headless chrome unavailable, browser exports will fail: %v", err)
			}
			return nil
		})
	}
	return group.Wait()
}

// Close releases the stores. Safe to call more than once.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.datasets != nil {
		if err := a.datasets.Close(); err != nil {
			logger.Warnf("close dataset store: %v", err)
		}
		a.datasets = nil
	}
	if a.exports != nil {
		if err := a.exports.Close(); err != nil {
			logger.Warnf("close export log: %v", err)
		}
		a.exports = nil
	}
}

// Server exposes the HTTP server (for tests and embedding).
func (a *App) Server() *apihttp.Server {
	if a == nil {
		return nil
	}
	return a.server
}
