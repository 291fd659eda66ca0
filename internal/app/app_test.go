package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellplot/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.App.HTTPAddr = "127.0.0.1:0"
	cfg.Export.Enabled = false
	cfg.Store.DatasetPath = filepath.Join(dir, "db", "datasets.db")
	cfg.Store.ExportLogPath = filepath.Join(dir, "db", "exports.db")
	cfg.Chart.PresetPath = filepath.Join(dir, "presets.yaml")
	return cfg
}

func TestNewApp_NilConfig(t *testing.T) {
	_, err := NewApp(nil)
	assert.Error(t, err)
}

func TestBuild_WithoutPresetFile(t *testing.T) {
	app, err := NewApp(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(app.Close)
	assert.Nil(t, app.presets)
	assert.Contains(t, app.Summary.String(), "presets: (none)")
	assert.Contains(t, app.Summary.String(), "disabled (html only)")
}

func TestBuild_WiresPresetsIntoRoutes(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Chart.PresetPath, []byte("presets:\n  stacked:\n    stacked: true\n"), 0o644))

	app, err := NewAppBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	t.Cleanup(app.Close)
	require.NotNil(t, app.presets)
	assert.Contains(t, app.Summary.String(), "presets: stacked")

	w := httptest.NewRecorder()
	app.Server().Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/presets", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"stacked"`)
}

func TestBuild_InvalidPresetFileFails(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Chart.PresetPath, []byte("presets:\n  bad:\n    stacked: maybe\n"), 0o644))
	_, err := NewApp(cfg)
	assert.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	app, err := NewApp(testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.Nil(t, app.datasets, "stores are closed on exit")
}
