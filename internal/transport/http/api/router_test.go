package apihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellplot/internal/chart"
	"cellplot/internal/config"
	"cellplot/internal/export"
	"cellplot/internal/store"
)

type stubBrowser struct{}

func (stubBrowser) Capture(_ context.Context, _ []byte, f export.Format, _, _ int) ([]byte, error) {
	return []byte("<" + string(f) + "/>"), nil
}

type testEnv struct {
	handler http.Handler
	exports *store.ExportLog
}

func newTestEnv(t *testing.T, burst int) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	datasets, err := store.NewDatasetStore(filepath.Join(dir, "datasets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = datasets.Close() })
	exports, err := store.NewExportLog(filepath.Join(dir, "exports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = exports.Close() })

	exporter := export.New(export.Options{Enabled: true, RatePerMinute: 1, Burst: burst}, stubBrowser{})
	svc := chart.NewService(config.Default().Chart, "bar_chart", chart.Deps{
		Exporter: exporter,
		Exports:  exports,
		Datasets: datasets,
	})
	srv, err := NewServer(ServerConfig{Charts: svc, Datasets: datasets, Exports: exports})
	require.NoError(t, err)
	return testEnv{handler: srv.Handler(), exports: exports}
}

func (e testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

const multiBody = `{
  "horizontal": [
    {"uniqueSampleKey": "s1", "value": "Lung"},
    {"uniqueSampleKey": "s2", "value": ["Lung", "Skin"]}
  ],
  "vertical": [
    {"uniqueSampleKey": "s1", "value": "T"},
    {"uniqueSampleKey": "s2", "value": "B"}
  ],
  "horizontalLabel": "Cancer Type",
  "options": {"stacked": true, "percentage": true}
}`

func TestNewServer_RequiresCharts(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, 1)
	w := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMultiCategory(t *testing.T) {
	env := newTestEnv(t, 1)
	w := env.do(t, http.MethodPost, "/api/charts/multi-category", multiBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res chart.MultiCategoryResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, []string{"Lung", "Skin"}, res.Categories)
	assert.Equal(t, "Cancer Type", res.AxisLabel)
	assert.True(t, res.Applied.Stacked)
	require.Len(t, res.Bars, 2)
}

func TestMultiCategory_RejectsInvalidBody(t *testing.T) {
	env := newTestEnv(t, 1)
	cases := map[string]string{
		"missing key":    `{"horizontal": [{"value": "Lung"}]}`,
		"object value":   `{"vertical": [{"uniqueSampleKey": "s1", "value": {"a": 1}}]}`,
		"bad option":     `{"options": {"stacked": "yes"}}`,
		"not json":       `{`,
		"unknown preset": `{"options": {"preset": "nope"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/charts/multi-category", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestBins(t *testing.T) {
	env := newTestEnv(t, 1)
	body := `{"bins": [
	  {"id": "age", "count": 3, "start": 20, "end": 30},
	  {"id": "age", "count": 1, "specialValue": ">", "start": 80},
	  {"id": "age", "count": 2, "specialValue": "NA"}
	]}`
	w := env.do(t, http.MethodPost, "/api/charts/bins", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res chart.BinsResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "age", res.Title)
	assert.Equal(t, []string{"20", "> 80"}, res.Labels)

	w = env.do(t, http.MethodPost, "/api/charts/bins", `{"bins": [{"id": "age", "count": -1}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBoxPlot(t *testing.T) {
	env := newTestEnv(t, 1)
	body := `{"groups": [{"name": "liver", "observations": [{"parentId": "s1", "tissuename": "liver", "value": "2.5", "x": 1}]}]}`
	w := env.do(t, http.MethodPost, "/api/charts/boxplot", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"median":2.5`)
}

func TestRender_ExportsAndLogs(t *testing.T) {
	env := newTestEnv(t, 1)
	w := env.do(t, http.MethodPost, "/api/charts/multi-category/render?format=svg", multiBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="bar_chart.svg"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "<svg/>", w.Body.String())
	artifactID := w.Header().Get("X-Artifact-Id")
	assert.NotEmpty(t, artifactID)

	w = env.do(t, http.MethodGet, "/api/exports?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Exports []store.ExportEntry `json:"exports"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Exports, 1)
	assert.Equal(t, artifactID, body.Exports[0].ID)
	assert.Equal(t, chart.KindMultiCategory, body.Exports[0].Chart)

	// rate limited after the single burst token
	w = env.do(t, http.MethodPost, "/api/charts/multi-category/render?format=png", multiBody)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// html bypasses the browser and the limiter
	w = env.do(t, http.MethodPost, "/api/charts/bins/render", `{"bins": [{"id": "age", "count": 1, "start": 1, "end": 2}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `inline; filename="bar_chart.html"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), "<html")
}

func TestRender_Errors(t *testing.T) {
	env := newTestEnv(t, 1)
	w := env.do(t, http.MethodPost, "/api/charts/multi-category/render?format=gif", multiBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/charts/pie/render", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/charts/multi-category/render?format=png", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDatasets_Lifecycle(t *testing.T) {
	env := newTestEnv(t, 1)
	w := env.do(t, http.MethodPost, "/api/datasets", `{
	  "name": "cancer type",
	  "kind": "attribute",
	  "payload": [{"uniqueSampleKey": "s1", "value": "Lung"}, {"uniqueSampleKey": "s2", "value": ["A", "B"]}]
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	w = env.do(t, http.MethodGet, "/api/datasets", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cancer type")

	w = env.do(t, http.MethodGet, "/api/datasets/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"attribute"`)

	w = env.do(t, http.MethodGet, "/api/datasets/"+created.ID+"/download", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `attachment; filename="bar_chart_data.txt"`, w.Header().Get("Content-Disposition"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[2], "s2\t"))
	assert.Contains(t, lines[2], "A;B")

	w = env.do(t, http.MethodDelete, "/api/datasets/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodGet, "/api/datasets/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDatasets_ValidationAndImport(t *testing.T) {
	env := newTestEnv(t, 1)
	w := env.do(t, http.MethodPost, "/api/datasets", `{"kind": "image", "payload": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodPost, "/api/datasets", `{"kind": "attribute", "payload": [{"value": "x"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	tsv := "uniqueSampleKey\tvalue\ns1\tLung\ns2\tSkin|Lung\n"
	w = env.do(t, http.MethodPost, "/api/datasets/import?name=upload", tsv)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// the imported dataset feeds a chart by id
	body := `{"horizontalDatasetId": "` + created.ID + `", "vertical": [{"uniqueSampleKey": "s2", "value": "T"}]}`
	w = env.do(t, http.MethodPost, "/api/charts/multi-category", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res chart.MultiCategoryResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, []string{"Lung", "Skin"}, res.Categories)
}

func TestPresets_EmptyWithoutRegistry(t *testing.T) {
	env := newTestEnv(t, 1)
	w := env.do(t, http.MethodGet, "/api/presets", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"presets":{}`)
}
