package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"cellplot/internal/chart"
	"cellplot/internal/export"
	"cellplot/internal/preset"
	"cellplot/internal/sample"
	"cellplot/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const maxExportListLimit = 500

// ChartService is the chart facade the routes call into.
type ChartService interface {
	MultiCategory(ctx context.Context, req chart.MultiCategoryRequest) (chart.MultiCategoryResult, error)
	Bins(ctx context.Context, req chart.BinsRequest) (chart.BinsResult, error)
	BoxPlot(ctx context.Context, req chart.BoxPlotRequest) (chart.BoxPlotResult, error)
	RenderMultiCategory(ctx context.Context, req chart.MultiCategoryRequest, f export.Format) (export.Artifact, error)
	RenderBins(ctx context.Context, req chart.BinsRequest, f export.Format) (export.Artifact, error)
	RenderBoxPlot(ctx context.Context, req chart.BoxPlotRequest, f export.Format) (export.Artifact, error)
	WriteDownload(ctx context.Context, datasetID string, w io.Writer) error
}

type DatasetStore interface {
	SaveDataset(ctx context.Context, ds store.Dataset) (string, error)
	Dataset(ctx context.Context, id string) (store.Dataset, error)
	ListDatasets(ctx context.Context) ([]store.Dataset, error)
	DeleteDataset(ctx context.Context, id string) error
}

type ExportHistory interface {
	Recent(ctx context.Context, limit int) ([]store.ExportEntry, error)
}

type PresetCatalog interface {
	Snapshot() preset.Snapshot
}

// Router 挂载 /api 下的图表、数据集、导出与 preset 接口。
type Router struct {
	Charts   ChartService
	Datasets DatasetStore
	Exports  ExportHistory
	Presets  PresetCatalog
}

func NewRouter(charts ChartService, datasets DatasetStore, exports ExportHistory, presets PresetCatalog) *Router {
	return &Router{Charts: charts, Datasets: datasets, Exports: exports, Presets: presets}
}

func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	charts := group.Group("/charts")
	charts.POST("/multi-category", r.handleMultiCategory)
	charts.POST("/bins", r.handleBins)
	charts.POST("/boxplot", r.handleBoxPlot)
	charts.POST("/:kind/render", r.handleRender)

	datasets := group.Group("/datasets")
	datasets.POST("", r.handleSaveDataset)
	datasets.POST("/import", r.handleImportDataset)
	datasets.GET("", r.handleListDatasets)
	datasets.GET("/:id", r.handleGetDataset)
	datasets.DELETE("/:id", r.handleDeleteDataset)
	datasets.GET("/:id/download", r.handleDownload)

	group.GET("/exports", r.handleExports)
	group.GET("/presets", r.handlePresets)
}

func (r *Router) handleMultiCategory(c *gin.Context) {
	var req chart.MultiCategoryRequest
	if !bindValidated(c, multiCategoryRequestSchema, &req) {
		return
	}
	res, err := r.Charts.MultiCategory(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (r *Router) handleBins(c *gin.Context) {
	var req chart.BinsRequest
	if !bindValidated(c, binsRequestSchema, &req) {
		return
	}
	res, err := r.Charts.Bins(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (r *Router) handleBoxPlot(c *gin.Context) {
	var req chart.BoxPlotRequest
	if !bindValidated(c, boxPlotRequestSchema, &req) {
		return
	}
	res, err := r.Charts.BoxPlot(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (r *Router) handleRender(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		writeError(c, err)
		return
	}
	ctx := c.Request.Context()
	var art export.Artifact
	switch c.Param("kind") {
	case chart.KindMultiCategory:
		var req chart.MultiCategoryRequest
		if !bindValidated(c, multiCategoryRequestSchema, &req) {
			return
		}
		art, err = r.Charts.RenderMultiCategory(ctx, req, format)
	case chart.KindBins:
		var req chart.BinsRequest
		if !bindValidated(c, binsRequestSchema, &req) {
			return
		}
		art, err = r.Charts.RenderBins(ctx, req, format)
	case chart.KindBoxPlot:
		var req chart.BoxPlotRequest
		if !bindValidated(c, boxPlotRequestSchema, &req) {
			return
		}
		art, err = r.Charts.RenderBoxPlot(ctx, req, format)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown chart kind %q", c.Param("kind"))})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	disposition := "attachment"
	if art.Format == export.FormatHTML {
		disposition = "inline"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, art.Filename))
	c.Header("X-Artifact-Id", art.ID)
	c.Data(http.StatusOK, art.ContentType, art.Bytes)
}

type datasetBody struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Kind    store.Kind      `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

func (r *Router) handleSaveDataset(c *gin.Context) {
	if !r.requireDatasets(c) {
		return
	}
	var body datasetBody
	if !bindValidated(c, datasetRequestSchema, &body) {
		return
	}
	ds := store.Dataset{ID: body.ID, Name: body.Name, Kind: body.Kind, Payload: body.Payload}
	r.saveDataset(c, ds)
}

// handleImportDataset stores a delimited uniqueSampleKey/value file as an
// attribute dataset.
func (r *Router) handleImportDataset(c *gin.Context) {
	if !r.requireDatasets(c) {
		return
	}
	recs, err := sample.ReadRecords(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(recs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no records in upload"})
		return
	}
	payload, err := json.Marshal(recs)
	if err != nil {
		writeError(c, err)
		return
	}
	r.saveDataset(c, store.Dataset{
		Name:    strings.TrimSpace(c.Query("name")),
		Kind:    store.KindAttribute,
		Payload: payload,
	})
}

func (r *Router) saveDataset(c *gin.Context, ds store.Dataset) {
	if err := chart.ValidateDataset(ds); err != nil {
		writeError(c, err)
		return
	}
	id, err := r.Datasets.SaveDataset(c.Request.Context(), ds)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (r *Router) handleListDatasets(c *gin.Context) {
	if !r.requireDatasets(c) {
		return
	}
	list, err := r.Datasets.ListDatasets(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": list})
}

func (r *Router) handleGetDataset(c *gin.Context) {
	if !r.requireDatasets(c) {
		return
	}
	ds, err := r.Datasets.Dataset(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

func (r *Router) handleDeleteDataset(c *gin.Context) {
	if !r.requireDatasets(c) {
		return
	}
	if err := r.Datasets.DeleteDataset(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) handleDownload(c *gin.Context) {
	var buf bytes.Buffer
	if err := r.Charts.WriteDownload(c.Request.Context(), c.Param("id"), &buf); err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, sample.DownloadFilename))
	c.Data(http.StatusOK, "text/tab-separated-values; charset=utf-8", buf.Bytes())
}

func (r *Router) handleExports(c *gin.Context) {
	if r.Exports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "export log disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 {
		limit = 50
	}
	if limit > maxExportListLimit {
		limit = maxExportListLimit
	}
	entries, err := r.Exports.Recent(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exports": entries})
}

func (r *Router) handlePresets(c *gin.Context) {
	if r.Presets == nil {
		c.JSON(http.StatusOK, preset.Snapshot{Presets: map[string]preset.Preset{}})
		return
	}
	c.JSON(http.StatusOK, r.Presets.Snapshot())
}

func (r *Router) requireDatasets(c *gin.Context) bool {
	if r.Datasets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dataset storage disabled"})
		return false
	}
	return true
}

func bindValidated(c *gin.Context, schema *jsonschema.Schema, dst any) bool {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	if err := decodeValidated(raw, schema, dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, chart.ErrInvalidInput), errors.Is(err, export.ErrUnsupportedFormat):
		status = http.StatusBadRequest
	case errors.Is(err, export.ErrEmptyChart):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, export.ErrBusy):
		status = http.StatusTooManyRequests
	case errors.Is(err, export.ErrDisabled), errors.Is(err, export.ErrBrowserUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		log.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
