package chart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cellplot/internal/binning"
	"cellplot/internal/boxplot"
	"cellplot/internal/config"
	"cellplot/internal/crosstab"
	"cellplot/internal/export"
	"cellplot/internal/logger"
	"cellplot/internal/ordering"
	"cellplot/internal/preset"
	"cellplot/internal/render"
	"cellplot/internal/sample"
	"cellplot/internal/store"
)

var log = logger.With("chart")

// ErrInvalidInput marks request problems the caller can fix.
var ErrInvalidInput = errors.New("invalid chart input")

// Chart kinds, also used as export log labels.
const (
	KindMultiCategory = "multi-category"
	KindBins          = "bins"
	KindBoxPlot       = "boxplot"
)

const boxPlotBaseName = "boxplot"

type PresetSource interface {
	Preset(name string) (preset.Preset, bool)
}

type Exporter interface {
	Export(ctx context.Context, base string, html []byte, f export.Format, width, height int) (export.Artifact, error)
}

type ExportRecorder interface {
	Record(ctx context.Context, e store.ExportEntry) error
}

type DatasetSource interface {
	Dataset(ctx context.Context, id string) (store.Dataset, error)
}

// Deps wires the service collaborators; any of them may be nil.
type Deps struct {
	Presets  PresetSource
	Exporter Exporter
	Exports  ExportRecorder
	Datasets DatasetSource
}

// Service composes tabulation, ordering, rendering and export.
type Service struct {
	chart      config.ChartConfig
	exportName string
	deps       Deps
}

func NewService(chart config.ChartConfig, exportName string, deps Deps) *Service {
	if strings.TrimSpace(exportName) == "" {
		exportName = "bar_chart"
	}
	return &Service{chart: chart, exportName: exportName, deps: deps}
}

func (s *Service) apply(o Options) (Applied, error) {
	var (
		p  preset.Preset
		ok bool
	)
	if name := strings.TrimSpace(o.Preset); name != "" {
		if s.deps.Presets != nil {
			p, ok = s.deps.Presets.Preset(name)
		}
		if !ok {
			return Applied{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidInput, name)
		}
	}
	return layer(s.chart, p, ok, o), nil
}

// MultiCategoryRequest carries both attribute sources, inline or by dataset id.
type MultiCategoryRequest struct {
	Horizontal          []sample.Record `json:"horizontal,omitempty"`
	Vertical            []sample.Record `json:"vertical,omitempty"`
	HorizontalDatasetID string          `json:"horizontalDatasetId,omitempty"`
	VerticalDatasetID   string          `json:"verticalDatasetId,omitempty"`
	HorizontalLabel     string          `json:"horizontalLabel,omitempty"`
	VerticalLabel       string          `json:"verticalLabel,omitempty"`
	Options             Options         `json:"options"`
}

type MultiCategoryResult struct {
	Series     []crosstab.Series  `json:"series"`
	Categories []string           `json:"categories"`
	Bars       []ordering.BarSpec `json:"bars"`
	AxisLabel  string             `json:"axisLabel,omitempty"`
	Applied    Applied            `json:"applied"`
}

// MultiCategory tabulates and orders the two attributes into bar specs.
func (s *Service) MultiCategory(ctx context.Context, req MultiCategoryRequest) (MultiCategoryResult, error) {
	applied, err := s.apply(req.Options)
	if err != nil {
		return MultiCategoryResult{}, err
	}
	horizontal, err := s.records(ctx, req.Horizontal, req.HorizontalDatasetID)
	if err != nil {
		return MultiCategoryResult{}, err
	}
	vertical, err := s.records(ctx, req.Vertical, req.VerticalDatasetID)
	if err != nil {
		return MultiCategoryResult{}, err
	}

	series := crosstab.Tabulate(horizontal, vertical, applied.Horizontal)
	minorOrder := ordering.OrderIndex(applied.MinorOrder)
	palette := render.NewPalette(applied.Colors)
	// fix colors in legend order so they survive series reversal
	for _, minor := range ordering.SortByCategory(crosstab.MinorCategories(series), func(m string) string { return m }, minorOrder) {
		palette.Color(minor)
	}
	spacing := applied.Spacing
	bars, categories := ordering.MakeBarSpecs(series, ordering.BarOptions{
		MinorOrder:    minorOrder,
		MajorOrder:    ordering.OrderIndex(applied.MajorOrder),
		Color:         palette.Color,
		CategoryCoord: func(i int) float64 { return float64(i) * spacing },
		Horizontal:    applied.Horizontal,
		Stacked:       applied.Stacked,
		Percentage:    applied.Percentage,
		SortBy:        applied.SortBy,
	})
	axis := req.HorizontalLabel
	if applied.Horizontal {
		axis = req.VerticalLabel
	}
	log.Debugf("multi-category: %d series over %d categories (sort=%q)", len(series), len(categories), applied.SortBy)
	return MultiCategoryResult{
		Series:     series,
		Categories: categories,
		Bars:       bars,
		AxisLabel:  axis,
		Applied:    applied,
	}, nil
}

// BinsRequest carries bins inline or by dataset id.
type BinsRequest struct {
	Bins      []sample.Bin `json:"bins,omitempty"`
	DatasetID string       `json:"datasetId,omitempty"`
	Options   Options      `json:"options"`
}

type BinsResult struct {
	Title   string          `json:"title"`
	Labels  []string        `json:"labels"`
	Data    []binning.Datum `json:"data"`
	Applied Applied         `json:"applied"`
}

func (s *Service) Bins(ctx context.Context, req BinsRequest) (BinsResult, error) {
	applied, err := s.apply(req.Options)
	if err != nil {
		return BinsResult{}, err
	}
	bins, err := s.bins(ctx, req.Bins, req.DatasetID)
	if err != nil {
		return BinsResult{}, err
	}
	res := binning.Normalize(bins)
	title := applied.Title
	if title == "" || res.Empty() {
		title = binning.Title(bins)
	}
	return BinsResult{Title: title, Labels: res.Labels, Data: res.Data, Applied: applied}, nil
}

// BoxPlotRequest carries grouped observations and the selection filter.
type BoxPlotRequest struct {
	Groups     []boxplot.Group `json:"groups"`
	Filter     boxplot.Filter  `json:"filter"`
	ValueLabel string          `json:"valueLabel,omitempty"`
	Options    Options         `json:"options"`
}

type BoxPlotResult struct {
	Plot    boxplot.Plot `json:"plot"`
	Applied Applied      `json:"applied"`
}

func (s *Service) BoxPlot(ctx context.Context, req BoxPlotRequest) (BoxPlotResult, error) {
	applied, err := s.apply(req.Options)
	if err != nil {
		return BoxPlotResult{}, err
	}
	groups := req.Filter.Apply(req.Groups)
	return BoxPlotResult{Plot: boxplot.Build(groups, applied.ColorMode), Applied: applied}, nil
}

// RenderMultiCategory renders the chart and exports it as f.
func (s *Service) RenderMultiCategory(ctx context.Context, req MultiCategoryRequest, f export.Format) (export.Artifact, error) {
	res, err := s.MultiCategory(ctx, req)
	if err != nil {
		return export.Artifact{}, err
	}
	if len(res.Bars) == 0 {
		return export.Artifact{}, export.ErrEmptyChart
	}
	a := res.Applied
	bar := render.MultiCategoryBar(res.Bars, res.Categories, render.BarLayout{
		Horizontal: a.Horizontal,
		Stacked:    a.Stacked,
		Percentage: a.Percentage,
		AxisLabel:  res.AxisLabel,
	}, renderOptions(a, f))
	html, err := render.HTML(bar)
	if err != nil {
		return export.Artifact{}, err
	}
	return s.export(ctx, KindMultiCategory, s.exportName, html, f, a)
}

func (s *Service) RenderBins(ctx context.Context, req BinsRequest, f export.Format) (export.Artifact, error) {
	res, err := s.Bins(ctx, req)
	if err != nil {
		return export.Artifact{}, err
	}
	ro := renderOptions(res.Applied, f)
	ro.Title = res.Title
	bar := render.BinnedBar(binning.Result{Labels: res.Labels, Data: res.Data}, ro)
	html, err := render.HTML(bar)
	if err != nil {
		return export.Artifact{}, err
	}
	return s.export(ctx, KindBins, s.exportName, html, f, res.Applied)
}

func (s *Service) RenderBoxPlot(ctx context.Context, req BoxPlotRequest, f export.Format) (export.Artifact, error) {
	res, err := s.BoxPlot(ctx, req)
	if err != nil {
		return export.Artifact{}, err
	}
	if res.Plot.Empty() {
		return export.Artifact{}, export.ErrEmptyChart
	}
	box := render.BoxScatter(res.Plot, req.ValueLabel, renderOptions(res.Applied, f))
	html, err := render.HTML(box)
	if err != nil {
		return export.Artifact{}, err
	}
	return s.export(ctx, KindBoxPlot, boxPlotBaseName, html, f, res.Applied)
}

func renderOptions(a Applied, f export.Format) render.Options {
	ro := render.Options{
		Title:    a.Title,
		Width:    a.Width,
		Height:   a.Height,
		Theme:    a.Theme,
		Renderer: render.RendererCanvas,
	}
	if f == export.FormatSVG {
		ro.Renderer = render.RendererSVG
	}
	return ro
}

func (s *Service) export(ctx context.Context, kind, base string, html []byte, f export.Format, a Applied) (export.Artifact, error) {
	if s.deps.Exporter == nil {
		return export.Artifact{}, export.ErrDisabled
	}
	art, err := s.deps.Exporter.Export(ctx, base, html, f, a.Width, a.Height)
	if err != nil {
		return export.Artifact{}, err
	}
	if s.deps.Exports != nil {
		entry := store.ExportEntry{
			ID:        art.ID,
			Chart:     kind,
			Format:    string(art.Format),
			Filename:  art.Filename,
			Size:      art.Size,
			Preset:    a.Preset,
			CreatedAt: art.CreatedAt,
		}
		if err := s.deps.Exports.Record(ctx, entry); err != nil {
			log.Warnf("record export %s failed: %v", art.Filename, err)
		}
	}
	return art, nil
}

// WriteDownload writes a stored dataset as the tab-delimited data download.
// Attribute datasets become rows with only the sample key and value set.
func (s *Service) WriteDownload(ctx context.Context, datasetID string, w io.Writer) error {
	ds, err := s.dataset(ctx, datasetID)
	if err != nil {
		return err
	}
	rows, err := downloadRows(ds)
	if err != nil {
		return err
	}
	return sample.WriteTSV(w, rows)
}

// ValidateDataset checks that a payload decodes for its kind.
func ValidateDataset(ds store.Dataset) error {
	if !ds.Kind.Valid() {
		return fmt.Errorf("%w: dataset kind %q", ErrInvalidInput, ds.Kind)
	}
	var err error
	switch ds.Kind {
	case store.KindAttribute:
		_, err = sample.DecodeRecords(ds.Payload)
	case store.KindBins:
		_, err = sample.DecodeBins(ds.Payload)
	case store.KindDownload:
		_, err = decodeDownload(ds.Payload)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
