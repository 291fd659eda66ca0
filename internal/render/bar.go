package render

import (
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"cellplot/internal/binning"
	"cellplot/internal/ordering"
)

const stackName = "total"

// BarLayout is how a multi-category chart is drawn.
type BarLayout struct {
	Horizontal bool
	Stacked    bool
	Percentage bool
	// AxisLabel names the category axis; CountLabel the value axis.
	AxisLabel  string
	CountLabel string
}

// MultiCategoryBar draws one series per bar spec over the shared category
// axis. Points are placed by major category so series of unequal length still
// line up.
func MultiCategoryBar(specs []ordering.BarSpec, categories []string, layout BarLayout, o Options) *charts.Bar {
	bar := charts.NewBar()
	valueAxis := opts.YAxis{
		Name:      valueAxisName(layout),
		AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
		SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Opacity: opts.Float(0.2)}},
	}
	if layout.Percentage {
		valueAxis.Max = 100
		valueAxis.AxisLabel.Formatter = "{value}%"
	}
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(o.initialization()),
		charts.WithTitleOpts(o.title()),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0", Type: "scroll"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item", Formatter: "{a}<br/>{b}: {c}"}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      layout.AxisLabel,
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary, Rotate: 30, Interval: "0"},
		}),
		charts.WithYAxisOpts(valueAxis),
	)
	bar.SetXAxis(categories)

	index := make(map[string]int, len(categories))
	for i, c := range categories {
		index[c] = i
	}
	for _, spec := range specs {
		data := make([]opts.BarData, len(categories))
		for i := range data {
			data[i] = opts.BarData{Value: 0}
		}
		for _, p := range spec.Data {
			i, ok := index[p.MajorCategory]
			if !ok {
				continue
			}
			data[i] = opts.BarData{Name: p.MajorCategory, Value: p.Y}
		}
		seriesOpts := []charts.SeriesOpts{}
		if spec.Fill != "" {
			seriesOpts = append(seriesOpts, charts.WithItemStyleOpts(opts.ItemStyle{Color: spec.Fill}))
		}
		if layout.Stacked {
			seriesOpts = append(seriesOpts, charts.WithBarChartOpts(opts.BarChart{Stack: stackName}))
		}
		bar.AddSeries(spec.MinorCategory, data, seriesOpts...)
	}
	if layout.Horizontal {
		bar.XYReversal()
	}
	return bar
}

func valueAxisName(layout BarLayout) string {
	if layout.CountLabel != "" {
		return layout.CountLabel
	}
	if layout.Percentage {
		return "Percentage"
	}
	return "Count"
}

// BinnedBar draws the single-series bin chart. Only bins whose label made it
// onto the axis are plotted; an empty result still yields a titled chart.
func BinnedBar(res binning.Result, o Options) *charts.Bar {
	bar := charts.NewBar()
	if res.Empty() {
		o.Title = binning.NoDataTitle
	}
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(o.initialization()),
		charts.WithTitleOpts(o.title()),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item", Formatter: "Number of samples: {c}<br/>Range: {b}"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", AxisLabel: &opts.AxisLabel{Color: colorTextSecondary}}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Count", AxisLabel: &opts.AxisLabel{Color: colorTextSecondary}}),
	)

	byLabel := make(map[string]binning.Datum, len(res.Data))
	for _, d := range res.Data {
		if _, seen := byLabel[d.Label]; !seen {
			byLabel[d.Label] = d
		}
	}
	data := make([]opts.BarData, 0, len(res.Labels))
	for _, label := range res.Labels {
		d := byLabel[label]
		data = append(data, opts.BarData{Name: d.Range, Value: d.Count})
	}
	bar.SetXAxis(res.Labels)
	bar.AddSeries("count", data, charts.WithItemStyleOpts(opts.ItemStyle{Color: BinFill}))
	return bar
}
