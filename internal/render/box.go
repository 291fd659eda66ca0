package render

import (
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"cellplot/internal/boxplot"
)

const (
	scatterSymbolSize = 6
	boxFill           = "#EEEEEE"
	boxBorder         = "#555555"
)

// BoxScatter draws one box per group with the observations overlaid as
// scatter points. Points sharing a fill/stroke pair go into one series.
func BoxScatter(plot boxplot.Plot, valueLabel string, o Options) *charts.BoxPlot {
	box := charts.NewBoxPlot()
	box.SetGlobalOptions(
		charts.WithInitializationOpts(o.initialization()),
		charts.WithTitleOpts(o.title()),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", AxisLabel: &opts.AxisLabel{Color: colorTextSecondary, Rotate: 30, Interval: "0"}}),
		charts.WithYAxisOpts(opts.YAxis{Name: valueLabel, Scale: opts.Bool(true), AxisLabel: &opts.AxisLabel{Color: colorTextSecondary}}),
	)
	categories := plot.Categories()
	box.SetXAxis(categories)

	data := make([]opts.BoxPlotData, 0, len(plot.Boxes))
	for _, b := range plot.Boxes {
		data = append(data, opts.BoxPlotData{
			Name:  b.Name,
			Value: []float64{b.Min, b.Q1, b.Median, b.Q3, b.Max},
		})
	}
	box.AddSeries("summary", data,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: boxFill, BorderColor: boxBorder}),
	)

	if len(plot.Scatter) > 0 {
		box.Overlap(scatterOverlay(plot.Scatter, categories))
	}
	return box
}

type styleKey struct{ fill, stroke string }

func scatterOverlay(points []boxplot.ScatterPoint, categories []string) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetXAxis(categories)

	var order []styleKey
	groups := make(map[styleKey][]opts.ScatterData)
	for _, p := range points {
		k := styleKey{fill: p.Fill, stroke: p.Stroke}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], opts.ScatterData{
			Name: p.Label,
			// box x is 1-based; the category axis indexes from 0
			Value:      []float64{p.X - 1, p.Y},
			SymbolSize: scatterSymbolSize,
		})
	}
	for _, k := range order {
		scatter.AddSeries(k.fill, groups[k],
			charts.WithItemStyleOpts(opts.ItemStyle{Color: k.fill, BorderColor: k.stroke, Opacity: opts.Float(0.8)}),
		)
	}
	return scatter
}
