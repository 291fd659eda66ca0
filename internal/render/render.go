package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	// BinFill is the single-series fill of binned bar charts.
	BinFill = "#2986E2"

	colorTextPrimary   = "#333333"
	colorTextSecondary = "#666666"

	RendererCanvas = "canvas"
	RendererSVG    = "svg"
)

// Options is the page-level setup shared by every chart.
type Options struct {
	Title    string
	Subtitle string
	Width    int
	Height   int
	Theme    string
	// Renderer is "canvas" or "svg"; svg output can be lifted from the DOM.
	Renderer string
}

func (o Options) initialization() opts.Initialization {
	theme := strings.TrimSpace(o.Theme)
	if theme == "" {
		theme = types.ThemeWesteros
	}
	renderer := o.Renderer
	if renderer != RendererSVG {
		renderer = RendererCanvas
	}
	width, height := o.Width, o.Height
	if width <= 0 {
		width = 600
	}
	if height <= 0 {
		height = 400
	}
	return opts.Initialization{
		PageTitle: pageTitle(o.Title),
		Theme:     theme,
		Width:     fmt.Sprintf("%dpx", width),
		Height:    fmt.Sprintf("%dpx", height),
		Renderer:  renderer,
	}
}

func (o Options) title() opts.Title {
	return opts.Title{
		Title:         o.Title,
		Subtitle:      o.Subtitle,
		Left:          "center",
		TitleStyle:    &opts.TextStyle{Color: colorTextPrimary, FontSize: 16},
		SubtitleStyle: &opts.TextStyle{Color: colorTextSecondary},
	}
}

func pageTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "cellplot"
	}
	return title
}

// Renderable is anything go-echarts can write as a standalone HTML document.
type Renderable interface {
	Render(w io.Writer) error
}

// HTML renders a chart or page into memory.
func HTML(r Renderable) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// Page stacks several charts in one flex layout document.
func Page(title string, items ...components.Charter) ([]byte, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no charts to place on page")
	}
	page := components.NewPage()
	page.PageTitle = pageTitle(title)
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(items...)
	return HTML(page)
}
