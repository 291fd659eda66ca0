package chart

import (
	"strings"

	"cellplot/internal/boxplot"
	"cellplot/internal/config"
	"cellplot/internal/ordering"
	"cellplot/internal/preset"
)

// Options are per-request overrides. Nil or empty fields fall back to the
// named preset, then to the configured chart defaults.
type Options struct {
	Preset     string            `json:"preset,omitempty"`
	Title      string            `json:"title,omitempty"`
	SortBy     *string           `json:"sortBy,omitempty"`
	Stacked    *bool             `json:"stacked,omitempty"`
	Horizontal *bool             `json:"horizontal,omitempty"`
	Percentage *bool             `json:"percentage,omitempty"`
	MinorOrder []string          `json:"minorOrder,omitempty"`
	MajorOrder []string          `json:"majorOrder,omitempty"`
	Colors     map[string]string `json:"colors,omitempty"`
	ColorMode  string            `json:"colorMode,omitempty"`
	Width      int               `json:"width,omitempty"`
	Height     int               `json:"height,omitempty"`
}

// Applied is the effective option set after layering.
type Applied struct {
	Preset     string            `json:"preset,omitempty"`
	Title      string            `json:"title,omitempty"`
	SortBy     string            `json:"sortBy,omitempty"`
	Stacked    bool              `json:"stacked"`
	Horizontal bool              `json:"horizontal"`
	Percentage bool              `json:"percentage"`
	MinorOrder []string          `json:"minorOrder,omitempty"`
	MajorOrder []string          `json:"majorOrder,omitempty"`
	Colors     map[string]string `json:"colors,omitempty"`
	ColorMode  string            `json:"colorMode"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	Theme      string            `json:"theme"`
	Spacing    float64           `json:"categorySpacing"`
}

func layer(defaults config.ChartConfig, p preset.Preset, hasPreset bool, o Options) Applied {
	a := Applied{
		SortBy:     defaults.SortBy,
		Stacked:    defaults.Stacked,
		Horizontal: defaults.Horizontal,
		Percentage: defaults.Percentage,
		ColorMode:  boxplot.ColorByTissue,
		Width:      defaults.Width,
		Height:     defaults.Height,
		Theme:      defaults.Theme,
		Spacing:    defaults.CategorySpacing,
	}
	if hasPreset {
		a.Preset = p.Name
		if p.SortBy != "" {
			a.SortBy = p.SortBy
		}
		pickBool(&a.Stacked, p.Stacked)
		pickBool(&a.Horizontal, p.Horizontal)
		pickBool(&a.Percentage, p.Percentage)
		a.MinorOrder = p.MinorOrder
		a.MajorOrder = p.MajorOrder
		a.Colors = p.Colors
		if p.ColorMode != "" {
			a.ColorMode = p.ColorMode
		}
	}
	if o.SortBy != nil {
		a.SortBy = ordering.CanonicalMode(*o.SortBy)
	}
	pickBool(&a.Stacked, o.Stacked)
	pickBool(&a.Horizontal, o.Horizontal)
	pickBool(&a.Percentage, o.Percentage)
	if len(o.MinorOrder) > 0 {
		a.MinorOrder = o.MinorOrder
	}
	if len(o.MajorOrder) > 0 {
		a.MajorOrder = o.MajorOrder
	}
	if len(o.Colors) > 0 {
		merged := make(map[string]string, len(a.Colors)+len(o.Colors))
		for k, v := range a.Colors {
			merged[k] = v
		}
		for k, v := range o.Colors {
			merged[k] = v
		}
		a.Colors = merged
	}
	if o.ColorMode != "" {
		a.ColorMode = o.ColorMode
	}
	if o.Width > 0 {
		a.Width = o.Width
	}
	if o.Height > 0 {
		a.Height = o.Height
	}
	a.Title = strings.TrimSpace(o.Title)
	if a.Spacing <= 0 {
		a.Spacing = 1
	}
	return a
}

func pickBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
