package ordering

import (
	"cellplot/internal/crosstab"
)

// Point is one plotted bar segment.
type Point struct {
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	MajorCategory string  `json:"majorCategory"`
	MinorCategory string  `json:"minorCategory"`
	Count         int     `json:"count"`
	Percentage    float64 `json:"percentage"`
}

// BarSpec is one minor category's series, ready to draw.
type BarSpec struct {
	MinorCategory string  `json:"minorCategory"`
	Fill          string  `json:"fill"`
	Data          []Point `json:"data"`
}

// BarOptions carries the caller-side policies MakeBarSpecs needs.
type BarOptions struct {
	MinorOrder map[string]int
	MajorOrder map[string]int
	// Color maps a minor category to a fill; nil leaves Fill empty.
	Color func(minor string) string
	// CategoryCoord maps a 0-based category position to an axis coordinate;
	// nil uses the position itself.
	CategoryCoord func(index int) float64
	Horizontal    bool
	Stacked       bool
	Percentage    bool
	SortBy        string
}

// Reversed reports whether series fill order flips to keep stacks reading the
// same way in both orientations.
func (o BarOptions) Reversed() bool {
	return (!o.Horizontal && o.Stacked) || (o.Horizontal && !o.Stacked)
}

// MakeBarSpecs projects ordered series into plot points. It also returns the
// category axis the points were laid out on.
func MakeBarSpecs(series []crosstab.Series, o BarOptions) ([]BarSpec, []string) {
	coord := o.CategoryCoord
	if coord == nil {
		coord = func(i int) float64 { return float64(i) }
	}

	var categories []string
	active := Active(o.SortBy)
	if active {
		categories, series = SortByOption(series, o.SortBy)
	} else {
		series = SortByCategory(series, func(s crosstab.Series) string { return s.MinorCategory }, o.MinorOrder)
		if o.Reversed() {
			series = reversed(series)
		}
	}

	specs := make([]BarSpec, 0, len(series))
	for _, s := range series {
		counts := s.Counts
		if !active {
			counts = SortByCategory(presentCounts(counts), func(c *crosstab.Count) string { return c.MajorCategory }, o.MajorOrder)
		}
		if categories == nil {
			categories = categoryNames(counts)
		}
		spec := BarSpec{MinorCategory: s.MinorCategory}
		if o.Color != nil {
			spec.Fill = o.Color(s.MinorCategory)
		}
		spec.Data = make([]Point, 0, len(counts))
		for i, c := range counts {
			p := Point{X: coord(i), MinorCategory: s.MinorCategory}
			if c == nil {
				// placeholder: zero-render under the shared category name
				if i < len(categories) {
					p.MajorCategory = categories[i]
				}
				spec.Data = append(spec.Data, p)
				continue
			}
			p.MajorCategory = c.MajorCategory
			p.Count = c.Count
			p.Percentage = c.Percentage
			if o.Percentage {
				p.Y = c.Percentage
			} else {
				p.Y = float64(c.Count)
			}
			spec.Data = append(spec.Data, p)
		}
		specs = append(specs, spec)
	}
	return specs, categories
}

func presentCounts(counts []*crosstab.Count) []*crosstab.Count {
	out := make([]*crosstab.Count, 0, len(counts))
	for _, c := range counts {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

func categoryNames(counts []*crosstab.Count) []string {
	out := make([]string, 0, len(counts))
	for _, c := range counts {
		if c != nil {
			out = append(out, c.MajorCategory)
		}
	}
	return out
}

func reversed(series []crosstab.Series) []crosstab.Series {
	out := make([]crosstab.Series, len(series))
	for i, s := range series {
		out[len(series)-1-i] = s
	}
	return out
}
