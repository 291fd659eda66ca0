package boxplot

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Scatter color modes.
const (
	ColorBySample  = "sample id"
	ColorByDefault = "Default"
	ColorByTissue  = "tissue"
)

const fallbackColor = "#c43a31"

// Observation 是某个细胞类型下的一条表达值。
type Observation struct {
	ParentID          string  `json:"parentId"`
	TissueName        string  `json:"tissuename"`
	Value             string  `json:"value"`
	X                 float64 `json:"x"`
	Color             string  `json:"color,omitempty"`
	StrokeColor       string  `json:"strokeColor,omitempty"`
	TissueColor       string  `json:"tissueColor,omitempty"`
	TissueStrokeColor string  `json:"tissueStrokeColor,omitempty"`
	BWColor           string  `json:"bwColor,omitempty"`
	BWStrokeColor     string  `json:"bwStrokeColor,omitempty"`
}

// Group is one box (e.g. a cell type) and its observations.
type Group struct {
	Name         string        `json:"name"`
	Observations []Observation `json:"observations"`
}

// Filter narrows observations by sample (parent id) and tissue selections.
type Filter struct {
	Samples []string `json:"samples,omitempty"`
	Tissues []string `json:"tissues,omitempty"`
}

func (f Filter) Empty() bool {
	return len(f.Samples) == 0 && len(f.Tissues) == 0
}

// Apply keeps observations matching every non-empty selection and drops
// groups left empty. An empty filter returns groups unchanged.
func (f Filter) Apply(groups []Group) []Group {
	if f.Empty() {
		return groups
	}
	samples := toSet(f.Samples)
	tissues := toSet(f.Tissues)
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		kept := make([]Observation, 0, len(g.Observations))
		for _, obs := range g.Observations {
			if len(samples) > 0 && !samples[obs.ParentID] {
				continue
			}
			if len(tissues) > 0 && !tissues[obs.TissueName] {
				continue
			}
			kept = append(kept, obs)
		}
		if len(kept) > 0 {
			out = append(out, Group{Name: g.Name, Observations: kept})
		}
	}
	return out
}

func toSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}

// ScatterPoint is one jittered observation drawn over the boxes.
type ScatterPoint struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Group  string  `json:"group"`
	Label  string  `json:"label"`
	Fill   string  `json:"fill"`
	Stroke string  `json:"stroke"`
}

// Box is the five-number summary of one group.
type Box struct {
	X      float64   `json:"x"`
	Name   string    `json:"name"`
	Values []float64 `json:"y"`
	Min    float64   `json:"min"`
	Q1     float64   `json:"q1"`
	Median float64   `json:"median"`
	Q3     float64   `json:"q3"`
	Max    float64   `json:"max"`
	Mean   float64   `json:"mean"`
	StdDev float64   `json:"stdDev"`
}

// Plot holds everything a box/scatter overlay needs.
type Plot struct {
	Scatter []ScatterPoint `json:"scatter"`
	Boxes   []Box          `json:"boxes"`
}

func (p Plot) Empty() bool {
	return len(p.Boxes) == 0
}

// Categories returns box names in drawing order.
func (p Plot) Categories() []string {
	out := make([]string, len(p.Boxes))
	for i, b := range p.Boxes {
		out[i] = b.Name
	}
	return out
}

// Build drops non-numeric values and summarizes each group. A group without
// numeric values still gets a box, pinned at zero.
func Build(groups []Group, colorMode string) Plot {
	var plot Plot
	for i, g := range groups {
		values := make([]float64, 0, len(g.Observations))
		for _, obs := range g.Observations {
			v, err := strconv.ParseFloat(strings.TrimSpace(obs.Value), 64)
			if err != nil || math.IsNaN(v) {
				continue
			}
			values = append(values, v)
			fill, stroke := obs.colors(colorMode)
			plot.Scatter = append(plot.Scatter, ScatterPoint{
				X:      obs.X,
				Y:      v,
				Group:  g.Name,
				Label:  fmt.Sprintf(" %s\n Tissue Name: %s\n Value: %s ", obs.ParentID, obs.TissueName, obs.Value),
				Fill:   fill,
				Stroke: stroke,
			})
		}
		if len(values) == 0 {
			values = []float64{0}
		}
		plot.Boxes = append(plot.Boxes, summarize(float64(i+1), g.Name, values))
	}
	return plot
}

func (o Observation) colors(mode string) (fill, stroke string) {
	switch mode {
	case ColorBySample:
		fill, stroke = o.Color, o.StrokeColor
	case ColorByDefault:
		fill, stroke = o.BWColor, o.BWStrokeColor
	default:
		fill, stroke = o.TissueColor, o.TissueStrokeColor
	}
	if fill == "" {
		fill = fallbackColor
	}
	if stroke == "" {
		stroke = fallbackColor
	}
	return fill, stroke
}

func summarize(x float64, name string, values []float64) Box {
	box := Box{X: x, Name: name, Values: values}
	data := stats.Float64Data(values)
	box.Min, _ = data.Min()
	box.Max, _ = data.Max()
	box.Median, _ = data.Median()
	if len(values) > 1 {
		if q, err := stats.Quartile(data); err == nil {
			box.Q1, box.Q3 = q.Q1, q.Q3
		}
	} else {
		box.Q1, box.Q3 = values[0], values[0]
	}
	box.Mean, box.StdDev = stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		box.StdDev = 0
	}
	return box
}
