package crosstab

import (
	"cellplot/internal/sample"

	"github.com/shopspring/decimal"
)

// Count is one (minor, major) cell of the cross-tab.
type Count struct {
	MajorCategory string  `json:"majorCategory"`
	Count         int     `json:"count"`
	Percentage    float64 `json:"percentage"`
}

// Series 是某个次分类（minor）在所有主分类（major）上的计数。
// Counts 中的 nil 表示排序后该主分类在本序列中缺失（占位）。
type Series struct {
	MinorCategory string   `json:"minorCategory"`
	Counts        []*Count `json:"counts"`
}

// Roles picks which source is the major (x-axis) attribute. With horizontal
// bars the vertical source groups the bars instead.
func Roles(horizontal, vertical []sample.Record, horizontalBars bool) (major, minor []sample.Record) {
	if horizontalBars {
		return vertical, horizontal
	}
	return horizontal, vertical
}

// Tabulate cross-tabulates the two attribute sources into one series per
// minor category.
func Tabulate(horizontal, vertical []sample.Record, horizontalBars bool) []Series {
	major, minor := Roles(horizontal, vertical, horizontalBars)
	t := tally(major, minor)
	totals := t.majorTotals()
	return t.emit(totals)
}

type minorCells struct {
	counts map[string]int
	order  []string // majors in first-seen order for this minor
}

// table is the immutable result of the tally phase.
type table struct {
	minors     map[string]*minorCells
	minorOrder []string
	majorOrder []string // every used major, first-seen order
}

func tally(major, minor []sample.Record) table {
	sampleToMinor := make(map[string][]string, len(minor))
	for _, rec := range minor {
		sampleToMinor[rec.SampleKey] = rec.Value.Items()
	}

	t := table{minors: make(map[string]*minorCells)}
	usedMajor := make(map[string]bool)
	for _, rec := range major {
		minorCats, ok := sampleToMinor[rec.SampleKey]
		if !ok {
			continue
		}
		majorCats := rec.Value.Items()
		for _, m := range minorCats {
			cells, ok := t.minors[m]
			if !ok {
				cells = &minorCells{counts: make(map[string]int)}
				t.minors[m] = cells
				t.minorOrder = append(t.minorOrder, m)
			}
			for _, c := range majorCats {
				if !usedMajor[c] {
					usedMajor[c] = true
					t.majorOrder = append(t.majorOrder, c)
				}
				if _, seen := cells.counts[c]; !seen {
					cells.order = append(cells.order, c)
				}
				cells.counts[c]++
			}
		}
	}
	return t
}

// majorTotals sums every minor category's count per used major; it must see
// all minors before any percentage is computed.
func (t table) majorTotals() map[string]int {
	totals := make(map[string]int, len(t.majorOrder))
	for _, major := range t.majorOrder {
		total := 0
		for _, m := range t.minorOrder {
			total += t.minors[m].counts[major]
		}
		totals[major] = total
	}
	return totals
}

func (t table) emit(totals map[string]int) []Series {
	if len(t.minorOrder) == 0 {
		return nil
	}
	out := make([]Series, 0, len(t.minorOrder))
	for _, m := range t.minorOrder {
		cells := t.minors[m]
		seen := make(map[string]bool, len(t.majorOrder))
		counts := make([]*Count, 0, len(t.majorOrder))
		appendCell := func(major string) {
			seen[major] = true
			n := cells.counts[major]
			counts = append(counts, &Count{
				MajorCategory: major,
				Count:         n,
				Percentage:    Percentage(n, totals[major]),
			})
		}
		for _, major := range cells.order {
			appendCell(major)
		}
		// zero backfill so every series shares the same category axis
		for _, major := range t.majorOrder {
			if !seen[major] {
				appendCell(major)
			}
		}
		out = append(out, Series{MinorCategory: m, Counts: counts})
	}
	return out
}

var hundred = decimal.NewFromInt(100)

// Percentage returns count/total*100 rounded to two decimals, or 0 when the
// total is zero.
func Percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(count)).Mul(hundred).DivRound(decimal.NewFromInt(int64(total)), 2)
	f, _ := pct.Float64()
	return f
}

// MinorCategories lists the minor categories in series order.
func MinorCategories(series []Series) []string {
	out := make([]string, 0, len(series))
	for _, s := range series {
		out = append(out, s.MinorCategory)
	}
	return out
}
