package ordering

// 中文说明：
// 主分类排序策略：
// - SortByTotalSum：按所有次分类计数之和降序，同值保持首次出现顺序
// - 指定某个次分类名：按该序列内计数降序，该序列置顶
// - alphabetically / 空：不在此处排序

import (
	"sort"
	"strings"

	"cellplot/internal/crosstab"
)

// Sort modes besides a minor-category name.
const (
	SortByTotalSum = "SortByTotalSum"
	Alphabetically = "alphabetically"
)

// CanonicalMode maps a requested sort mode onto what the sorters compare.
// Blank becomes "", the keyword modes tolerate padding, and anything else is
// a minor-category name kept byte for byte.
func CanonicalMode(raw string) string {
	switch trimmed := strings.TrimSpace(raw); trimmed {
	case "":
		return ""
	case SortByTotalSum, Alphabetically:
		return trimmed
	default:
		return raw
	}
}

// Active reports whether mode reorders categories here rather than upstream.
func Active(mode string) bool {
	return mode != "" && mode != Alphabetically
}

// SortedMajorCategories returns the shared category order for mode. An empty
// result means "no reordering".
func SortedMajorCategories(series []crosstab.Series, mode string) []string {
	switch {
	case mode == SortByTotalSum:
		return byTotalSum(series)
	case Active(mode):
		ref, ok := find(series, mode)
		if !ok {
			return nil
		}
		cells := make([]*crosstab.Count, 0, len(ref.Counts))
		for _, c := range ref.Counts {
			if c != nil {
				cells = append(cells, c)
			}
		}
		sort.SliceStable(cells, func(i, j int) bool { return cells[i].Count > cells[j].Count })
		out := make([]string, len(cells))
		for i, c := range cells {
			out[i] = c.MajorCategory
		}
		return out
	default:
		return nil
	}
}

func byTotalSum(series []crosstab.Series) []string {
	totals := make(map[string]int)
	var order []string
	for _, s := range series {
		for _, c := range s.Counts {
			if c == nil {
				continue
			}
			if _, ok := totals[c.MajorCategory]; !ok {
				order = append(order, c.MajorCategory)
			}
			totals[c.MajorCategory] += c.Count
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return totals[order[i]] > totals[order[j]] })
	return order
}

// SortByOption rewrites every series to the category order for mode. A named
// minor category's series moves to the front. The input is not modified.
func SortByOption(series []crosstab.Series, mode string) ([]string, []crosstab.Series) {
	categories := SortedMajorCategories(series, mode)
	if mode != SortByTotalSum && len(categories) == 0 {
		return nil, series
	}
	out := make([]crosstab.Series, 0, len(series))
	for _, s := range series {
		out = append(out, crosstab.Series{
			MinorCategory: s.MinorCategory,
			Counts:        reorder(s.Counts, categories),
		})
	}
	if mode == SortByTotalSum {
		return categories, out
	}
	for i, s := range out {
		if s.MinorCategory != mode {
			continue
		}
		front := make([]crosstab.Series, 0, len(out))
		front = append(front, s)
		front = append(front, out[:i]...)
		front = append(front, out[i+1:]...)
		return categories, front
	}
	return categories, out
}

func reorder(counts []*crosstab.Count, categories []string) []*crosstab.Count {
	byMajor := make(map[string]*crosstab.Count, len(counts))
	for _, c := range counts {
		if c == nil {
			continue
		}
		if _, ok := byMajor[c.MajorCategory]; !ok {
			byMajor[c.MajorCategory] = c
		}
	}
	out := make([]*crosstab.Count, len(categories))
	for i, cat := range categories {
		out[i] = byMajor[cat]
	}
	return out
}

func find(series []crosstab.Series, minor string) (crosstab.Series, bool) {
	for _, s := range series {
		if s.MinorCategory == minor {
			return s, true
		}
	}
	return crosstab.Series{}, false
}

// SortByCategory stable-sorts data by an explicit category order; categories
// missing from order go last. Without an order it sorts alphabetically.
func SortByCategory[D any](data []D, category func(D) string, order map[string]int) []D {
	out := make([]D, len(data))
	copy(out, data)
	if order == nil {
		sort.SliceStable(out, func(i, j int) bool { return category(out[i]) < category(out[j]) })
		return out
	}
	rank := func(d D) (int, bool) {
		r, ok := order[category(d)]
		return r, ok
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := rank(out[i])
		rj, jok := rank(out[j])
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		default:
			return false
		}
	})
	return out
}

// OrderIndex turns a category list into the rank map SortByCategory takes.
func OrderIndex(categories []string) map[string]int {
	if len(categories) == 0 {
		return nil
	}
	idx := make(map[string]int, len(categories))
	for i, c := range categories {
		if _, ok := idx[c]; !ok {
			idx[c] = i
		}
	}
	return idx
}
