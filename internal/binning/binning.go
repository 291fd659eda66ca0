package binning

// 中文说明：
// 单分类柱状图的分桶标签：
// - specialValue == "NA" 的桶直接丢弃
// - "<=" / ">" 桶用边界值作标签，普通桶用 start 作标签
// - 轴标签按内嵌数值升序；解析不出数值的标签不进入轴

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"cellplot/internal/sample"
)

// undefinedText mirrors how an absent bound prints in range descriptions.
const undefinedText = "undefined"

// NoDataTitle is the heading used when there are no bins at all.
const NoDataTitle = "No Data"

// Datum is one labeled bar.
type Datum struct {
	Label string `json:"x"`
	Count int    `json:"count"`
	Range string `json:"range"`
}

// Result holds the axis labels (ascending) and the bars in input order.
type Result struct {
	Labels []string `json:"labels"`
	Data   []Datum  `json:"data"`
}

// Empty reports the "no chart to render" state.
func (r Result) Empty() bool {
	return len(r.Data) == 0
}

// Normalize labels every non-NA bin and derives the sorted axis label set.
func Normalize(bins []sample.Bin) Result {
	var res Result
	for _, bin := range bins {
		if bin.IsNA() {
			continue
		}
		label, rng, axis := labelBin(bin)
		res.Data = append(res.Data, Datum{Label: label, Count: bin.Count, Range: rng})
		if axis {
			res.Labels = append(res.Labels, label)
		}
	}
	res.Labels = SortLabels(res.Labels)
	return res
}

// Title is the chart heading: the first bin id with underscores as spaces.
func Title(bins []sample.Bin) string {
	if len(bins) == 0 {
		return NoDataTitle
	}
	return strings.ReplaceAll(bins[0].ID, "_", " ")
}

// labelBin returns the label, the range description and whether the label
// belongs on the numeric axis.
func labelBin(bin sample.Bin) (string, string, bool) {
	switch {
	case bin.SpecialValue == sample.SpecialLessEqual:
		label := "<= " + formatBound(bin.End)
		return label, label, true
	case bin.SpecialValue == sample.SpecialGreater:
		label := "> " + formatBound(bin.Start)
		return label, label, true
	case bin.Start != nil && bin.End != nil:
		return formatBound(bin.Start), formatBound(bin.Start) + " - " + formatBound(bin.End), true
	default:
		return strings.ReplaceAll(bin.ID, "_", " "), formatBound(bin.Start) + " - " + formatBound(bin.End), false
	}
}

func formatBound(v *float64) string {
	if v == nil {
		return undefinedText
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// SortLabels drops labels without a numeric component and sorts the rest by
// the number they carry. The input slice is not modified.
func SortLabels(labels []string) []string {
	type keyed struct {
		label string
		value float64
	}
	items := make([]keyed, 0, len(labels))
	for _, label := range labels {
		v, ok := LabelValue(label)
		if !ok {
			continue
		}
		items = append(items, keyed{label: label, value: v})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].value < items[j].value })
	if len(items) == 0 {
		return nil
	}
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.label
	}
	return out
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// LabelValue extracts the number embedded in an axis label, stripping a
// leading "<=" or ">" marker first.
func LabelValue(label string) (float64, bool) {
	s := strings.TrimSpace(label)
	switch {
	case strings.HasPrefix(s, sample.SpecialLessEqual):
		s = s[len(sample.SpecialLessEqual):]
	case strings.HasPrefix(s, sample.SpecialGreater):
		s = s[len(sample.SpecialGreater):]
	}
	s = strings.TrimSpace(s)
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
