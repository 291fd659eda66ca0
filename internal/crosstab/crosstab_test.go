package crosstab

import (
	"math"
	"testing"

	"cellplot/internal/sample"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(key string, values ...string) sample.Record {
	if len(values) == 1 {
		return sample.NewRecord(key, sample.Scalar(values[0]))
	}
	return sample.NewRecord(key, sample.List(values...))
}

func flatten(series []Series) map[string]map[string]Count {
	out := make(map[string]map[string]Count)
	for _, s := range series {
		row := make(map[string]Count)
		for _, c := range s.Counts {
			row[c.MajorCategory] = *c
		}
		out[s.MinorCategory] = row
	}
	return out
}

func TestTabulate_TwoByTwoScenario(t *testing.T) {
	major := []sample.Record{rec("sampleA", "BRCA"), rec("sampleB", "BRCA"), rec("sampleC", "LUAD")}
	minor := []sample.Record{rec("sampleA", "TypeX"), rec("sampleB", "TypeY"), rec("sampleC", "TypeX")}

	series := Tabulate(major, minor, false)
	require.Len(t, series, 2)

	assert.Equal(t, "TypeX", series[0].MinorCategory)
	assert.Equal(t, []*Count{
		{MajorCategory: "BRCA", Count: 1, Percentage: 50},
		{MajorCategory: "LUAD", Count: 1, Percentage: 100},
	}, series[0].Counts)

	assert.Equal(t, "TypeY", series[1].MinorCategory)
	assert.Equal(t, []*Count{
		{MajorCategory: "BRCA", Count: 1, Percentage: 50},
		{MajorCategory: "LUAD", Count: 0, Percentage: 0},
	}, series[1].Counts)
}

func TestTabulate_HorizontalBarsSwapRoles(t *testing.T) {
	horizontal := []sample.Record{rec("s1", "TypeX"), rec("s2", "TypeY")}
	vertical := []sample.Record{rec("s1", "BRCA"), rec("s2", "BRCA")}

	series := Tabulate(horizontal, vertical, true)
	require.Len(t, series, 2)
	assert.Equal(t, []string{"TypeX", "TypeY"}, MinorCategories(series))
	assert.Equal(t, []string{"BRCA"}, majorCategories(series))
}

func TestTabulate_MultiValuedFanOut(t *testing.T) {
	major := []sample.Record{rec("s1", "BRCA")}
	minor := []sample.Record{rec("s1", "TypeX", "TypeY")}

	cells := flatten(Tabulate(major, minor, false))
	assert.Equal(t, 1, cells["TypeX"]["BRCA"].Count)
	assert.Equal(t, 1, cells["TypeY"]["BRCA"].Count)
	// total is the sum over minors, not the sample count
	assert.Equal(t, 50.0, cells["TypeX"]["BRCA"].Percentage)
	assert.Equal(t, 50.0, cells["TypeY"]["BRCA"].Percentage)
}

func TestTabulate_MissingCrossReferenceSkipped(t *testing.T) {
	major := []sample.Record{rec("s1", "BRCA"), rec("orphan", "LUAD")}
	minor := []sample.Record{rec("s1", "TypeX"), rec("other", "TypeZ")}

	series := Tabulate(major, minor, false)
	require.Len(t, series, 1)
	assert.Equal(t, []string{"BRCA"}, majorCategories(series))
}

func TestTabulate_EmptyInput(t *testing.T) {
	assert.Empty(t, Tabulate(nil, nil, false))
	assert.Empty(t, Tabulate([]sample.Record{rec("a", "x")}, nil, false))
}

func TestTabulate_CountAndPercentageInvariants(t *testing.T) {
	major := []sample.Record{
		rec("s1", "BRCA"), rec("s2", "BRCA", "LUAD"), rec("s3", "LUAD"),
		rec("s4", "COAD"), rec("s5", "BRCA"), rec("s6", "COAD"),
	}
	minor := []sample.Record{
		rec("s1", "T"), rec("s2", "B", "T"), rec("s3", "NK"),
		rec("s4", "T"), rec("s5", "B"), rec("s6", "NK", "B", "T"),
	}
	series := Tabulate(major, minor, false)

	// expected (sample, major-value) pairs per major, fanned out by minor values
	want := map[string]int{"BRCA": 1 + 2 + 1, "LUAD": 2 + 1, "COAD": 1 + 3}
	gotCount := map[string]int{}
	gotPct := map[string]float64{}
	for _, s := range series {
		assert.Len(t, s.Counts, len(want), "every series carries every major")
		for _, c := range s.Counts {
			gotCount[c.MajorCategory] += c.Count
			gotPct[c.MajorCategory] += c.Percentage
		}
	}
	assert.Equal(t, want, gotCount)
	for major, pct := range gotPct {
		assert.LessOrEqual(t, math.Abs(pct-100), 0.02, major)
	}
}

func TestTabulate_BackfillOrder(t *testing.T) {
	major := []sample.Record{rec("s1", "A"), rec("s2", "B"), rec("s3", "C")}
	minor := []sample.Record{rec("s1", "m1"), rec("s2", "m2"), rec("s3", "m2")}

	series := Tabulate(major, minor, false)
	require.Len(t, series, 2)
	var majors []string
	for _, c := range series[1].Counts {
		majors = append(majors, c.MajorCategory)
	}
	// own categories first, then backfilled ones in global first-seen order
	assert.Equal(t, []string{"B", "C", "A"}, majors)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(0, 0))
	assert.Equal(t, 33.33, Percentage(1, 3))
	assert.Equal(t, 66.67, Percentage(2, 3))
	assert.Equal(t, 100.0, Percentage(5, 5))
}

// majorCategories lists the non-placeholder categories of the first series.
func majorCategories(series []Series) []string {
	if len(series) == 0 {
		return nil
	}
	var out []string
	for _, c := range series[0].Counts {
		if c != nil {
			out = append(out, c.MajorCategory)
		}
	}
	return out
}
