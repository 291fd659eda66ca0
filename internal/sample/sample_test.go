package sample

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecords_ScalarAndList(t *testing.T) {
	raw := `[
		{"uniqueSampleKey":"sA","value":"BRCA"},
		{"uniqueSampleKey":"sB","value":["TypeX","TypeY"]},
		{"uniqueSampleKey":"sC","value":1.50},
		{"uniqueSampleKey":"sD","value":null}
	]`
	records, err := DecodeRecords([]byte(raw))
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, []string{"BRCA"}, records[0].Value.Items())
	assert.False(t, records[0].Value.IsList())
	assert.Equal(t, []string{"TypeX", "TypeY"}, records[1].Value.Items())
	assert.True(t, records[1].Value.IsList())
	assert.Equal(t, []string{"1.5"}, records[2].Value.Items())
	assert.Empty(t, records[3].Value.Items())
}

func TestDecodeRecords_RejectsObjectsAndMissingKeys(t *testing.T) {
	_, err := DecodeRecords([]byte(`[{"uniqueSampleKey":"sA","value":{"a":1}}]`))
	assert.Error(t, err)

	_, err = DecodeRecords([]byte(`[{"uniqueSampleKey":"  ","value":"x"}]`))
	assert.Error(t, err)
}

func TestValue_MarshalRoundTripShape(t *testing.T) {
	out, err := json.Marshal([]Record{
		NewRecord("a", Scalar("x")),
		NewRecord("b", List("y", "z")),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"uniqueSampleKey":"a","value":"x"},{"uniqueSampleKey":"b","value":["y","z"]}]`, string(out))
}

func TestValue_ItemsIsACopy(t *testing.T) {
	v := List("a", "b")
	items := v.Items()
	items[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, v.Items())
}

func TestDecodeBins(t *testing.T) {
	bins, err := DecodeBins([]byte(`[{"id":"cell_type","count":3,"start":1,"end":2},{"id":"cell_type","count":1,"specialValue":"NA"}]`))
	require.NoError(t, err)
	require.Len(t, bins, 2)
	require.NotNil(t, bins[0].Start)
	assert.Equal(t, 1.0, *bins[0].Start)
	assert.True(t, bins[1].IsNA())
	assert.Nil(t, bins[1].End)
}

func TestWriteTSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTSV(&buf, []DownloadRow{
		{UniqueSampleKey: "k1", SampleID: "S1", StudyID: "study", Value: "0.5", StableID: "CD4"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "uniqueSampleKey\tuniquePatientKey\tmolecularProfileId\tsampleId\tpatientId\tstudyId\tvalue\tgenericAssayStableId\tstableId", lines[0])
	assert.Equal(t, "k1\t\t\tS1\t\tstudy\t0.5\t\tCD4", lines[1])
}

func TestReadRecords_TabDelimited(t *testing.T) {
	in := "uniqueSampleKey\tvalue\nsA\tBRCA\nsB\tTypeX;TypeY\nsC\tLUAD\n"
	records, err := ReadRecords(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "sA", records[0].SampleKey)
	assert.Equal(t, []string{"BRCA"}, records[0].Value.Items())
	assert.Equal(t, []string{"TypeX", "TypeY"}, records[1].Value.Items())
	assert.True(t, records[1].Value.IsList())
}

func TestReadRecords_Empty(t *testing.T) {
	records, err := ReadRecords(strings.NewReader("   \n"))
	require.NoError(t, err)
	assert.Empty(t, records)
}
