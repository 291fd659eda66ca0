package sample

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/csimplestring/go-csv/detector"
	"github.com/gocarina/gocsv"
)

// DownloadFilename is the default name of the tab-delimited data download.
const DownloadFilename = "bar_chart_data.txt"

// DownloadRow is one row of the generic-assay data download.
type DownloadRow struct {
	UniqueSampleKey      string `csv:"uniqueSampleKey" json:"uniqueSampleKey"`
	UniquePatientKey     string `csv:"uniquePatientKey" json:"uniquePatientKey"`
	MolecularProfileID   string `csv:"molecularProfileId" json:"molecularProfileId"`
	SampleID             string `csv:"sampleId" json:"sampleId"`
	PatientID            string `csv:"patientId" json:"patientId"`
	StudyID              string `csv:"studyId" json:"studyId"`
	Value                string `csv:"value" json:"value"`
	GenericAssayStableID string `csv:"genericAssayStableId" json:"genericAssayStableId"`
	StableID             string `csv:"stableId" json:"stableId"`
}

// WriteTSV writes a header line followed by one tab-separated line per row.
func WriteTSV(w io.Writer, rows []DownloadRow) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("write tsv: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

type attributeRow struct {
	SampleKey string `csv:"uniqueSampleKey"`
	Value     string `csv:"value"`
}

// ReadRecords reads uniqueSampleKey/value columns from a delimited file. The
// delimiter is sniffed; values holding ';' or '|' become multi-valued.
func ReadRecords(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(bytes.NewReader(data))
	reader.LazyQuotes = true

	var rows []*attributeRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("read attribute rows: %w", err)
	}
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		records = append(records, NewRecord(strings.TrimSpace(row.SampleKey), parseCell(row.Value)))
	}
	if err := ValidateRecords(records); err != nil {
		return nil, err
	}
	return records, nil
}

func detectDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')
	if len(delimiters) > 0 && delimiters[0] != "" {
		return rune(delimiters[0][0])
	}
	return ','
}

func parseCell(cell string) Value {
	cell = strings.TrimSpace(cell)
	if !strings.ContainsAny(cell, ";|") {
		return Scalar(cell)
	}
	parts := strings.FieldsFunc(cell, func(r rune) bool { return r == ';' || r == '|' })
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return List(items...)
}
