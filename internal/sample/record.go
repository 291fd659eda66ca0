package sample

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Record 是一行样本属性：样本唯一键 + 属性值。
type Record struct {
	SampleKey string `json:"uniqueSampleKey"`
	Value     Value  `json:"value"`
}

func NewRecord(key string, value Value) Record {
	return Record{SampleKey: key, Value: value}
}

// DecodeRecords parses a JSON array of attribute records.
func DecodeRecords(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode attribute records: %w", err)
	}
	if err := ValidateRecords(records); err != nil {
		return nil, err
	}
	return records, nil
}

// ValidateRecords rejects records without a sample key.
func ValidateRecords(records []Record) error {
	for i, rec := range records {
		if strings.TrimSpace(rec.SampleKey) == "" {
			return fmt.Errorf("record #%d missing uniqueSampleKey", i+1)
		}
	}
	return nil
}

// Bin special markers.
const (
	SpecialLessEqual = "<="
	SpecialGreater   = ">"
	SpecialNA        = "NA"
)

// Bin 是离散化后的区间桶及其样本数。
type Bin struct {
	ID           string   `json:"id"`
	Count        int      `json:"count"`
	Start        *float64 `json:"start,omitempty"`
	End          *float64 `json:"end,omitempty"`
	SpecialValue string   `json:"specialValue,omitempty"`
}

// Bound returns a pointer suitable for Bin.Start/Bin.End.
func Bound(v float64) *float64 {
	return &v
}

func (b Bin) IsNA() bool {
	return b.SpecialValue == SpecialNA
}

// DecodeBins parses a JSON array of bins.
func DecodeBins(data []byte) ([]Bin, error) {
	var bins []Bin
	if err := json.Unmarshal(data, &bins); err != nil {
		return nil, fmt.Errorf("decode bins: %w", err)
	}
	return bins, nil
}
