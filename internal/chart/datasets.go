package chart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cellplot/internal/sample"
	"cellplot/internal/store"
)

func (s *Service) dataset(ctx context.Context, id string) (store.Dataset, error) {
	if s.deps.Datasets == nil {
		return store.Dataset{}, fmt.Errorf("%w: dataset storage unavailable", ErrInvalidInput)
	}
	return s.deps.Datasets.Dataset(ctx, id)
}

// records prefers inline records; a dataset id is only read when none are given.
func (s *Service) records(ctx context.Context, inline []sample.Record, datasetID string) ([]sample.Record, error) {
	if len(inline) > 0 || strings.TrimSpace(datasetID) == "" {
		if err := sample.ValidateRecords(inline); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return inline, nil
	}
	ds, err := s.dataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if ds.Kind != store.KindAttribute {
		return nil, fmt.Errorf("%w: dataset %s is %s, want %s", ErrInvalidInput, ds.ID, ds.Kind, store.KindAttribute)
	}
	recs, err := sample.DecodeRecords(ds.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return recs, nil
}

func (s *Service) bins(ctx context.Context, inline []sample.Bin, datasetID string) ([]sample.Bin, error) {
	if len(inline) > 0 || strings.TrimSpace(datasetID) == "" {
		return inline, nil
	}
	ds, err := s.dataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if ds.Kind != store.KindBins {
		return nil, fmt.Errorf("%w: dataset %s is %s, want %s", ErrInvalidInput, ds.ID, ds.Kind, store.KindBins)
	}
	bins, err := sample.DecodeBins(ds.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return bins, nil
}

func downloadRows(ds store.Dataset) ([]sample.DownloadRow, error) {
	switch ds.Kind {
	case store.KindDownload:
		return decodeDownload(ds.Payload)
	case store.KindAttribute:
		recs, err := sample.DecodeRecords(ds.Payload)
		if err != nil {
			return nil, err
		}
		rows := make([]sample.DownloadRow, len(recs))
		for i, r := range recs {
			rows[i] = sample.DownloadRow{UniqueSampleKey: r.SampleKey, Value: r.Value.String()}
		}
		return rows, nil
	}
	return nil, fmt.Errorf("%w: dataset %s (%s) has no tabular download", ErrInvalidInput, ds.ID, ds.Kind)
}

func decodeDownload(payload []byte) ([]sample.DownloadRow, error) {
	var rows []sample.DownloadRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("decode download rows: %w", err)
	}
	return rows, nil
}
