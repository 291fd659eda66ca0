package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("not found")

// Kind tells what a dataset payload decodes into.
type Kind string

const (
	// KindAttribute payloads are []sample.Record.
	KindAttribute Kind = "attribute"
	// KindBins payloads are []sample.Bin.
	KindBins Kind = "bins"
	// KindDownload payloads are []sample.DownloadRow.
	KindDownload Kind = "download"
)

func (k Kind) Valid() bool {
	switch k {
	case KindAttribute, KindBins, KindDownload:
		return true
	}
	return false
}

// Dataset is a named, stored chart input.
type Dataset struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Kind      Kind            `json:"kind"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type datasetModel struct {
	ID            string         `gorm:"column:id;primaryKey"`
	Name          string         `gorm:"column:name;index"`
	Kind          string         `gorm:"column:kind;index"`
	Payload       datatypes.JSON `gorm:"column:payload;type:TEXT"`
	CreatedAtUnix int64          `gorm:"column:created_at"`
	UpdatedAtUnix int64          `gorm:"column:updated_at"`
}

func (datasetModel) TableName() string { return "datasets" }

func (m datasetModel) toDataset() Dataset {
	return Dataset{
		ID:        m.ID,
		Name:      m.Name,
		Kind:      Kind(m.Kind),
		Payload:   json.RawMessage(m.Payload),
		CreatedAt: time.Unix(m.CreatedAtUnix, 0).UTC(),
		UpdatedAt: time.Unix(m.UpdatedAtUnix, 0).UTC(),
	}
}

// DatasetStore keeps datasets in sqlite through gorm.
type DatasetStore struct {
	db *gorm.DB
}

func NewDatasetStore(path string) (*DatasetStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("dataset store: path cannot be empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&datasetModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &DatasetStore{db: db}, nil
}

func (s *DatasetStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveDataset inserts ds, or replaces it when ds.ID already exists. A blank
// ID gets a fresh uuid.
func (s *DatasetStore) SaveDataset(ctx context.Context, ds Dataset) (string, error) {
	if !ds.Kind.Valid() {
		return "", fmt.Errorf("dataset kind %q is not supported", ds.Kind)
	}
	if len(ds.Payload) == 0 || !json.Valid(ds.Payload) {
		return "", fmt.Errorf("dataset payload must be valid JSON")
	}
	now := time.Now().Unix()
	model := datasetModel{
		ID:            strings.TrimSpace(ds.ID),
		Name:          strings.TrimSpace(ds.Name),
		Kind:          string(ds.Kind),
		Payload:       datatypes.JSON(ds.Payload),
		CreatedAtUnix: now,
		UpdatedAtUnix: now,
	}
	if model.ID == "" {
		model.ID = uuid.NewString()
	} else {
		var existing datasetModel
		err := s.db.WithContext(ctx).Where("id = ?", model.ID).First(&existing).Error
		switch {
		case err == nil:
			model.CreatedAtUnix = existing.CreatedAtUnix
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return "", err
		}
	}
	if err := s.db.WithContext(ctx).Save(&model).Error; err != nil {
		return "", err
	}
	return model.ID, nil
}

func (s *DatasetStore) Dataset(ctx context.Context, id string) (Dataset, error) {
	var model datasetModel
	if err := s.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Dataset{}, fmt.Errorf("dataset %s: %w", id, ErrNotFound)
		}
		return Dataset{}, err
	}
	return model.toDataset(), nil
}

// ListDatasets returns metadata only (no payload), newest first.
func (s *DatasetStore) ListDatasets(ctx context.Context) ([]Dataset, error) {
	var models []datasetModel
	err := s.db.WithContext(ctx).
		Select("id", "name", "kind", "created_at", "updated_at").
		Order("updated_at DESC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]Dataset, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDataset())
	}
	return out, nil
}

func (s *DatasetStore) DeleteDataset(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).Delete(&datasetModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("dataset %s: %w", id, ErrNotFound)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
