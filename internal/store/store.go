// Package store is the local dataset: the prompt library the engine
// exports snapshots from and applies remote changes to.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"PromptKeeper/internal/model"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// DataStore is the exporter/importer contract the orchestrator consumes.
// ApplyChanges must be an idempotent upsert-by-id and must honor tombstones
// (a deleted item is kept as a row with Deleted set, never removed).
type DataStore interface {
	ExportAll() (model.Dataset, error)
	ApplyChanges(ctx context.Context, items []model.DataItem) error
}

// SQLStore keeps the dataset in a single data_items table, payload
// serialized as JSON.
type SQLStore struct {
	db *gorm.DB
}

var _ DataStore = (*SQLStore)(nil)

type itemRow struct {
	ID                     string `gorm:"primaryKey;type:uuid"`
	Kind                   string `gorm:"not null;index"`
	Title                  string
	Content                string `gorm:"type:text"`
	CreatedAt              time.Time
	// Timestamps come from the sync metadata, never from gorm hooks:
	// stamping rows on write would make every merge look like a local edit.
	UpdatedAt              time.Time `gorm:"autoUpdateTime:false"`
	Version                int64     `gorm:"not null;default:1"`
	OwnerDeviceID          string
	LastModifiedByDeviceID string
	Checksum               string
	Deleted                bool   `gorm:"not null;default:false;index"`
	Tags                   string `gorm:"type:text"`
}

func (itemRow) TableName() string { return "data_items" }

// Open opens (creating if needed) the library database at path and runs
// migrations.
func Open(path string) (*SQLStore, error) {
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: path}
	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open library db: %w", err)
	}
	if err := db.AutoMigrate(&itemRow{}); err != nil {
		return nil, fmt.Errorf("migrate library db: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// ExportAll returns the whole dataset grouped by kind, tombstones included.
func (s *SQLStore) ExportAll() (model.Dataset, error) {
	var rows []itemRow
	if err := s.db.Order("id").Find(&rows).Error; err != nil {
		return model.Dataset{}, fmt.Errorf("export items: %w", err)
	}
	items := make([]model.DataItem, 0, len(rows))
	for _, r := range rows {
		it, err := r.toItem()
		if err != nil {
			return model.Dataset{}, err
		}
		items = append(items, it)
	}
	return model.GroupByKind(items), nil
}

// ApplyChanges upserts the given items by id. Calling it twice with the
// same input leaves the table unchanged.
func (s *SQLStore) ApplyChanges(ctx context.Context, items []model.DataItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]itemRow, 0, len(items))
	for _, it := range items {
		r, err := rowFromItem(it)
		if err != nil {
			return err
		}
		rows = append(rows, r)
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("apply %d items: %w", len(items), err)
	}
	return nil
}

func rowFromItem(it model.DataItem) (itemRow, error) {
	content, err := json.Marshal(it.Content)
	if err != nil {
		return itemRow{}, fmt.Errorf("encode content of %s: %w", it.ID, err)
	}
	tags, err := json.Marshal(it.Metadata.Tags)
	if err != nil {
		return itemRow{}, fmt.Errorf("encode tags of %s: %w", it.ID, err)
	}
	return itemRow{
		ID:                     it.ID,
		Kind:                   string(it.Kind),
		Title:                  it.Title,
		Content:                string(content),
		CreatedAt:              it.Metadata.CreatedAt,
		UpdatedAt:              it.Metadata.UpdatedAt,
		Version:                it.Metadata.Version,
		OwnerDeviceID:          it.Metadata.OwnerDeviceID,
		LastModifiedByDeviceID: it.Metadata.LastModifiedByDeviceID,
		Checksum:               it.Metadata.Checksum,
		Deleted:                it.Metadata.Deleted,
		Tags:                   string(tags),
	}, nil
}

func (r itemRow) toItem() (model.DataItem, error) {
	var content map[string]any
	if r.Content != "" {
		if err := json.Unmarshal([]byte(r.Content), &content); err != nil {
			return model.DataItem{}, fmt.Errorf("decode content of %s: %w", r.ID, err)
		}
	}
	var tags []string
	if r.Tags != "" {
		if err := json.Unmarshal([]byte(r.Tags), &tags); err != nil {
			return model.DataItem{}, fmt.Errorf("decode tags of %s: %w", r.ID, err)
		}
	}
	return model.DataItem{
		ID:      r.ID,
		Kind:    model.Kind(r.Kind),
		Title:   r.Title,
		Content: content,
		Metadata: model.ItemMetadata{
			CreatedAt:              r.CreatedAt,
			UpdatedAt:              r.UpdatedAt,
			Version:                r.Version,
			OwnerDeviceID:          r.OwnerDeviceID,
			LastModifiedByDeviceID: r.LastModifiedByDeviceID,
			Checksum:               r.Checksum,
			Deleted:                r.Deleted,
			Tags:                   tags,
		},
	}, nil
}
