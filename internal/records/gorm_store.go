package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// record is the relational row backing one JSON document.
type record struct {
	Collection string         `gorm:"primaryKey;size:64"`
	ID         string         `gorm:"primaryKey;size:64"`
	Doc        datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (record) TableName() string { return "records" }

// GormStore persists JSON documents in a single gorm-managed table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps the database handle and ensures the backing table exists.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("records: db is required")
	}
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("records: migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Get implements Store.
func (s *GormStore) Get(ctx context.Context, collection, id string, out any) error {
	var row record
	err := s.db.WithContext(ctx).
		First(&row, "collection = ? AND id = ?", collection, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("records: get %s/%s: %w", collection, id, err)
	}

	if err := json.Unmarshal(row.Doc, out); err != nil {
		return fmt.Errorf("records: decode %s/%s: %w", collection, id, err)
	}
	return nil
}

// Put implements Store.
func (s *GormStore) Put(ctx context.Context, collection, id string, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("records: encode %s/%s: %w", collection, id, err)
	}

	row := record{Collection: collection, ID: id, Doc: payload}
	err = s.db.WithContext(ctx).Save(&row).Error
	if err != nil {
		return fmt.Errorf("records: put %s/%s: %w", collection, id, err)
	}
	return nil
}

// Create implements Store.
func (s *GormStore) Create(ctx context.Context, collection, id string, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("records: encode %s/%s: %w", collection, id, err)
	}

	row := record{Collection: collection, ID: id, Doc: payload}
	err = s.db.WithContext(ctx).Create(&row).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("records: create %s/%s: %w", collection, id, err)
	}
	return nil
}

// Patch implements Store. The merge happens inside a transaction so concurrent
// patches to the same document do not lose fields.
func (s *GormStore) Patch(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row record
		err := tx.First(&row, "collection = ? AND id = ?", collection, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("records: patch load %s/%s: %w", collection, id, err)
		}

		merged := map[string]any{}
		if len(row.Doc) > 0 {
			if err := json.Unmarshal(row.Doc, &merged); err != nil {
				return fmt.Errorf("records: patch decode %s/%s: %w", collection, id, err)
			}
		}
		for key, value := range fields {
			merged[key] = value
		}

		payload, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("records: patch encode %s/%s: %w", collection, id, err)
		}

		row.Doc = payload
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("records: patch save %s/%s: %w", collection, id, err)
		}
		return nil
	})
}

// Delete implements Store.
func (s *GormStore) Delete(ctx context.Context, collection, id string) error {
	err := s.db.WithContext(ctx).
		Delete(&record{}, "collection = ? AND id = ?", collection, id).Error
	if err != nil {
		return fmt.Errorf("records: delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// FindEqual implements Store using a JSON field query pushed down to the
// database where the driver supports it.
func (s *GormStore) FindEqual(ctx context.Context, collection, field string, value any, out any) error {
	var rows []record
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Where(datatypes.JSONQuery("doc").Equals(value, field)).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return fmt.Errorf("records: find %s.%s: %w", collection, field, err)
	}

	docs := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, json.RawMessage(row.Doc))
	}

	payload, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("records: find encode: %w", err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("records: find decode: %w", err)
	}
	return nil
}
