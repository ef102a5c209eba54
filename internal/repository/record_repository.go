package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"plannr/internal/model"
)

// RecordRepository stores key-value records in the records table.
type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Get returns the stored value for key. ok is false when the key is absent.
func (r *RecordRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var record model.Record
	err := r.db.WithContext(ctx).Where("name = ?", key).First(&record).Error
	switch {
	case err == nil:
		return []byte(record.Value), true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("find record %q: %w", key, err)
	}
}

// Put inserts or replaces the value for key.
func (r *RecordRepository) Put(ctx context.Context, key string, value []byte) error {
	if err := upsert(r.db.WithContext(ctx), key, value); err != nil {
		return fmt.Errorf("save record %q: %w", key, err)
	}
	return nil
}

// PutAll writes every entry in one transaction.
func (r *RecordRepository) PutAll(ctx context.Context, values map[string][]byte) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, value := range values {
			if err := upsert(tx, key, value); err != nil {
				return fmt.Errorf("save record %q: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save records: %w", err)
	}
	return nil
}

// Delete removes the record for key. Missing keys are not an error.
func (r *RecordRepository) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("name = ?", key).Delete(&model.Record{}).Error; err != nil {
		return fmt.Errorf("delete record %q: %w", key, err)
	}
	return nil
}

// Size returns the number of bytes held by keys and values together.
func (r *RecordRepository) Size(ctx context.Context) (int64, error) {
	var size int64
	if err := r.db.WithContext(ctx).Model(&model.Record{}).
		Select("COALESCE(SUM(LENGTH(name) + LENGTH(value)), 0)").
		Scan(&size).Error; err != nil {
		return 0, fmt.Errorf("measure records: %w", err)
	}
	return size, nil
}

// Clear removes every record.
func (r *RecordRepository) Clear(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.Record{}).Error; err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	return nil
}

func upsert(db *gorm.DB, key string, value []byte) error {
	record := model.Record{Key: key, Value: string(value)}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error
}
