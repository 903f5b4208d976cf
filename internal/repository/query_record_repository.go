package repository

import (
	"fmt"

	"gorm.io/gorm"

	"manualhub/internal/model"
)

type QueryRecordRepository struct {
	db *gorm.DB
}

func NewQueryRecordRepository(db *gorm.DB) *QueryRecordRepository {
	return &QueryRecordRepository{db: db}
}

func (r *QueryRecordRepository) Create(record *model.QueryRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("create query record failed: %w", err)
	}
	return nil
}

func (r *QueryRecordRepository) ListByUser(userID uint, limit int) ([]model.QueryRecord, error) {
	var records []model.QueryRecord
	if err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list query records failed: %w", err)
	}
	return records, nil
}

func (r *QueryRecordRepository) ListByCollection(collection string, limit int) ([]model.QueryRecord, error) {
	var records []model.QueryRecord
	if err := r.db.Where("collection = ?", collection).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list query records by collection failed: %w", err)
	}
	return records, nil
}
