package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"manualhub/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByCollection(collection string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("collection = ?", collection).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query document by collection failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) GetByContentHash(hash string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("content_hash = ?", hash).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query document by content hash failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByDevice(deviceID string) ([]model.Document, error) {
	var docs []model.Document
	query := r.db.Order("created_at DESC")
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}
	if err := query.Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) DeleteByCollection(collection string) error {
	if err := r.db.Where("collection = ?", collection).Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}
