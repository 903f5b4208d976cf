package repository

import (
	"fmt"

	"gorm.io/gorm"

	"manualhub/internal/model"
)

// ArtifactRepository persists the structured outputs generated from a manual.
// Regeneration replaces the previous batch for the document.
type ArtifactRepository struct {
	db *gorm.DB
}

func NewArtifactRepository(db *gorm.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

func (r *ArtifactRepository) ReplaceRules(documentID string, rules []model.GeneratedRule) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&model.GeneratedRule{}).Error; err != nil {
			return fmt.Errorf("clear rules failed: %w", err)
		}
		if len(rules) == 0 {
			return nil
		}
		for i := range rules {
			rules[i].DocumentID = documentID
		}
		if err := tx.Create(&rules).Error; err != nil {
			return fmt.Errorf("insert rules failed: %w", err)
		}
		return nil
	})
}

func (r *ArtifactRepository) ReplaceMaintenanceTasks(documentID string, tasks []model.MaintenanceTask) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&model.MaintenanceTask{}).Error; err != nil {
			return fmt.Errorf("clear maintenance tasks failed: %w", err)
		}
		if len(tasks) == 0 {
			return nil
		}
		for i := range tasks {
			tasks[i].DocumentID = documentID
		}
		if err := tx.Create(&tasks).Error; err != nil {
			return fmt.Errorf("insert maintenance tasks failed: %w", err)
		}
		return nil
	})
}

func (r *ArtifactRepository) ReplaceSafetyItems(documentID string, items []model.SafetyItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&model.SafetyItem{}).Error; err != nil {
			return fmt.Errorf("clear safety items failed: %w", err)
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].DocumentID = documentID
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("insert safety items failed: %w", err)
		}
		return nil
	})
}

func (r *ArtifactRepository) ListRules(documentID string) ([]model.GeneratedRule, error) {
	var rules []model.GeneratedRule
	if err := r.db.Where("document_id = ?", documentID).Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("list rules failed: %w", err)
	}
	return rules, nil
}

func (r *ArtifactRepository) ListMaintenanceTasks(documentID string) ([]model.MaintenanceTask, error) {
	var tasks []model.MaintenanceTask
	if err := r.db.Where("document_id = ?", documentID).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list maintenance tasks failed: %w", err)
	}
	return tasks, nil
}

func (r *ArtifactRepository) ListSafetyItems(documentID string) ([]model.SafetyItem, error) {
	var items []model.SafetyItem
	if err := r.db.Where("document_id = ?", documentID).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list safety items failed: %w", err)
	}
	return items, nil
}

func (r *ArtifactRepository) DeleteByDocument(documentID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, target := range []interface{}{&model.GeneratedRule{}, &model.MaintenanceTask{}, &model.SafetyItem{}} {
			if err := tx.Where("document_id = ?", documentID).Delete(target).Error; err != nil {
				return fmt.Errorf("delete artifacts failed: %w", err)
			}
		}
		return nil
	})
}
