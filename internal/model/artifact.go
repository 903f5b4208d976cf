package model

import "time"

// Structured artifacts generated from a manual's content by the LLM path
// (or its line-based fallback parser). One row per extracted item.

type GeneratedRule struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID string    `gorm:"size:36;not null;index" json:"document_id"`
	Condition  string    `gorm:"size:512;not null" json:"condition"`
	Action     string    `gorm:"size:512;not null" json:"action"`
	Category   string    `gorm:"size:64" json:"category"`
	Priority   string    `gorm:"size:16" json:"priority"`
	CreatedAt  time.Time `json:"created_at"`
}

type MaintenanceTask struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DocumentID  string    `gorm:"size:36;not null;index" json:"document_id"`
	Task        string    `gorm:"size:512;not null" json:"task"`
	Frequency   string    `gorm:"size:32;not null" json:"frequency"`
	Category    string    `gorm:"size:64" json:"category"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type SafetyItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DocumentID  string    `gorm:"size:36;not null;index" json:"document_id"`
	Type        string    `gorm:"size:32;not null" json:"type"` // warning, procedure, emergency
	Title       string    `gorm:"size:256;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:64" json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}
