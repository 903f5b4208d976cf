package model

import "time"

// Document is the registry row for one uploaded manual. The chunk payloads
// themselves live in the vector index under Collection; deleting a document
// drops that collection as well.
type Document struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Filename    string    `gorm:"size:256;not null" json:"filename"`
	DisplayName string    `gorm:"size:256;not null" json:"display_name"`
	Collection  string    `gorm:"size:256;not null;uniqueIndex" json:"collection"`
	DeviceID    string    `gorm:"size:64;index" json:"device_id"` // optional scope tag
	SizeBytes   int64     `gorm:"not null" json:"size_bytes"`
	ContentHash string    `gorm:"size:64;not null" json:"content_hash"`
	ChunkCount  int       `gorm:"not null" json:"chunk_count"`
	Method      string    `gorm:"size:32" json:"method"` // extraction strategy used
	CreatedAt   time.Time `json:"created_at"`
}
