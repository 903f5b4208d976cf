package model

import (
	"encoding/json"
	"time"
)

// QueryRecord stores one answered question for the history view.
// Sources is a JSON array of section labels for portability.
type QueryRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Collection string    `gorm:"size:256;index" json:"collection"`
	DeviceID   string    `gorm:"size:64;index" json:"device_id"`
	Question   string    `gorm:"type:text;not null" json:"question"`
	Answer     string    `gorm:"type:text;not null" json:"answer"`
	Confidence float64   `gorm:"not null" json:"confidence"`
	Sources    string    `gorm:"type:text" json:"-"`
	ElapsedMS  int64     `gorm:"not null" json:"elapsed_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// SourceList returns the parsed sources; empty on parse error.
func (r *QueryRecord) SourceList() []string {
	if r.Sources == "" {
		return nil
	}
	var v []string
	_ = json.Unmarshal([]byte(r.Sources), &v)
	return v
}

// SetSources stores the source labels as JSON.
func (r *QueryRecord) SetSources(sources []string) {
	if len(sources) == 0 {
		r.Sources = "[]"
		return
	}
	b, _ := json.Marshal(sources)
	r.Sources = string(b)
}
