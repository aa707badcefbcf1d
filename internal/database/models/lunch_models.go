package models

import "time"

// LunchDocument holds the whole shared document as one JSON row.
type LunchDocument struct {
	Key       string    `gorm:"column:doc_key;primaryKey;size:100"`
	Payload   string    `gorm:"type:text;not null"`
	Revision  int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (LunchDocument) TableName() string {
	return "lunch_documents"
}
