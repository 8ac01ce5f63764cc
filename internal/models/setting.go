package models

import "time"

// Setting is a scoped key/value application setting (API key, first-run flag)
type Setting struct {
	Key       string    `json:"key" gorm:"primaryKey"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
