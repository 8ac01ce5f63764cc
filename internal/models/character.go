package models

import (
	"time"
)

// Character is a persona profile the model is instructed to role-play
type Character struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Name           string    `json:"name" gorm:"not null"`
	IconURI        string    `json:"icon_uri"`
	Age            string    `json:"age"`
	Tone           string    `json:"tone"`
	Personality    string    `json:"personality"`
	Worldview      string    `json:"worldview"`
	Notes          string    `json:"notes"`
	IsUserCreated  bool      `json:"is_user_created" gorm:"default:false"`
	IsPreinstalled bool      `json:"is_preinstalled" gorm:"default:false"` // Preinstalled characters cannot be deleted
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateCharacterRequest is the add-character payload; only the name is required
type CreateCharacterRequest struct {
	Name        string `json:"name" binding:"required"`
	IconURI     string `json:"icon_uri"`
	Age         string `json:"age"`
	Tone        string `json:"tone"`
	Personality string `json:"personality"`
	Worldview   string `json:"worldview"`
	Notes       string `json:"notes"`
}

// UpdateCharacterRequest carries the editable persona fields
type UpdateCharacterRequest struct {
	Name        string `json:"name" binding:"required"`
	IconURI     string `json:"icon_uri"`
	Age         string `json:"age"`
	Tone        string `json:"tone"`
	Personality string `json:"personality"`
	Worldview   string `json:"worldview"`
	Notes       string `json:"notes"`
}
