package models

import (
	"time"
)

// ChatMessage is one turn of a conversation, from either the user or the character
type ChatMessage struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	CharacterID   uint      `json:"character_id" gorm:"index;not null"`
	IsUserMessage bool      `json:"is_user_message"`
	Message       string    `json:"message"`
	Timestamp     int64     `json:"timestamp" gorm:"index"` // epoch milliseconds, non-decreasing per character
	CreatedAt     time.Time `json:"created_at"`
}

// SendMessageRequest is the send-turn payload
type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}
