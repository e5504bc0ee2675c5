package models

import "time"

// MessageReceipt records that a message passed between two users. Message
// content is never stored; only whether it was machine-translated.
type MessageReceipt struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	SenderID       string    `gorm:"type:uuid;not null;index" json:"sender_id"`
	RecipientID    string    `gorm:"type:uuid;not null;index" json:"recipient_id"`
	HasTranslation bool      `gorm:"not null" json:"has_translation"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}
