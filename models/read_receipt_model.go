package models

import (
	"time"

	"github.com/google/uuid"
)

// ReadReceipt is append-only: at most one row per (message, user).
type ReadReceipt struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	MessageID uuid.UUID `gorm:"not null;uniqueIndex:idx_receipt_message_user" json:"message_id"`
	UserID    uuid.UUID `gorm:"not null;uniqueIndex:idx_receipt_message_user" json:"user_id"`

	Message ChatMessage `gorm:"foreignkey:MessageID" json:"-"`
	User    User        `gorm:"foreignkey:UserID" json:"-"`

	ReadAt time.Time `gorm:"autoCreateTime" json:"read_at"`
}
