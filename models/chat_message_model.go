package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MessageSent      = "sent"
	MessageDelivered = "delivered"
	MessageRead      = "read"
)

const (
	MessageStateActive  = "active"
	MessageStateDeleted = "deleted"
)

type ChatMessage struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	GroupID  uuid.UUID `gorm:"not null;index:idx_message_group_created" json:"group_id"`
	SenderID uuid.UUID `gorm:"not null;index" json:"sender_id"`

	Body   string `gorm:"type:text;not null" json:"body"`
	Status string `gorm:"size:20;not null;default:'sent'" json:"status"`
	State  string `gorm:"size:20;not null;default:'active'" json:"state"`

	AttachmentURL *string `gorm:"size:500" json:"attachment_url,omitempty"`

	// One-level thread: a reply may not itself be replied to.
	ReplyToID *uuid.UUID `json:"reply_to_id,omitempty"`

	IsEdited bool       `gorm:"default:false" json:"is_edited"`
	EditedAt *time.Time `json:"edited_at,omitempty"`

	Group  CommunityGroup `gorm:"foreignkey:GroupID" json:"-"`
	Sender User           `gorm:"foreignkey:SenderID" json:"-"`

	CreatedAt time.Time  `gorm:"index:idx_message_group_created" json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
