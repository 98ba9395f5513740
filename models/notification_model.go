package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotifyNewMessage      = "new_message"
	NotifyNewReply        = "new_reply"
	NotifyPostApproved    = "post_approved"
	NotifyPostRejected    = "post_rejected"
	NotifyModeratorAction = "moderator_action"
	NotifyNewCourse       = "new_course"
)

// Notification is the durable fan-out target of system events. Producers
// create rows only for users who held a membership of the originating group
// at creation time; only the recipient mutates the read flag.
type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	RecipientID uuid.UUID  `gorm:"not null;index:idx_notification_recipient_read" json:"recipient_id"`
	ActorID     *uuid.UUID `json:"actor_id,omitempty"`

	Kind    string     `gorm:"size:30;not null;index" json:"kind"`
	GroupID *uuid.UUID `json:"group_id,omitempty"`

	Title   string `gorm:"size:255;not null" json:"title"`
	Body    string `gorm:"type:text" json:"body"`

	IsRead bool       `gorm:"default:false;index:idx_notification_recipient_read" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	EmailSent bool `gorm:"default:false" json:"-"`

	Recipient User           `gorm:"foreignkey:RecipientID" json:"-"`
	Group     CommunityGroup `gorm:"foreignkey:GroupID" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
