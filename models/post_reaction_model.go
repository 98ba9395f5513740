package models

import (
	"time"

	"github.com/google/uuid"
)

type PostReaction struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	PostID uuid.UUID `gorm:"not null;uniqueIndex:idx_reaction_post_user_type" json:"post_id"`
	UserID uuid.UUID `gorm:"not null;uniqueIndex:idx_reaction_post_user_type" json:"user_id"`

	ReactionType string `gorm:"size:20;not null;default:'like';uniqueIndex:idx_reaction_post_user_type" json:"reaction_type"`

	Post DiscussionPost `gorm:"foreignkey:PostID" json:"-"`
	User User           `gorm:"foreignkey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}
