package models

import (
	"time"

	"github.com/google/uuid"
)

// PostStatus is a tagged state rather than a pile of booleans. Transitions
// are restricted to the edges in postTransitions.
type PostStatus string

const (
	PostDraft           PostStatus = "draft"
	PostPendingApproval PostStatus = "pending_approval"
	PostPublished       PostStatus = "published"
	PostArchived        PostStatus = "archived"
	PostDeleted         PostStatus = "deleted"
)

var postTransitions = map[PostStatus][]PostStatus{
	PostDraft:           {PostPendingApproval, PostPublished, PostDeleted},
	PostPendingApproval: {PostPublished, PostDraft, PostDeleted},
	PostPublished:       {PostArchived, PostDeleted},
	PostArchived:        {PostPublished, PostDeleted},
	PostDeleted:         {},
}

// CanTransition reports whether a post may move from one status to another.
func CanTransition(from, to PostStatus) bool {
	for _, next := range postTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type DiscussionPost struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	GroupID  uuid.UUID `gorm:"not null;index" json:"group_id"`
	AuthorID uuid.UUID `gorm:"not null;index" json:"author_id"`

	Title   string     `gorm:"size:255;not null" json:"title"`
	Content string     `gorm:"type:text;not null" json:"content"`
	Status  PostStatus `gorm:"size:20;not null;default:'published';index" json:"status"`

	// One-level threading: replies reference the root post only.
	ParentPostID *uuid.UUID `gorm:"index" json:"parent_post_id"`

	IsPinned   bool `gorm:"default:false" json:"is_pinned"`
	ReplyCount int  `gorm:"default:0" json:"reply_count"`

	ModerationNotes *string `gorm:"type:text" json:"moderation_notes,omitempty"`

	Group  CommunityGroup `gorm:"foreignkey:GroupID" json:"-"`
	Author User           `gorm:"foreignkey:AuthorID" json:"-"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
