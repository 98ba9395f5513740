package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	VisibilityPublic              = "public"
	VisibilityPrivate             = "private"
	VisibilityInstructorModerated = "instructor_moderated"
)

// CommunityGroup is the broadcast scope for chat and discussions. It is
// created together with its course and lives as long as the course does.
type CommunityGroup struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CourseID uuid.UUID `gorm:"not null;unique" json:"course_id"`

	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Visibility  string `gorm:"size:20;not null;default:'public'" json:"visibility"`
	BannerURL   *string `gorm:"size:500" json:"banner_url"`

	RequirePostApproval bool `gorm:"default:false" json:"require_post_approval"`

	MemberCount int `gorm:"default:0" json:"member_count"`
	PostCount   int `gorm:"default:0" json:"post_count"`

	Course  Course        `gorm:"foreignkey:CourseID" json:"-"`
	Members []GroupMember `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
