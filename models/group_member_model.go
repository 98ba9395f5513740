package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MemberRoleMember     = "member"
	MemberRoleModerator  = "moderator"
	MemberRoleInstructor = "instructor"
)

type GroupMember struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	GroupID uuid.UUID `gorm:"not null;uniqueIndex:idx_member_group_user" json:"group_id"`
	UserID  uuid.UUID `gorm:"not null;uniqueIndex:idx_member_group_user" json:"user_id"`

	Role     string `gorm:"size:20;not null;default:'member'" json:"role"`
	IsActive bool   `gorm:"default:true;index" json:"is_active"`

	EmailNotifications bool `gorm:"default:true" json:"email_notifications"`

	Group CommunityGroup `gorm:"foreignkey:GroupID" json:"-"`
	User  User           `gorm:"foreignkey:UserID" json:"-"`

	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

func (m *GroupMember) IsModerator() bool {
	return m.Role == MemberRoleModerator || m.Role == MemberRoleInstructor
}
