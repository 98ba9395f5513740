package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sooryaah/imat-lms/models"
	"gorm.io/gorm"
)

// EnrollmentGate is the membership check consulted before any subscribe or
// publish. It denies whenever the answer cannot be established: a database
// error never grants access.
type EnrollmentGate struct {
	db *gorm.DB
}

func NewEnrollmentGate(db *gorm.DB) *EnrollmentGate {
	return &EnrollmentGate{db: db}
}

func (g *EnrollmentGate) IsActiveMember(ctx context.Context, userID, groupID uuid.UUID) bool {
	var member models.GroupMember
	err := g.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ? AND is_active = ?", groupID, userID, true).
		First(&member).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("Membership check failed for user %s in group %s: %v (denying)", userID, groupID, err)
		}
		return false
	}

	// Moderators and instructors hold access through the membership itself.
	if member.IsModerator() {
		return true
	}

	// Students additionally need a live enrollment in the owning course.
	var group models.CommunityGroup
	if err := g.db.WithContext(ctx).Select("course_id").Where("id = ?", groupID).First(&group).Error; err != nil {
		log.Printf("Group lookup failed for %s: %v (denying)", groupID, err)
		return false
	}

	var enrollment models.Enrollment
	err = g.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, group.CourseID).
		First(&enrollment).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("Enrollment check failed for user %s: %v (denying)", userID, err)
		}
		return false
	}

	return enrollment.Valid(time.Now())
}
