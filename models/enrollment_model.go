package models

import (
	"time"

	"github.com/google/uuid"
)

type Enrollment struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID   uuid.UUID `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID uuid.UUID `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"course_id"`

	IsActive          bool       `gorm:"default:true;index" json:"is_active"`
	EnrolledAt        time.Time  `gorm:"autoCreateTime" json:"enrolled_at"`
	ExpiryDate        *time.Time `json:"expiry_date"`
	CompletedAt       *time.Time `json:"completed_at"`
	CertificateIssued bool       `gorm:"default:false" json:"certificate_issued"`

	User   User   `gorm:"foreignkey:UserID" json:"-"`
	Course Course `gorm:"foreignkey:CourseID" json:"-"`
}

// Valid reports whether the enrollment currently grants course access.
func (e *Enrollment) Valid(now time.Time) bool {
	if !e.IsActive {
		return false
	}
	if e.ExpiryDate != nil && e.ExpiryDate.Before(now) {
		return false
	}
	return true
}
