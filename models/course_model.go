package models

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:100;index" json:"category"`
	Level       string    `gorm:"size:20;default:'beginner'" json:"level"`
	Price       float64   `gorm:"type:numeric(10,2);not null;default:0.00" json:"price"`
	Currency    string    `gorm:"size:3;default:'USD'" json:"currency"`
	IsPublished bool      `gorm:"default:false;index" json:"is_published"`

	InstructorID uuid.UUID `gorm:"not null" json:"instructor_id"`
	Instructor   User      `gorm:"foreignkey:InstructorID" json:"-"`

	// Every course owns exactly one community group for its lifetime.
	CommunityGroup *CommunityGroup `json:"community_group,omitempty"`

	EnrollmentCount int `gorm:"default:0" json:"enrollment_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
