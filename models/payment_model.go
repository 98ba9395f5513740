package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
)

type Payment struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID   uuid.UUID `gorm:"not null" json:"user_id"`
	CourseID uuid.UUID `gorm:"not null" json:"course_id"`

	Amount        float64 `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency      string  `gorm:"size:3;not null" json:"currency"`
	Provider      string  `gorm:"size:50;not null" json:"provider"`
	Reference     string  `gorm:"size:20;not null;unique" json:"reference"`
	ProviderTxnID *string `gorm:"size:255;unique" json:"provider_txn_id"`
	Status        string  `gorm:"size:20;not null;default:'pending'" json:"status"`

	User   User   `gorm:"foreignkey:UserID" json:"-"`
	Course Course `gorm:"foreignkey:CourseID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
