package realtime

import (
	"context"

	"github.com/google/uuid"
	"github.com/sooryaah/imat-lms/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the durable record of messages, receipts and notifications. The
// write must succeed before anything is broadcast; clients that miss a live
// frame recover from the store on reconnect.
type Store interface {
	SaveMessage(ctx context.Context, msg *models.ChatMessage) error
	GetMessage(ctx context.Context, id uuid.UUID) (*models.ChatMessage, error)
	// SaveReadReceipt inserts at most one receipt per (message, user) and
	// reports whether this call created it. The receipt that gets created
	// also moves the message's status to read.
	SaveReadReceipt(ctx context.Context, messageID, userID uuid.UUID) (bool, error)
	SaveNotification(ctx context.Context, n *models.Notification) error
}

type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	return s.db.WithContext(ctx).Create(msg).Error
}

func (s *gormStore) GetMessage(ctx context.Context, id uuid.UUID) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *gormStore) SaveReadReceipt(ctx context.Context, messageID, userID uuid.UUID) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		receipt := models.ReadReceipt{MessageID: messageID, UserID: userID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&receipt)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		return tx.Model(&models.ChatMessage{}).
			Where("id = ? AND status <> ?", messageID, models.MessageRead).
			Update("status", models.MessageRead).Error
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (s *gormStore) SaveNotification(ctx context.Context, n *models.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}
