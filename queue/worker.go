package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	config "github.com/sooryaah/imat-lms/configs"
	"github.com/sooryaah/imat-lms/database"
	"github.com/sooryaah/imat-lms/models"
	"github.com/sooryaah/imat-lms/notifications"
)

// RunWorker starts the in-process asynq consumer for email delivery.
func RunWorker() {
	opt, err := asynq.ParseRedisURI(config.ConfigDefault("REDIS_URL", "redis://localhost:6379/0"))
	if err != nil {
		log.Fatalf("🔥 Invalid REDIS_URL for task worker: %v", err)
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: config.ConfigInt("QUEUE_CONCURRENCY", 5),
		Queues:      map[string]int{"email": 1, "default": 1},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeNotificationEmail, handleNotificationEmail)

	go func() {
		if err := srv.Run(mux); err != nil {
			log.Printf("🔥 Task worker stopped: %v", err)
		}
	}()
	log.Println("✅ Task queue worker started")
}

func handleNotificationEmail(ctx context.Context, t *asynq.Task) error {
	var payload NotificationEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}

	var n models.Notification
	if err := database.DB.WithContext(ctx).
		Preload("Recipient").
		Where("id = ?", payload.NotificationID).
		First(&n).Error; err != nil {
		return fmt.Errorf("notification %s not found: %v: %w", payload.NotificationID, err, asynq.SkipRetry)
	}
	if n.EmailSent {
		return nil
	}

	body := fmt.Sprintf("<h1>%s</h1><p>%s</p>", n.Title, n.Body)
	notifications.SendEmail(n.Recipient.FullName, n.Recipient.Email, n.Title, body)

	return database.DB.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", n.ID).
		Update("email_sent", true).Error
}
