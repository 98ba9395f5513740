package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	config "github.com/sooryaah/imat-lms/configs"
)

const TypeNotificationEmail = "notification:email"

type NotificationEmailPayload struct {
	NotificationID uuid.UUID `json:"notification_id"`
}

var client *asynq.Client

// InitClient wires the asynq producer onto the shared Redis instance.
func InitClient() {
	opt, err := asynq.ParseRedisURI(config.ConfigDefault("REDIS_URL", "redis://localhost:6379/0"))
	if err != nil {
		log.Fatalf("🔥 Invalid REDIS_URL for task queue: %v", err)
	}
	client = asynq.NewClient(opt)
	log.Println("✅ Task queue client initialized")
}

// EnqueueNotificationEmail schedules the email delivery of a stored
// notification. Best effort: a full queue only costs the email, the in-app
// notification row already exists.
func EnqueueNotificationEmail(ctx context.Context, notificationID uuid.UUID) {
	if client == nil {
		return
	}
	payload, err := json.Marshal(NotificationEmailPayload{NotificationID: notificationID})
	if err != nil {
		log.Printf("Failed to marshal email task payload: %v", err)
		return
	}
	task := asynq.NewTask(TypeNotificationEmail, payload)
	if _, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(3), asynq.Queue("email")); err != nil {
		log.Printf("Failed to enqueue notification email %s: %v", notificationID, err)
	}
}
