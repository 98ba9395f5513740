package realtime

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventChatMessage  EventType = "chat_message"
	EventTyping       EventType = "typing_indicator"
	EventReadReceipt  EventType = "read_receipt"
	EventUserJoined   EventType = "user_joined"
	EventUserLeft     EventType = "user_left"
	EventNotification EventType = "notification"
)

// Envelope is the wire shape for every frame delivered over a live
// connection. Type discriminates the payload; unused fields are omitted.
type Envelope struct {
	Type             EventType  `json:"type"`
	MessageID        *uuid.UUID `json:"message_id,omitempty"`
	Message          string     `json:"message,omitempty"`
	SenderID         *uuid.UUID `json:"sender_id,omitempty"`
	UserID           *uuid.UUID `json:"user_id,omitempty"`
	ReplyToID        *uuid.UUID `json:"reply_to_id,omitempty"`
	NotificationID   *uuid.UUID `json:"notification_id,omitempty"`
	NotificationType string     `json:"notification_type,omitempty"`
	Title            string     `json:"title,omitempty"`
	IsTyping         *bool      `json:"is_typing,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// GroupScope names the broadcast scope of a community group.
func GroupScope(groupID uuid.UUID) string {
	return fmt.Sprintf("group:%s", groupID)
}

// UserScope names the per-user notification channel.
func UserScope(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s", userID)
}
