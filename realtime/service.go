package realtime

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sooryaah/imat-lms/apperrors"
	"github.com/sooryaah/imat-lms/models"
)

// Service is the messaging fan-out core. Every durable event is written to
// the store before it is broadcast; a failed write aborts the operation with
// nothing sent, while a failed broadcast after a successful write is only
// logged, because reconnecting clients resync from the store.
type Service struct {
	store  Store
	broker Broker
	hub    *Hub
	gate   AccessGate
	typing *typingTracker
}

type Option func(*Service)

// WithTypingTTL overrides the typing-indicator expiry, mainly for tests.
func WithTypingTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.typing = newTypingTracker(ttl, s.typingExpired)
	}
}

func NewService(store Store, broker Broker, hub *Hub, gate AccessGate, opts ...Option) *Service {
	s := &Service{
		store:  store,
		broker: broker,
		hub:    hub,
		gate:   gate,
	}
	s.typing = newTypingTracker(DefaultTypingTTL, s.typingExpired)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Hub() *Hub { return s.hub }

// Subscribe registers a live session for a group's events. The membership
// gate runs first: a denied or failed check registers nothing. Repeat calls
// for the same session and group are no-ops.
func (s *Service) Subscribe(ctx context.Context, sess *Session, groupID uuid.UUID) error {
	if !s.gate.IsActiveMember(ctx, sess.UserID, groupID) {
		return apperrors.AccessDenied("not an active member of this group")
	}

	scope := GroupScope(groupID)
	if already := s.hub.Subscribe(scope, sess); already {
		return nil
	}

	s.broadcast(ctx, scope, &Envelope{
		Type:      EventUserJoined,
		UserID:    &sess.UserID,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// SubscribeUser attaches the session to its owner's notification channel.
func (s *Service) SubscribeUser(sess *Session) {
	s.hub.Subscribe(UserScope(sess.UserID), sess)
}

// Unsubscribe deregisters the session from a group scope and announces the
// departure. Safe to call for scopes the session never joined.
func (s *Service) Unsubscribe(ctx context.Context, sess *Session, groupID uuid.UUID) {
	scope := GroupScope(groupID)
	if !s.hub.IsSubscribed(scope, sess) {
		return
	}
	s.hub.Unsubscribe(scope, sess)
	s.typing.Stop(scope, sess.UserID)

	s.broadcast(ctx, scope, &Envelope{
		Type:      EventUserLeft,
		UserID:    &sess.UserID,
		CreatedAt: time.Now().UTC(),
	})
}

// DropSession runs on connection loss: it removes the session from every
// scope, cancels its typing indicators and emits the user_left events.
func (s *Service) DropSession(ctx context.Context, sess *Session) {
	s.typing.StopAll(sess.UserID)
	for _, scope := range s.hub.DropSession(sess) {
		if scope == UserScope(sess.UserID) {
			continue
		}
		s.broadcast(ctx, scope, &Envelope{
			Type:      EventUserLeft,
			UserID:    &sess.UserID,
			CreatedAt: time.Now().UTC(),
		})
	}
	sess.Close()
}

// SendMessage persists a chat message and fans it out to the group scope.
// The durable write happens before any broadcast; if it fails nothing is
// sent and the caller sees a persistence error.
func (s *Service) SendMessage(ctx context.Context, groupID, senderID uuid.UUID, body string, replyTo *uuid.UUID) (*models.ChatMessage, error) {
	if body == "" {
		return nil, apperrors.Invalid("message body cannot be empty")
	}
	if !s.gate.IsActiveMember(ctx, senderID, groupID) {
		return nil, apperrors.AccessDenied("not an active member of this group")
	}

	msg := &models.ChatMessage{
		GroupID:   groupID,
		SenderID:  senderID,
		Body:      body,
		Status:    models.MessageDelivered,
		State:     models.MessageStateActive,
		ReplyToID: replyTo,
	}
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, apperrors.Persistence("failed to save chat message", err)
	}

	s.broadcast(ctx, GroupScope(groupID), &Envelope{
		Type:      EventChatMessage,
		MessageID: &msg.ID,
		Message:   msg.Body,
		SenderID:  &msg.SenderID,
		ReplyToID: msg.ReplyToID,
		CreatedAt: msg.CreatedAt,
	})
	return msg, nil
}

// MarkRead records a read receipt. Duplicate calls are no-ops: only the call
// that creates the receipt publishes the read-state event.
func (s *Service) MarkRead(ctx context.Context, messageID, userID uuid.UUID) error {
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return apperrors.NotFound("message not found")
	}
	if !s.gate.IsActiveMember(ctx, userID, msg.GroupID) {
		return apperrors.AccessDenied("not an active member of this group")
	}

	created, err := s.store.SaveReadReceipt(ctx, messageID, userID)
	if err != nil {
		return apperrors.Persistence("failed to save read receipt", err)
	}
	if !created {
		return nil
	}

	s.broadcast(ctx, GroupScope(msg.GroupID), &Envelope{
		Type:      EventReadReceipt,
		MessageID: &messageID,
		UserID:    &userID,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// Notify persists a notification and pushes it to the recipient's channel.
// When the notification originates from a group, the recipient must hold a
// membership there at creation time; anything else is a leak.
func (s *Service) Notify(ctx context.Context, n *models.Notification) error {
	if n.GroupID != nil && !s.gate.IsActiveMember(ctx, n.RecipientID, *n.GroupID) {
		return apperrors.AccessDenied("recipient is not a member of the originating group")
	}
	if err := s.store.SaveNotification(ctx, n); err != nil {
		return apperrors.Persistence("failed to save notification", err)
	}

	s.broadcast(ctx, UserScope(n.RecipientID), &Envelope{
		Type:             EventNotification,
		NotificationID:   &n.ID,
		NotificationType: n.Kind,
		Title:            n.Title,
		Message:          n.Body,
		SenderID:         n.ActorID,
		CreatedAt:        n.CreatedAt,
	})
	return nil
}

// Typing forwards an ephemeral typing indicator. It is only relayed for
// sessions currently subscribed to the scope and expires on its own when no
// renewal arrives within the TTL.
func (s *Service) Typing(ctx context.Context, sess *Session, groupID uuid.UUID, isTyping bool) {
	scope := GroupScope(groupID)
	if !s.hub.IsSubscribed(scope, sess) {
		return
	}

	if isTyping {
		s.typing.Touch(scope, sess.UserID)
	} else if !s.typing.Stop(scope, sess.UserID) {
		return
	}

	s.broadcast(ctx, scope, &Envelope{
		Type:      EventTyping,
		UserID:    &sess.UserID,
		IsTyping:  &isTyping,
		CreatedAt: time.Now().UTC(),
	})
}

func (s *Service) typingExpired(scope string, userID uuid.UUID) {
	stopped := false
	s.broadcast(context.Background(), scope, &Envelope{
		Type:      EventTyping,
		UserID:    &userID,
		IsTyping:  &stopped,
		CreatedAt: time.Now().UTC(),
	})
}

// broadcast pushes the envelope through the broker. Failures here never
// surface to the caller: the durable record already exists, so a client
// that misses the frame catches up on its next poll or reconnect.
func (s *Service) broadcast(ctx context.Context, scope string, env *Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		log.Printf("Failed to marshal %s event for %s: %v", env.Type, scope, err)
		return
	}
	if err := s.broker.Publish(ctx, scope, payload); err != nil {
		log.Printf("Delivery warning: broadcast of %s to %s failed: %v", env.Type, scope, err)
	}
}
