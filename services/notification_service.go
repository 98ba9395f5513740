package services

import (
	"context"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sooryaah/imat-lms/models"
	"github.com/sooryaah/imat-lms/queue"
	"github.com/sooryaah/imat-lms/realtime"
	"gorm.io/gorm"
)

// NotificationProducer turns domain events into durable notifications and
// hands them to the fan-out service. Recipients are always resolved from the
// current membership rows, so a notification never reaches a non-member.
type NotificationProducer struct {
	db *gorm.DB
	rt *realtime.Service
}

func NewNotificationProducer(db *gorm.DB, rt *realtime.Service) *NotificationProducer {
	return &NotificationProducer{db: db, rt: rt}
}

// NotifyGroupMessage fans a new chat message out to every active member of
// the group except the sender.
func (p *NotificationProducer) NotifyGroupMessage(ctx context.Context, msg *models.ChatMessage, senderName, groupTitle string) {
	var members []models.GroupMember
	err := p.db.WithContext(ctx).
		Where("group_id = ? AND is_active = ? AND user_id <> ?", msg.GroupID, true, msg.SenderID).
		Find(&members).Error
	if err != nil {
		log.Printf("Failed to load members for message notification: %v", err)
		return
	}

	for _, member := range members {
		n := &models.Notification{
			RecipientID: member.UserID,
			ActorID:     &msg.SenderID,
			Kind:        models.NotifyNewMessage,
			GroupID:     &msg.GroupID,
			Title:       fmt.Sprintf("New message in %s", groupTitle),
			Body:        fmt.Sprintf("%s: %s", senderName, truncate(msg.Body, 140)),
		}
		p.deliver(ctx, n, member.EmailNotifications)
	}
}

// NotifyNewReply tells a post's author about a reply to their thread.
func (p *NotificationProducer) NotifyNewReply(ctx context.Context, parent *models.DiscussionPost, reply *models.DiscussionPost, actorName string) {
	if parent.AuthorID == reply.AuthorID {
		return
	}
	n := &models.Notification{
		RecipientID: parent.AuthorID,
		ActorID:     &reply.AuthorID,
		Kind:        models.NotifyNewReply,
		GroupID:     &parent.GroupID,
		Title:       fmt.Sprintf("%s replied to your post", actorName),
		Body:        truncate(reply.Content, 140),
	}
	p.deliver(ctx, n, p.wantsEmail(ctx, parent.AuthorID, parent.GroupID))
}

// NotifyModeration reports an approve/reject outcome to the post author.
func (p *NotificationProducer) NotifyModeration(ctx context.Context, post *models.DiscussionPost, approved bool, moderatorID uuid.UUID) {
	kind := models.NotifyPostRejected
	title := "Your post was rejected"
	if approved {
		kind = models.NotifyPostApproved
		title = "Your post was approved"
	}
	n := &models.Notification{
		RecipientID: post.AuthorID,
		ActorID:     &moderatorID,
		Kind:        kind,
		GroupID:     &post.GroupID,
		Title:       title,
		Body:        post.Title,
	}
	p.deliver(ctx, n, p.wantsEmail(ctx, post.AuthorID, post.GroupID))
}

// NotifyEnrollment confirms a successful enrollment. Runs after the
// membership row exists, so the group-scoped notification passes the gate.
func (p *NotificationProducer) NotifyEnrollment(ctx context.Context, userID, groupID uuid.UUID, courseTitle string) {
	n := &models.Notification{
		RecipientID: userID,
		Kind:        models.NotifyNewCourse,
		GroupID:     &groupID,
		Title:       "Enrollment confirmed",
		Body:        fmt.Sprintf("You now have access to %s and its community.", courseTitle),
	}
	p.deliver(ctx, n, p.wantsEmail(ctx, userID, groupID))
}

// NotifyModeratorAction reports a moderator action that targets a member
// directly, like a removal. The notification carries no group reference:
// by the time it is delivered the recipient may no longer be a member, and
// the fan-out core refuses group-scoped notifications to non-members.
func (p *NotificationProducer) NotifyModeratorAction(ctx context.Context, recipientID, actorID uuid.UUID, title, body string) {
	n := &models.Notification{
		RecipientID: recipientID,
		ActorID:     &actorID,
		Kind:        models.NotifyModeratorAction,
		Title:       title,
		Body:        body,
	}
	p.deliver(ctx, n, false)
}

func (p *NotificationProducer) deliver(ctx context.Context, n *models.Notification, email bool) {
	if err := p.rt.Notify(ctx, n); err != nil {
		log.Printf("Skipping notification for %s: %v", n.RecipientID, err)
		return
	}
	if email {
		queue.EnqueueNotificationEmail(ctx, n.ID)
	}
}

func (p *NotificationProducer) wantsEmail(ctx context.Context, userID, groupID uuid.UUID) bool {
	var member models.GroupMember
	err := p.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error
	if err != nil {
		return false
	}
	return member.EmailNotifications
}

// truncate cuts on a rune boundary so a multi-byte character is never
// split mid-sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
