package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/sooryaah/imat-lms/apperrors"
	configs "github.com/sooryaah/imat-lms/configs"
	"github.com/sooryaah/imat-lms/database"
	"github.com/sooryaah/imat-lms/middleware"
	"github.com/sooryaah/imat-lms/models"
	"github.com/sooryaah/imat-lms/realtime"
)

const writeWait = 10 * time.Second

// heartbeatWindows returns the idle window after which a silent connection
// counts as disconnected, and the ping interval that keeps a healthy one
// inside it.
func heartbeatWindows() (pongWait, pingPeriod time.Duration) {
	pongWait = time.Duration(configs.ConfigInt("WS_HEARTBEAT_SECONDS", 60)) * time.Second
	pingPeriod = pongWait * 9 / 10
	return pongWait, pingPeriod
}

// GetGroupMessages is the chat history endpoint. Clients call it after a
// reconnect to resync anything the live stream missed.
func GetGroupMessages(c *fiber.Ctx) error {
	group, err := loadGroup(c)
	if group == nil {
		return err
	}
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	if _, ok := membership(userID, group.ID); !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not a member of this group"})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	var messages []models.ChatMessage
	query := database.DB.Preload("Sender").
		Where("group_id = ? AND state = ?", group.ID, models.MessageStateActive)
	if before := c.Query("before"); before != "" {
		if ts, err := time.Parse(time.RFC3339, before); err == nil {
			query = query.Where("created_at < ?", ts)
		}
	}
	if err := query.Order("created_at DESC").Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&messages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch messages"})
	}

	type messageResponse struct {
		models.ChatMessage
		SenderName string `json:"sender_name"`
	}
	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageResponse{ChatMessage: m, SenderName: m.Sender.FullName})
	}

	return c.JSON(fiber.Map{"messages": out, "page": page, "page_size": pageSize})
}

type EditMessageRequest struct {
	Body string `json:"body" validate:"required"`
}

// EditMessage updates the sender's own message body and flags the edit.
func EditMessage(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	messageID, err := uuid.Parse(c.Params("messageId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message ID"})
	}

	var msg models.ChatMessage
	if err := database.DB.Where("id = ? AND state = ?", messageID, models.MessageStateActive).First(&msg).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Message not found"})
	}
	if msg.SenderID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only edit your own messages"})
	}

	var req EditMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	now := time.Now()
	updates := map[string]interface{}{"body": req.Body, "is_edited": true, "edited_at": now}
	if err := database.DB.Model(&msg).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update message"})
	}

	return c.JSON(msg)
}

// DeleteMessage tombstones a chat message. Senders delete their own;
// moderators delete anything in their group.
func DeleteMessage(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	messageID, err := uuid.Parse(c.Params("messageId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message ID"})
	}

	var msg models.ChatMessage
	if err := database.DB.Where("id = ? AND state = ?", messageID, models.MessageStateActive).First(&msg).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Message not found"})
	}

	if msg.SenderID != userID {
		member, ok := membership(userID, msg.GroupID)
		if !ok || !realtime.CanPerform(member.Role, realtime.ActionDeleteAny) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You cannot delete this message"})
		}
	}

	now := time.Now()
	updates := map[string]interface{}{"state": models.MessageStateDeleted, "deleted_at": now}
	if err := database.DB.Model(&msg).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete message"})
	}

	return c.JSON(fiber.Map{"message": "Message deleted"})
}

// MarkMessageRead is the REST fallback for read receipts, for clients
// without a live socket. Same semantics as the socket frame: the receipt
// is recorded once and only its creation publishes a read event.
func MarkMessageRead(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	messageID, err := uuid.Parse(c.Params("messageId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message ID"})
	}

	if err := RT.MarkRead(c.Context(), messageID, userID); err != nil {
		return c.Status(apperrors.HTTPStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Message marked as read"})
}

// clientFrame is what a connected client may send over the socket after the
// auth handshake.
type clientFrame struct {
	Type      string  `json:"type"`
	GroupID   string  `json:"group_id,omitempty"`
	Body      string  `json:"body,omitempty"`
	ReplyToID *string `json:"reply_to_id,omitempty"`
	MessageID string  `json:"message_id,omitempty"`
	IsTyping  bool    `json:"is_typing,omitempty"`
}

// ServeWs is the live messaging endpoint. The first frame must be
// {"type":"auth","token":...}; after that the client subscribes to group
// scopes and exchanges chat, typing and read-receipt frames. All outbound
// traffic flows through the session outbox so the write loop is the only
// goroutine touching the connection for writes.
func ServeWs(c *websocketcontrib.Conn) {
	defer c.Close()

	type authMessage struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	}
	var authMsg authMessage
	_ = c.SetReadDeadline(time.Now().Add(10 * time.Second))
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		return
	}

	claims, err := parseToken(authMsg.Token)
	if err != nil {
		log.Printf("WebSocket auth failed: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		return
	}
	userIDStr, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		_ = c.WriteJSON(fiber.Map{"error": "Invalid user ID"})
		return
	}

	sess := realtime.NewSession(userID)
	ctx := context.Background()

	// The per-user channel rides on the same connection so notifications
	// arrive without a second socket.
	RT.SubscribeUser(sess)
	defer RT.DropSession(ctx, sess)

	pongWait, pingPeriod := heartbeatWindows()
	go writePump(c, sess, pingPeriod)

	_ = c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame clientFrame
		if err := c.ReadJSON(&frame); err != nil {
			if !websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure) {
				log.Printf("WebSocket read error for %s: %v", userID, err)
			}
			return
		}
		if sess.Closed() {
			return
		}
		handleClientFrame(ctx, sess, &frame)
	}
}

func handleClientFrame(ctx context.Context, sess *realtime.Session, frame *clientFrame) {
	switch frame.Type {
	case "subscribe":
		groupID, err := uuid.Parse(frame.GroupID)
		if err != nil {
			deliverError(sess, apperrors.CodeInvalid, "Invalid group ID")
			return
		}
		if err := RT.Subscribe(ctx, sess, groupID); err != nil {
			deliverError(sess, apperrors.CodeOf(err), err.Error())
		}

	case "unsubscribe":
		groupID, err := uuid.Parse(frame.GroupID)
		if err != nil {
			return
		}
		RT.Unsubscribe(ctx, sess, groupID)

	case "chat_message":
		groupID, err := uuid.Parse(frame.GroupID)
		if err != nil {
			deliverError(sess, apperrors.CodeInvalid, "Invalid group ID")
			return
		}
		var replyTo *uuid.UUID
		if frame.ReplyToID != nil {
			if id, err := uuid.Parse(*frame.ReplyToID); err == nil {
				replyTo = &id
			}
		}
		msg, err := RT.SendMessage(ctx, groupID, sess.UserID, frame.Body, replyTo)
		if err != nil {
			deliverError(sess, apperrors.CodeOf(err), err.Error())
			return
		}
		if Producer != nil {
			go notifyGroupMessage(msg)
		}

	case "typing_indicator":
		groupID, err := uuid.Parse(frame.GroupID)
		if err != nil {
			return
		}
		RT.Typing(ctx, sess, groupID, frame.IsTyping)

	case "read_receipt":
		messageID, err := uuid.Parse(frame.MessageID)
		if err != nil {
			deliverError(sess, apperrors.CodeInvalid, "Invalid message ID")
			return
		}
		if err := RT.MarkRead(ctx, messageID, sess.UserID); err != nil {
			deliverError(sess, apperrors.CodeOf(err), err.Error())
		}

	default:
		deliverError(sess, apperrors.CodeInvalid, "Unknown frame type: "+frame.Type)
	}
}

func notifyGroupMessage(msg *models.ChatMessage) {
	var sender models.User
	var group models.CommunityGroup
	if err := database.DB.Select("full_name").Where("id = ?", msg.SenderID).First(&sender).Error; err != nil {
		return
	}
	if err := database.DB.Select("title").Where("id = ?", msg.GroupID).First(&group).Error; err != nil {
		return
	}
	Producer.NotifyGroupMessage(context.Background(), msg, sender.FullName, group.Title)
}

// writePump drains the session outbox onto the wire and keeps the
// connection alive with pings.
func writePump(c *websocketcontrib.Conn, sess *realtime.Session, pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload := <-sess.Outbox():
			_ = c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(websocketcontrib.TextMessage, payload); err != nil {
				sess.Close()
				return
			}
		case <-ticker.C:
			_ = c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(websocketcontrib.PingMessage, nil); err != nil {
				sess.Close()
				return
			}
		case <-sess.Done():
			_ = c.WriteMessage(websocketcontrib.CloseMessage, nil)
			return
		}
	}
}

// deliverError pushes an error frame carrying the error code, so socket
// clients see the same taxonomy the REST boundary maps onto statuses.
func deliverError(sess *realtime.Session, code apperrors.Code, message string) {
	payload, err := json.Marshal(fiber.Map{"type": "error", "code": code, "error": message})
	if err != nil {
		return
	}
	_ = sess.Deliver(payload)
}

func parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(configs.Config("JWT_SECRET")), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
