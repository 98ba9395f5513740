package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sooryaah/imat-lms/apperrors"
	"github.com/sooryaah/imat-lms/models"
	"github.com/sooryaah/imat-lms/realtime"
)

type stubStore struct {
	messages map[uuid.UUID]*models.ChatMessage
}

func newStubStore() *stubStore {
	return &stubStore{messages: make(map[uuid.UUID]*models.ChatMessage)}
}

func (s *stubStore) SaveMessage(_ context.Context, msg *models.ChatMessage) error {
	msg.ID = uuid.New()
	s.messages[msg.ID] = msg
	return nil
}

func (s *stubStore) GetMessage(_ context.Context, id uuid.UUID) (*models.ChatMessage, error) {
	msg, ok := s.messages[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return msg, nil
}

func (s *stubStore) SaveReadReceipt(_ context.Context, messageID, _ uuid.UUID) (bool, error) {
	if msg, ok := s.messages[messageID]; ok {
		msg.Status = models.MessageRead
	}
	return true, nil
}

func (s *stubStore) SaveNotification(_ context.Context, n *models.Notification) error {
	n.ID = uuid.New()
	return nil
}

type allowGate struct {
	members map[uuid.UUID]bool
}

func (g *allowGate) IsActiveMember(_ context.Context, userID, _ uuid.UUID) bool {
	return g.members[userID]
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

func nextErrorFrame(t *testing.T, sess *realtime.Session) errorFrame {
	t.Helper()
	select {
	case payload := <-sess.Outbox():
		var frame errorFrame
		require.NoError(t, json.Unmarshal(payload, &frame))
		return frame
	case <-time.After(50 * time.Millisecond):
		t.Fatal("expected an error frame on the session outbox")
		return errorFrame{}
	}
}

func TestClientFrameErrorsCarryCode(t *testing.T) {
	member := uuid.New()
	outsider := uuid.New()
	groupID := uuid.New()

	hub := realtime.NewHub()
	gate := &allowGate{members: map[uuid.UUID]bool{member: true}}
	RT = realtime.NewService(newStubStore(), realtime.NewMemoryBroker(hub), hub, gate)
	Producer = nil
	t.Cleanup(func() { RT = nil })

	t.Run("denied send reports access denied", func(t *testing.T) {
		sess := realtime.NewSession(outsider)
		handleClientFrame(context.Background(), sess, &clientFrame{
			Type:    "chat_message",
			GroupID: groupID.String(),
			Body:    "hi",
		})

		frame := nextErrorFrame(t, sess)
		assert.Equal(t, "error", frame.Type)
		assert.Equal(t, string(apperrors.CodeAccessDenied), frame.Code)
	})

	t.Run("empty body reports invalid", func(t *testing.T) {
		sess := realtime.NewSession(member)
		handleClientFrame(context.Background(), sess, &clientFrame{
			Type:    "chat_message",
			GroupID: groupID.String(),
		})

		frame := nextErrorFrame(t, sess)
		assert.Equal(t, string(apperrors.CodeInvalid), frame.Code)
	})

	t.Run("missing message reports not found", func(t *testing.T) {
		sess := realtime.NewSession(member)
		handleClientFrame(context.Background(), sess, &clientFrame{
			Type:      "read_receipt",
			MessageID: uuid.New().String(),
		})

		frame := nextErrorFrame(t, sess)
		assert.Equal(t, string(apperrors.CodeNotFound), frame.Code)
	})

	t.Run("unknown frame type reports invalid", func(t *testing.T) {
		sess := realtime.NewSession(member)
		handleClientFrame(context.Background(), sess, &clientFrame{Type: "presence"})

		frame := nextErrorFrame(t, sess)
		assert.Equal(t, string(apperrors.CodeInvalid), frame.Code)
	})
}

func TestHeartbeatWindows(t *testing.T) {
	pongWait, pingPeriod := heartbeatWindows()
	assert.Equal(t, 60*time.Second, pongWait)
	assert.Equal(t, 54*time.Second, pingPeriod)

	t.Setenv("WS_HEARTBEAT_SECONDS", "20")
	pongWait, pingPeriod = heartbeatWindows()
	assert.Equal(t, 20*time.Second, pongWait)
	assert.Equal(t, 18*time.Second, pingPeriod)
	assert.Less(t, pingPeriod, pongWait, "pings must arrive inside the idle window")
}
