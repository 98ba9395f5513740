package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sooryaah/imat-lms/apperrors"
	"github.com/sooryaah/imat-lms/models"
)

type memStore struct {
	mu            sync.Mutex
	messages      map[uuid.UUID]*models.ChatMessage
	receipts      map[string]struct{}
	notifications []*models.Notification
	failWrites    bool
}

func newMemStore() *memStore {
	return &memStore{
		messages: make(map[uuid.UUID]*models.ChatMessage),
		receipts: make(map[string]struct{}),
	}
}

func (s *memStore) SaveMessage(_ context.Context, msg *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errors.New("store unavailable")
	}
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now().UTC()
	s.messages[msg.ID] = msg
	return nil
}

func (s *memStore) GetMessage(_ context.Context, id uuid.UUID) (*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return msg, nil
}

func (s *memStore) SaveReadReceipt(_ context.Context, messageID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return false, errors.New("store unavailable")
	}
	key := messageID.String() + "|" + userID.String()
	if _, ok := s.receipts[key]; ok {
		return false, nil
	}
	s.receipts[key] = struct{}{}
	if msg, ok := s.messages[messageID]; ok {
		msg.Status = models.MessageRead
	}
	return true, nil
}

func (s *memStore) SaveNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errors.New("store unavailable")
	}
	n.ID = uuid.New()
	n.CreatedAt = time.Now().UTC()
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *memStore) receiptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.receipts)
}

// staticGate grants access to a fixed member set. The zero value denies
// everyone, which also stands in for an unreachable collaborator.
type staticGate struct {
	members map[uuid.UUID]bool
}

func (g *staticGate) IsActiveMember(_ context.Context, userID, _ uuid.UUID) bool {
	return g.members[userID]
}

type failingBroker struct{}

func (failingBroker) Publish(context.Context, string, []byte) error {
	return errors.New("broker down")
}

func (failingBroker) Close() error { return nil }

func newTestService(members ...uuid.UUID) (*Service, *memStore) {
	store := newMemStore()
	hub := NewHub()
	gate := &staticGate{members: make(map[uuid.UUID]bool)}
	for _, m := range members {
		gate.members[m] = true
	}
	return NewService(store, NewMemoryBroker(hub), hub, gate), store
}

func drainEnvelopes(t *testing.T, sess *Session) []Envelope {
	t.Helper()
	var out []Envelope
	for {
		select {
		case payload := <-sess.Outbox():
			var env Envelope
			require.NoError(t, json.Unmarshal(payload, &env))
			out = append(out, env)
		case <-time.After(50 * time.Millisecond):
			return out
		}
	}
}

func filterByType(envs []Envelope, et EventType) []Envelope {
	var out []Envelope
	for _, e := range envs {
		if e.Type == et {
			out = append(out, e)
		}
	}
	return out
}

func TestSubscribeDeniedForNonMember(t *testing.T) {
	member := uuid.New()
	outsider := uuid.New()
	groupID := uuid.New()
	svc, _ := newTestService(member)

	sess := NewSession(outsider)
	err := svc.Subscribe(context.Background(), sess, groupID)

	require.Error(t, err)
	assert.True(t, apperrors.IsAccessDenied(err))
	assert.Equal(t, 0, svc.Hub().Subscribers(GroupScope(groupID)))
}

func TestSubscribeIdempotentPerSessionAndScope(t *testing.T) {
	watcher := uuid.New()
	member := uuid.New()
	groupID := uuid.New()
	svc, _ := newTestService(watcher, member)

	observer := NewSession(watcher)
	require.NoError(t, svc.Subscribe(context.Background(), observer, groupID))
	drainEnvelopes(t, observer) // the observer's own join frame

	sess := NewSession(member)
	require.NoError(t, svc.Subscribe(context.Background(), sess, groupID))
	require.NoError(t, svc.Subscribe(context.Background(), sess, groupID))
	require.NoError(t, svc.Subscribe(context.Background(), sess, groupID))

	assert.Equal(t, 2, svc.Hub().Subscribers(GroupScope(groupID)))
	joined := filterByType(drainEnvelopes(t, observer), EventUserJoined)
	require.Len(t, joined, 1, "repeat subscribes must not re-announce the session")
	assert.Equal(t, member, *joined[0].UserID)
}

func TestMarkReadTwiceCreatesOneReceipt(t *testing.T) {
	sender := uuid.New()
	reader := uuid.New()
	groupID := uuid.New()
	svc, store := newTestService(sender, reader)

	observer := NewSession(sender)
	require.NoError(t, svc.Subscribe(context.Background(), observer, groupID))

	msg, err := svc.SendMessage(context.Background(), groupID, sender, "Hello", nil)
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(context.Background(), msg.ID, reader))
	require.NoError(t, svc.MarkRead(context.Background(), msg.ID, reader))

	assert.Equal(t, 1, store.receiptCount())
	reads := filterByType(drainEnvelopes(t, observer), EventReadReceipt)
	assert.Len(t, reads, 1, "duplicate mark_read must not publish a second event")
}

func TestMarkReadTransitionsMessageStatus(t *testing.T) {
	sender := uuid.New()
	reader := uuid.New()
	groupID := uuid.New()
	svc, store := newTestService(sender, reader)

	msg, err := svc.SendMessage(context.Background(), groupID, sender, "Hello", nil)
	require.NoError(t, err)
	require.Equal(t, models.MessageDelivered, msg.Status)

	require.NoError(t, svc.MarkRead(context.Background(), msg.ID, reader))

	stored, err := store.GetMessage(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MessageRead, stored.Status, "the first receipt must move the message to read")
}

func TestPublishOrderPreservedPerScope(t *testing.T) {
	sender := uuid.New()
	groupID := uuid.New()
	svc, _ := newTestService(sender)

	var observers []*Session
	for i := 0; i < 3; i++ {
		sess := NewSession(sender)
		require.NoError(t, svc.Subscribe(context.Background(), sess, groupID))
		observers = append(observers, sess)
	}
	for _, sess := range observers {
		drainEnvelopes(t, sess) // clear join chatter
	}

	const n = 20
	for i := 0; i < n; i++ {
		_, err := svc.SendMessage(context.Background(), groupID, sender, fmt.Sprintf("msg-%d", i), nil)
		require.NoError(t, err)
	}

	for _, sess := range observers {
		msgs := filterByType(drainEnvelopes(t, sess), EventChatMessage)
		require.Len(t, msgs, n)
		for i, env := range msgs {
			assert.Equal(t, fmt.Sprintf("msg-%d", i), env.Message)
		}
	}
}

func TestPersistenceErrorEmitsNothing(t *testing.T) {
	sender := uuid.New()
	groupID := uuid.New()
	svc, store := newTestService(sender)

	observer := NewSession(sender)
	require.NoError(t, svc.Subscribe(context.Background(), observer, groupID))
	drainEnvelopes(t, observer)

	store.failWrites = true
	_, err := svc.SendMessage(context.Background(), groupID, sender, "lost", nil)

	require.Error(t, err)
	assert.True(t, apperrors.IsPersistence(err))
	assert.Empty(t, drainEnvelopes(t, observer), "a failed durable write must broadcast nothing")
}

func TestBrokerFailureIsNotSurfaced(t *testing.T) {
	sender := uuid.New()
	groupID := uuid.New()
	store := newMemStore()
	gate := &staticGate{members: map[uuid.UUID]bool{sender: true}}
	svc := NewService(store, failingBroker{}, NewHub(), gate)

	msg, err := svc.SendMessage(context.Background(), groupID, sender, "Hello", nil)

	require.NoError(t, err, "delivery failure after a successful write is a warning, not an error")
	require.NotNil(t, msg)
	_, getErr := store.GetMessage(context.Background(), msg.ID)
	assert.NoError(t, getErr, "the durable record must exist regardless of delivery")
}

func TestReadReceiptScenario(t *testing.T) {
	userA := uuid.New()
	userB := uuid.New()
	groupID := uuid.New()
	svc, store := newTestService(userA, userB)

	sessA := NewSession(userA)
	require.NoError(t, svc.Subscribe(context.Background(), sessA, groupID))

	msg, err := svc.SendMessage(context.Background(), groupID, userA, "Hello", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, store.receiptCount(), "no receipt exists before B reads")

	require.NoError(t, svc.MarkRead(context.Background(), msg.ID, userB))

	envs := drainEnvelopes(t, sessA)
	reads := filterByType(envs, EventReadReceipt)
	require.Len(t, reads, 1)
	assert.Equal(t, msg.ID, *reads[0].MessageID)
	assert.Equal(t, userB, *reads[0].UserID)
}

func TestNonMemberSendDenied(t *testing.T) {
	member := uuid.New()
	outsider := uuid.New()
	groupID := uuid.New()
	svc, _ := newTestService(member)

	observer := NewSession(member)
	require.NoError(t, svc.Subscribe(context.Background(), observer, groupID))
	drainEnvelopes(t, observer)

	_, err := svc.SendMessage(context.Background(), groupID, outsider, "sneaky", nil)

	require.Error(t, err)
	assert.True(t, apperrors.IsAccessDenied(err))
	assert.Empty(t, drainEnvelopes(t, observer))
}

func TestNotificationRequiresMembership(t *testing.T) {
	member := uuid.New()
	outsider := uuid.New()
	groupID := uuid.New()
	svc, store := newTestService(member)

	sess := NewSession(member)
	svc.SubscribeUser(sess)

	err := svc.Notify(context.Background(), &models.Notification{
		RecipientID: outsider,
		Kind:        models.NotifyNewMessage,
		GroupID:     &groupID,
		Title:       "New message",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsAccessDenied(err))
	assert.Empty(t, store.notifications)

	err = svc.Notify(context.Background(), &models.Notification{
		RecipientID: member,
		Kind:        models.NotifyNewMessage,
		GroupID:     &groupID,
		Title:       "New message",
	})
	require.NoError(t, err)

	notes := filterByType(drainEnvelopes(t, sess), EventNotification)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotifyNewMessage, notes[0].NotificationType)
}

func TestDropSessionAnnouncesDeparture(t *testing.T) {
	member := uuid.New()
	other := uuid.New()
	groupID := uuid.New()
	svc, _ := newTestService(member, other)

	observer := NewSession(other)
	require.NoError(t, svc.Subscribe(context.Background(), observer, groupID))

	sess := NewSession(member)
	require.NoError(t, svc.Subscribe(context.Background(), sess, groupID))
	drainEnvelopes(t, observer)

	svc.DropSession(context.Background(), sess)

	left := filterByType(drainEnvelopes(t, observer), EventUserLeft)
	require.Len(t, left, 1)
	assert.Equal(t, member, *left[0].UserID)
	assert.True(t, sess.Closed())
	assert.Equal(t, 1, svc.Hub().Subscribers(GroupScope(groupID)))
}

func TestTypingIndicatorExpires(t *testing.T) {
	member := uuid.New()
	other := uuid.New()
	groupID := uuid.New()
	store := newMemStore()
	hub := NewHub()
	gate := &staticGate{members: map[uuid.UUID]bool{member: true, other: true}}
	svc := NewService(store, NewMemoryBroker(hub), hub, gate, WithTypingTTL(40*time.Millisecond))

	observer := NewSession(other)
	require.NoError(t, svc.Subscribe(context.Background(), observer, groupID))

	sess := NewSession(member)
	require.NoError(t, svc.Subscribe(context.Background(), sess, groupID))
	drainEnvelopes(t, observer)

	svc.Typing(context.Background(), sess, groupID, true)
	time.Sleep(120 * time.Millisecond)

	typing := filterByType(drainEnvelopes(t, observer), EventTyping)
	require.Len(t, typing, 2, "start frame plus automatic expiry frame")
	assert.True(t, *typing[0].IsTyping)
	assert.False(t, *typing[1].IsTyping, "indicator must expire without renewal")
}

func TestTypingIgnoredWhenNotSubscribed(t *testing.T) {
	member := uuid.New()
	groupID := uuid.New()
	svc, _ := newTestService(member)

	observer := NewSession(member)
	require.NoError(t, svc.Subscribe(context.Background(), observer, groupID))
	drainEnvelopes(t, observer)

	stranger := NewSession(uuid.New())
	svc.Typing(context.Background(), stranger, groupID, true)

	assert.Empty(t, filterByType(drainEnvelopes(t, observer), EventTyping))
}
