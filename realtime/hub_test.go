package realtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestHubSubscribeAndUnsubscribe(t *testing.T) {
	hub := NewHub()
	sess := NewSession(uuid.New())

	already := hub.Subscribe("group:1", sess)
	assert.False(t, already)
	assert.Equal(t, 1, hub.Subscribers("group:1"))

	already = hub.Subscribe("group:1", sess)
	assert.True(t, already)
	assert.Equal(t, 1, hub.Subscribers("group:1"))

	hub.Unsubscribe("group:1", sess)
	assert.Equal(t, 0, hub.Subscribers("group:1"))
	assert.False(t, hub.IsSubscribed("group:1", sess))
}

func TestHubDropSessionReturnsScopes(t *testing.T) {
	hub := NewHub()
	sess := NewSession(uuid.New())
	other := NewSession(uuid.New())

	hub.Subscribe("group:1", sess)
	hub.Subscribe("group:2", sess)
	hub.Subscribe("group:1", other)

	scopes := hub.DropSession(sess)
	assert.ElementsMatch(t, []string{"group:1", "group:2"}, scopes)
	assert.Equal(t, 1, hub.Subscribers("group:1"))
	assert.Equal(t, 0, hub.Subscribers("group:2"))
}

func TestHubBroadcastSkipsClosedSessions(t *testing.T) {
	hub := NewHub()
	open := NewSession(uuid.New())
	closed := NewSession(uuid.New())
	closed.Close()

	hub.Subscribe("group:1", open)
	hub.Subscribe("group:1", closed)

	n := hub.Broadcast("group:1", []byte(`{"type":"chat_message"}`))
	assert.Equal(t, 1, n)
}

func TestSessionBackpressureClosesSlowClient(t *testing.T) {
	sess := NewSession(uuid.New())

	for i := 0; i < sendBufferSize; i++ {
		assert.NoError(t, sess.Deliver([]byte("x")))
	}
	err := sess.Deliver([]byte("overflow"))
	assert.Error(t, err)
	assert.True(t, sess.Closed())
}
