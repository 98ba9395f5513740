package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTypingTrackerRenewalPushesExpiry(t *testing.T) {
	var mu sync.Mutex
	var expiries int
	tr := newTypingTracker(50*time.Millisecond, func(string, uuid.UUID) {
		mu.Lock()
		expiries++
		mu.Unlock()
	})

	user := uuid.New()
	assert.True(t, tr.Touch("group:1", user))

	// Keep renewing past the original deadline.
	time.Sleep(30 * time.Millisecond)
	assert.False(t, tr.Touch("group:1", user))
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	assert.Equal(t, 0, expiries, "renewal must postpone expiry")
	mu.Unlock()

	time.Sleep(80 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, expiries)
	mu.Unlock()
}

func TestTypingTrackerStopCancelsTimer(t *testing.T) {
	fired := make(chan struct{}, 1)
	tr := newTypingTracker(30*time.Millisecond, func(string, uuid.UUID) {
		fired <- struct{}{}
	})

	user := uuid.New()
	tr.Touch("group:1", user)
	assert.True(t, tr.Stop("group:1", user))
	assert.False(t, tr.Stop("group:1", user))

	select {
	case <-fired:
		t.Fatal("stopped indicator must not expire")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestTypingTrackerStopAll(t *testing.T) {
	tr := newTypingTracker(time.Second, func(string, uuid.UUID) {})

	user := uuid.New()
	tr.Touch("group:1", user)
	tr.Touch("group:2", user)
	tr.Touch("group:3", uuid.New())

	scopes := tr.StopAll(user)
	assert.ElementsMatch(t, []string{"group:1", "group:2"}, scopes)
	assert.Len(t, tr.StopAll(user), 0)
}
