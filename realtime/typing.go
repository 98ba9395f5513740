package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTypingTTL is how long a typing indicator stays alive without renewal.
const DefaultTypingTTL = 3 * time.Second

type typingKey struct {
	scope  string
	userID uuid.UUID
}

// typingTracker keeps ephemeral per-user typing state with a local timer per
// entry. Nothing here touches the durable store.
type typingTracker struct {
	mu      sync.Mutex
	ttl     time.Duration
	timers  map[typingKey]*time.Timer
	expired func(scope string, userID uuid.UUID)
}

func newTypingTracker(ttl time.Duration, expired func(scope string, userID uuid.UUID)) *typingTracker {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	return &typingTracker{
		ttl:     ttl,
		timers:  make(map[typingKey]*time.Timer),
		expired: expired,
	}
}

// Touch starts or renews the indicator. It reports whether the indicator was
// newly started.
func (t *typingTracker) Touch(scope string, userID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := typingKey{scope: scope, userID: userID}
	if timer, ok := t.timers[key]; ok {
		timer.Reset(t.ttl)
		return false
	}
	t.timers[key] = time.AfterFunc(t.ttl, func() {
		t.mu.Lock()
		delete(t.timers, key)
		t.mu.Unlock()
		t.expired(scope, userID)
	})
	return true
}

// Stop cancels the indicator. It reports whether one was active.
func (t *typingTracker) Stop(scope string, userID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := typingKey{scope: scope, userID: userID}
	timer, ok := t.timers[key]
	if !ok {
		return false
	}
	timer.Stop()
	delete(t.timers, key)
	return true
}

// StopAll cancels every indicator held by the user, used on disconnect.
func (t *typingTracker) StopAll(userID uuid.UUID) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var scopes []string
	for key, timer := range t.timers {
		if key.userID == userID {
			timer.Stop()
			delete(t.timers, key)
			scopes = append(scopes, key.scope)
		}
	}
	return scopes
}
