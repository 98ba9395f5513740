package realtime

import (
	"sync"
)

// Hub is the per-process subscriber registry, one arena keyed by scope.
// Cross-process coordination happens through the broker, never through a
// shared in-process list.
type Hub struct {
	mu     sync.RWMutex
	scopes map[string]map[*Session]struct{}
}

func NewHub() *Hub {
	return &Hub{scopes: make(map[string]map[*Session]struct{})}
}

// Subscribe registers the session for a scope. It reports whether the
// session was already subscribed, making repeat calls no-ops.
func (h *Hub) Subscribe(scope string, s *Session) (already bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.scopes[scope]
	if !ok {
		set = make(map[*Session]struct{})
		h.scopes[scope] = set
	}
	if _, ok := set[s]; ok {
		return true
	}
	set[s] = struct{}{}
	return false
}

func (h *Hub) Unsubscribe(scope string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(scope, s)
}

// DropSession removes the session from every scope and returns the scopes
// it was subscribed to, so the caller can emit the corresponding user_left
// events deterministically.
func (h *Hub) DropSession(s *Session) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var dropped []string
	for scope, set := range h.scopes {
		if _, ok := set[s]; ok {
			dropped = append(dropped, scope)
			h.removeLocked(scope, s)
		}
	}
	return dropped
}

func (h *Hub) removeLocked(scope string, s *Session) {
	set, ok := h.scopes[scope]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.scopes, scope)
	}
}

// Broadcast delivers a frame to every local subscriber of the scope and
// returns the number of sessions reached. With a single writer per scope,
// every subscriber observes frames in the same relative order.
func (h *Hub) Broadcast(scope string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for sess := range h.scopes[scope] {
		if err := sess.Deliver(payload); err == nil {
			n++
		}
	}
	return n
}

func (h *Hub) Subscribers(scope string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.scopes[scope])
}

func (h *Hub) IsSubscribed(scope string, s *Session) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.scopes[scope][s]
	return ok
}
