package realtime

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

const sendBufferSize = 128

var errSessionClosed = errors.New("session closed")

// Session represents one live connection. Outbound frames go through a
// buffered channel so a slow client never blocks the broadcaster; a client
// that cannot keep up is closed and resyncs from the durable store on
// reconnect.
type Session struct {
	ID     uuid.UUID
	UserID uuid.UUID

	send chan []byte
	done chan struct{}
	once sync.Once
}

func NewSession(userID uuid.UUID) *Session {
	return &Session{
		ID:     uuid.New(),
		UserID: userID,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// Deliver enqueues a frame for the write loop. Frames already queued when a
// membership is revoked still flush; the gate only blocks new events.
func (s *Session) Deliver(payload []byte) error {
	select {
	case <-s.done:
		return errSessionClosed
	default:
	}
	select {
	case s.send <- payload:
		return nil
	default:
		s.Close()
		return errors.New("session send buffer full")
	}
}

// Outbox is drained by the connection's write loop.
func (s *Session) Outbox() <-chan []byte { return s.send }

func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
