package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// Session is a single observer connection. Writes flow through a buffered
// queue drained by writeLoop so Broadcast never blocks on the network.
type Session struct {
	conn      *websocket.Conn
	outbound  chan []byte
	closeOnce sync.Once
	done      chan struct{}
}

func newSession(conn *websocket.Conn) *Session {
	return &Session{
		conn:     conn,
		outbound: make(chan []byte, sessionBuffer),
		done:     make(chan struct{}),
	}
}

// enqueue queues a frame for delivery. It reports false when the session
// buffer is full, which marks the observer as stalled.
func (s *Session) enqueue(data []byte) bool {
	select {
	case <-s.done:
		return true
	default:
	}
	select {
	case s.outbound <- data:
		return true
	default:
		return false
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case data := <-s.outbound:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.close()
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		}
	}
}

// readLoop drains inbound frames so control messages are processed and a
// closed peer is noticed promptly. Observers never send payloads we act on.
func (s *Session) readLoop() {
	defer s.close()
	s.conn.SetReadLimit(512)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
