package ws

import (
	"context"
	"encoding/json"
	"sync"

	"duskfall/server/internal/telemetry"
	"duskfall/server/logging"
)

// sessionBuffer bounds the per-observer send queue; a slow observer is
// disconnected rather than allowed to stall the router.
const sessionBuffer = 64

// Hub fans logging events out to connected observers.
type Hub struct {
	mu       sync.Mutex
	sessions map[*Session]struct{}
	logger   telemetry.Logger
}

func NewHub(logger telemetry.Logger) *Hub {
	return &Hub{
		sessions: make(map[*Session]struct{}),
		logger:   logger,
	}
}

func (h *Hub) attach(session *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[session] = struct{}{}
}

func (h *Hub) detach(session *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, session)
}

// Broadcast encodes the event once and enqueues it to every observer.
func (h *Hub) Broadcast(event logging.Event) {
	if h == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("ws: encode event: %v", err)
		}
		return
	}

	h.mu.Lock()
	var stalled []*Session
	for session := range h.sessions {
		if !session.enqueue(data) {
			stalled = append(stalled, session)
		}
	}
	for _, session := range stalled {
		delete(h.sessions, session)
	}
	h.mu.Unlock()

	for _, session := range stalled {
		session.close()
		if h.logger != nil {
			h.logger.Printf("ws: dropped slow observer")
		}
	}
}

// ObserverCount reports the number of connected observers.
func (h *Hub) ObserverCount() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Sink adapts the hub into a logging sink so the router feeds observers
// directly.
type Sink struct {
	hub *Hub
}

func NewSink(hub *Hub) *Sink {
	return &Sink{hub: hub}
}

func (s *Sink) Write(event logging.Event) error {
	if s == nil || s.hub == nil {
		return nil
	}
	s.hub.Broadcast(event)
	return nil
}

func (s *Sink) Close(context.Context) error {
	return nil
}
