package comms

import (
	"encoding/json"
	"github.com/CodedInternet/vehicledash/logger"
	"github.com/google/uuid"
	"sync"
)

const SUBSCRIBER_BUFFER = 64

// Subscriber receives encoded messages for one view. Views apply patches in
// order, so a subscriber that falls behind is closed rather than skipped;
// the view reconnects and starts again from a replay.
type Subscriber struct {
	ID   uuid.UUID
	send chan []byte
	done chan struct{}
	once sync.Once
}

// Messages yields encoded messages until the subscriber is closed.
func (s *Subscriber) Messages() <-chan []byte {
	return s.send
}

// Done is closed when the hub drops the subscriber.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

func (s *Subscriber) deliver(data []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

// Hub fans messages out to every subscribed view.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]*Subscriber
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = SUBSCRIBER_BUFFER
	}
	return &Hub{subs: make(map[uuid.UUID]*Subscriber), buffer: buffer}
}

// Subscribe registers a new subscriber, optionally seeding it with messages
// that are queued ahead of any broadcast.
func (h *Hub) Subscribe(first ...Message) (*Subscriber, error) {
	s := &Subscriber{
		ID:   uuid.New(),
		send: make(chan []byte, h.buffer+len(first)),
		done: make(chan struct{}),
	}
	for _, msg := range first {
		data, err := json.Marshal(msg)
		if err != nil {
			return nil, err
		}
		s.send <- data
	}

	h.mu.Lock()
	h.subs[s.ID] = s
	h.mu.Unlock()
	logger.Debug().Str("subscriber", s.ID.String()).Msg("view subscribed")
	return s, nil
}

func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	delete(h.subs, s.ID)
	h.mu.Unlock()
	s.close()
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Broadcast encodes msg once and queues it for every subscriber, dropping
// the ones whose queues are full.
func (h *Hub) Broadcast(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	var slow []*Subscriber
	for _, s := range h.subs {
		if !s.deliver(data) {
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		logger.Warn().Str("subscriber", s.ID.String()).Msg("dropping slow view")
		h.Unsubscribe(s)
	}
	return nil
}

// Close drops every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[uuid.UUID]*Subscriber)
	h.mu.Unlock()
	for _, s := range subs {
		s.close()
	}
}
