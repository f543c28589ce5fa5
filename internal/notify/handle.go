package notify

import (
	"errors"
	"sync"
)

// EventType is the live push payload type.
type EventType string

const (
	EventBidSubmitted     EventType = "bid_submitted"
	EventBidAccepted      EventType = "bid_accepted"
	EventBidRejected      EventType = "bid_rejected"
	EventPaymentCompleted EventType = "payment_completed"
)

// Event is the structured payload pushed over a live connection.
type Event struct {
	Type   EventType `json:"type"`
	TaskID uint      `json:"taskId"`
	BidID  uint      `json:"bidId"`
	UserID uint      `json:"userId"`
}

var (
	ErrHandleClosed = errors.New("handle closed")
	ErrBufferFull   = errors.New("handle buffer full")
)

// Handle is a single live transport attachment for one user. Sends are
// best-effort and must never block a caller.
type Handle interface {
	Send(Event) error
	Alive() bool
	Close()
}

// StreamHandle delivers events over a buffered channel for the lifetime of a
// connection. Close is safe to call from either side, any number of times.
type StreamHandle struct {
	events chan Event
	done   chan struct{}
	once   sync.Once
}

func NewStreamHandle(buffer int) *StreamHandle {
	if buffer <= 0 {
		buffer = 16
	}
	return &StreamHandle{
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
}

// Events is consumed by the transport loop serving the connection.
func (h *StreamHandle) Events() <-chan Event {
	return h.events
}

// Done is closed when the connection is gone.
func (h *StreamHandle) Done() <-chan struct{} {
	return h.done
}

// Send queues the event without blocking. A full buffer drops the event;
// the persisted message is the durable fallback.
func (h *StreamHandle) Send(ev Event) error {
	select {
	case <-h.done:
		return ErrHandleClosed
	default:
	}
	select {
	case h.events <- ev:
		return nil
	default:
		return ErrBufferFull
	}
}

func (h *StreamHandle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *StreamHandle) Close() {
	h.once.Do(func() {
		close(h.done)
	})
}
