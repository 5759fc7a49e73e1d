// Package events provides the in-process pub/sub bus carrying run
// notifications to the websocket stream and any other listener.
package events

import (
	"sync"
	"time"
)

// Type enumerates event kinds.
type Type string

const (
	TypeRunStarted   Type = "run_started"
	TypeRunCompleted Type = "run_completed"
	TypeRunFailed    Type = "run_failed"
)

// Event is one bus message.
type Event struct {
	Type      Type      `json:"type"`
	RunID     string    `json:"run_id"`
	Status    string    `json:"status,omitempty"`
	TotalFee  float64   `json:"total_fee,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Bus fans events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe returns a buffered event channel and an unsubscribe function.
// The channel is closed on unsubscribe.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, 16)
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

// Publish delivers the event to every subscriber with buffer room.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
