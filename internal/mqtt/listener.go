package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"roastlive/internal/models"
)

// ListenerTransport is the subset of the broker client an UpdateListener
// needs.
type ListenerTransport interface {
	Subscribe(topic string, handler MessageHandler) error
	Unsubscribe(topic string) error
}

// UpdateListener relays single-entity update broadcasts to a callback.
// There is no local store and no liveness tracking: each decoded item is
// handed to the callback and forgotten.
//
// The callback lives in a mutable slot: SetCallback replaces it, and the
// dispatch path always reads the slot at delivery time. A closure
// registered before a re-render can therefore never fire with outdated
// logic.
type UpdateListener[T any] struct {
	transport ListenerTransport
	topic     string
	event     string

	callback atomic.Pointer[func(T)]
	stopped  atomic.Bool

	mu sync.Mutex // serializes Close
}

// NewUpdateListener subscribes to team.{teamId}.{entity}-updates and
// delivers each {entity}.updated item to cb.
func NewUpdateListener[T any](transport ListenerTransport, teamID, entity string, cb func(T)) (*UpdateListener[T], error) {
	l := &UpdateListener[T]{
		transport: transport,
		topic:     UpdatesTopic(teamID, entity),
		event:     UpdatedEvent(entity),
	}
	l.callback.Store(&cb)

	if err := transport.Subscribe(l.topic, l.handleMessage); err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s updates: %w", entity, err)
	}
	return l, nil
}

// SetCallback replaces the registered callback. Subsequent deliveries use
// the new one.
func (l *UpdateListener[T]) SetCallback(cb func(T)) {
	l.callback.Store(&cb)
}

func (l *UpdateListener[T]) handleMessage(topic string, payload []byte) {
	if l.stopped.Load() {
		return
	}

	var envelope models.Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		log.Printf("Error unmarshaling update envelope on %s: %v", topic, err)
		return
	}
	if envelope.Event != l.event {
		return
	}

	var item T
	if err := json.Unmarshal(envelope.Payload, &item); err != nil {
		log.Printf("Error unmarshaling %s payload: %v", l.event, err)
		return
	}

	if cb := l.callback.Load(); cb != nil && *cb != nil {
		(*cb)(item)
	}
}

// Close unsubscribes and stops all deliveries. Closing twice is a no-op.
func (l *UpdateListener[T]) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped.Swap(true) {
		return nil
	}
	return l.transport.Unsubscribe(l.topic)
}
