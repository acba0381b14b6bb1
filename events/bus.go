// Package events provides a small in-process publish/subscribe bus used for
// SDK notifications (cart updates, config changes, extension churn).
//
// Delivery is synchronous and in subscription order: determinism of ordering
// is deliberately favored over throughput, so one slow handler delays the
// handlers after it. Handler panics are contained and logged.
package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Topics published by the SDK.
const (
	TopicCartUpdated           = "cart.updated"
	TopicCartOpened            = "cart.opened"
	TopicCartClosed            = "cart.closed"
	TopicConfigChanged         = "config.changed"
	TopicExtensionRegistered   = "extension.registered"
	TopicExtensionUnregistered = "extension.unregistered"
)

// Handler receives a published payload.
type Handler func(ctx context.Context, payload any)

// subscription couples a handler with its topic for unsubscribe-by-id.
type subscription struct {
	id      string
	topic   string
	handler Handler
}

// Bus is an in-process pub/sub bus. The zero value is not usable; construct
// with NewBus.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]*subscription // topic -> subscriptions in subscribe order
	byID   map[string]*subscription
	closed bool
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string][]*subscription),
		byID: make(map[string]*subscription),
	}
}

// Subscribe registers a handler for a topic and returns the subscription id.
// Handlers for a topic run in subscribe order on every publish.
func (b *Bus) Subscribe(topic string, handler Handler) string {
	sub := &subscription{
		id:      uuid.NewString(),
		topic:   topic,
		handler: handler,
	}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], sub)
	b.byID[sub.id] = sub
	b.mu.Unlock()

	log.Debug().Str("topic", topic).Str("subscription_id", sub.id).Msg("subscription added")
	return sub.id
}

// Unsubscribe removes the subscription with the given id. It reports whether
// the subscription existed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, exists := b.byID[id]
	if !exists {
		log.Warn().Str("subscription_id", id).Msg("attempted to remove non-existent subscription")
		return false
	}
	delete(b.byID, id)

	list := b.subs[sub.topic]
	newList := make([]*subscription, 0, len(list)-1)
	for _, s := range list {
		if s.id != id {
			newList = append(newList, s)
		}
	}
	if len(newList) == 0 {
		delete(b.subs, sub.topic)
	} else {
		b.subs[sub.topic] = newList
	}
	return true
}

// Publish delivers the payload to every handler subscribed to the topic,
// sequentially in subscribe order. Publishing on a closed bus is a no-op.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		log.Warn().Str("topic", topic).Msg("publish on closed bus dropped")
		return
	}
	// Snapshot under read lock so handlers may subscribe/unsubscribe freely.
	handlers := make([]*subscription, len(b.subs[topic]))
	copy(handlers, b.subs[topic])
	b.mu.RUnlock()

	for _, sub := range handlers {
		b.deliver(ctx, sub, payload)
	}
}

// deliver runs one handler with panic containment.
func (b *Bus) deliver(ctx context.Context, sub *subscription, payload any) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("topic", sub.topic).Str("subscription_id", sub.id).Any("panic", p).Msg("event handler panicked")
		}
	}()
	sub.handler(ctx, payload)
}

// Close drops all subscriptions and marks the bus closed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.subs = make(map[string][]*subscription)
	b.byID = make(map[string]*subscription)
	log.Debug().Msg("event bus closed")
}
