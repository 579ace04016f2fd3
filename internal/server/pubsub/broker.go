// Package pubsub implements the in-process event fan-out: a broker that
// broadcasts domain events to subscribers, filtering each delivery through
// the subscription's own filter.
package pubsub

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/messenger/internal/logging"
	"github.com/dmitrijs2005/messenger/internal/server/events"
)

// queueSize bounds the per-subscriber backlog. A subscriber that cannot
// keep up loses the newest events past this bound (logged), never the
// ordering of the ones it does receive.
const queueSize = 256

// Broker fans events out to subscribers. Publish is fire-and-forget from
// the publisher's perspective; each subscriber has its own delivery
// goroutine, so per-subscriber delivery order matches publish order while
// order across subscribers is unspecified.
type Broker struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	logger logging.Logger
	closed bool
}

// Subscription is one subscriber's event stream. Events that pass the
// subscription's filter arrive on C in publish order.
type Subscription struct {
	C chan events.Event

	broker *Broker
	filter events.Filter
	queue  chan events.Event
	cancel context.CancelFunc
	once   sync.Once
}

// NewBroker constructs an empty broker.
func NewBroker(logger logging.Logger) *Broker {
	return &Broker{
		subs:   make(map[*Subscription]struct{}),
		logger: logger.With("module", "pubsub"),
	}
}

// Subscribe registers a new subscription whose deliveries are gated by
// filter. The filter runs at delivery time, per event, on the subscriber's
// own goroutine; ctx carries the subscriber's lifetime.
func (b *Broker) Subscribe(ctx context.Context, filter events.Filter) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		C:      make(chan events.Event),
		broker: b,
		filter: filter,
		queue:  make(chan events.Event, queueSize),
		cancel: cancel,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		cancel()
		close(sub.C)
		return sub
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go sub.deliver(ctx)
	return sub
}

// Publish enqueues the event for every current subscriber and returns
// without waiting for deliveries. A full subscriber queue drops the event
// for that subscriber only.
func (b *Broker) Publish(ctx context.Context, ev events.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for sub := range b.subs {
		select {
		case sub.queue <- ev:
		default:
			b.logger.Warn(ctx, "subscriber queue full, dropping event", "topic", string(ev.Topic))
		}
	}
}

// Close tears down the broker and all subscriptions.
func (b *Broker) Close() {
	b.mu.Lock()
	subs := make([]*Subscription, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.closed = true
	b.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

// Close unsubscribes and releases the delivery goroutine. C is closed once
// the goroutine drains.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.mu.Lock()
		delete(s.broker.subs, s)
		s.broker.mu.Unlock()
		s.cancel()
	})
}

func (s *Subscription) deliver(ctx context.Context) {
	defer close(s.C)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.queue:
			if !s.filter.Match(ctx, ev) {
				continue
			}
			select {
			case s.C <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}
