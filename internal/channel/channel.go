// Package channel wraps transport publishers and subscriptions with an
// on/off switch. An inactive channel silently drops traffic in both
// directions without surfacing errors to the caller.
package channel

import (
	"context"
	"sync/atomic"

	"github.com/fleetnode/fleetnode/internal/transport"
)

// Switchable is the common contract for channels whose delivery can be
// enabled and disabled at runtime. Both directions implement it so the
// supervisor can hold them in one collection.
type Switchable interface {
	SetActive(active bool)
	Active() bool
	Topic() string
}

// Publisher is an outbound channel. Publish forwards to the underlying
// transport only while the channel is active; while inactive, payloads are
// discarded without error and without buffering.
type Publisher struct {
	pub    transport.Publisher
	active atomic.Bool
}

// NewPublisher wraps a transport publisher. Channels start active.
func NewPublisher(pub transport.Publisher) *Publisher {
	p := &Publisher{pub: pub}
	p.active.Store(true)
	return p
}

// Publish sends data on the underlying topic if the channel is active.
func (p *Publisher) Publish(ctx context.Context, data []byte) error {
	if !p.active.Load() {
		return nil
	}
	return p.pub.Publish(ctx, data)
}

// HasListeners reports whether any peer is attached to the topic,
// regardless of the active flag. Application code can use it to skip
// expensive work when nobody would receive the result.
func (p *Publisher) HasListeners(ctx context.Context) bool {
	n, err := p.pub.NumListeners(ctx)
	if err != nil {
		return false
	}
	return n > 0
}

// SetActive sets the channel's active flag.
func (p *Publisher) SetActive(active bool) { p.active.Store(active) }

// Active reports the channel's active flag.
func (p *Publisher) Active() bool { return p.active.Load() }

// Topic returns the underlying topic name.
func (p *Publisher) Topic() string { return p.pub.Topic() }

// Subscriber is an inbound channel. Incoming messages reach the
// application handler only while the channel is active; messages arriving
// while inactive are dropped.
type Subscriber struct {
	sub     transport.Subscription
	handler transport.Handler
	active  atomic.Bool
}

// NewSubscriber wraps a transport subscription with the given handler.
// Channels start active.
func NewSubscriber(sub transport.Subscription, h transport.Handler) *Subscriber {
	s := &Subscriber{sub: sub, handler: h}
	s.active.Store(true)
	return s
}

// Run receives from the underlying subscription until ctx is done,
// forwarding messages to the handler while the channel is active.
func (s *Subscriber) Run(ctx context.Context) error {
	return s.sub.Receive(ctx, func(ctx context.Context, msg transport.Message) {
		if !s.active.Load() {
			return
		}
		s.handler(ctx, msg)
	})
}

// SetActive sets the channel's active flag.
func (s *Subscriber) SetActive(active bool) { s.active.Store(active) }

// Active reports the channel's active flag.
func (s *Subscriber) Active() bool { return s.active.Load() }

// Topic returns the underlying topic name.
func (s *Subscriber) Topic() string { return s.sub.Topic() }

var (
	_ Switchable = (*Publisher)(nil)
	_ Switchable = (*Subscriber)(nil)
)
