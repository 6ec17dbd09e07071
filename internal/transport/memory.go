package transport

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryTransport is an in-process Transport implementation for testing and
// single-process deployments. Messages published on a topic are delivered
// synchronously to every subscription attached to it.
type MemoryTransport struct {
	mu     sync.RWMutex
	topics map[string]*memoryTopic
	closed bool
}

type memoryTopic struct {
	mu   sync.RWMutex
	subs []*memorySubscription
}

// NewMemoryTransport creates an empty in-memory transport.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{
		topics: make(map[string]*memoryTopic),
	}
}

func (t *MemoryTransport) topic(name string) *memoryTopic {
	t.mu.Lock()
	defer t.mu.Unlock()

	mt, ok := t.topics[name]
	if !ok {
		mt = &memoryTopic{}
		t.topics[name] = mt
	}
	return mt
}

// Publisher returns a publisher for the given topic.
func (t *MemoryTransport) Publisher(topic string) Publisher {
	return &memoryPublisher{name: topic, topic: t.topic(topic)}
}

// Subscribe attaches a new subscription to the given topic.
func (t *MemoryTransport) Subscribe(topic string) Subscription {
	mt := t.topic(topic)
	sub := &memorySubscription{name: topic, topic: mt}

	mt.mu.Lock()
	mt.subs = append(mt.subs, sub)
	mt.mu.Unlock()

	return sub
}

// Close marks the transport as closed. Attached subscriptions keep draining
// until their Receive context is cancelled.
func (t *MemoryTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

type memoryPublisher struct {
	name  string
	topic *memoryTopic
}

func (p *memoryPublisher) Publish(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := Message{
		ID:          uuid.New().String(),
		Data:        append([]byte(nil), data...),
		PublishTime: time.Now(),
	}

	p.topic.mu.RLock()
	subs := make([]*memorySubscription, len(p.topic.subs))
	copy(subs, p.topic.subs)
	p.topic.mu.RUnlock()

	for _, sub := range subs {
		sub.deliver(ctx, msg)
	}
	return nil
}

func (p *memoryPublisher) NumListeners(context.Context) (int, error) {
	p.topic.mu.RLock()
	defer p.topic.mu.RUnlock()

	n := 0
	for _, sub := range p.topic.subs {
		if sub.receiving() {
			n++
		}
	}
	return n, nil
}

func (p *memoryPublisher) Topic() string { return p.name }

type memorySubscription struct {
	name  string
	topic *memoryTopic

	mu      sync.RWMutex
	handler Handler
}

func (s *memorySubscription) Receive(ctx context.Context, h Handler) error {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()

	<-ctx.Done()

	s.mu.Lock()
	s.handler = nil
	s.mu.Unlock()

	return ctx.Err()
}

func (s *memorySubscription) Topic() string { return s.name }

func (s *memorySubscription) deliver(ctx context.Context, msg Message) {
	s.mu.RLock()
	h := s.handler
	s.mu.RUnlock()

	if h != nil {
		h(ctx, msg)
	}
}

func (s *memorySubscription) receiving() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handler != nil
}

// Ensure the in-memory implementation satisfies the transport interfaces.
var (
	_ Transport    = (*MemoryTransport)(nil)
	_ Publisher    = (*memoryPublisher)(nil)
	_ Subscription = (*memorySubscription)(nil)
)
