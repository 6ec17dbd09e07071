// Package transport abstracts the message delivery layer between nodes.
package transport

import (
	"context"
	"time"
)

// Message is a single payload delivered on a topic.
type Message struct {
	ID          string
	Data        []byte
	Attributes  map[string]string
	PublishTime time.Time
}

// Handler processes one incoming message.
type Handler func(ctx context.Context, msg Message)

// Publisher sends payloads on a single topic.
type Publisher interface {
	// Publish delivers data to the topic. It blocks until the transport
	// has accepted the message or ctx is done.
	Publish(ctx context.Context, data []byte) error

	// NumListeners reports how many peers are currently attached to the
	// topic.
	NumListeners(ctx context.Context) (int, error)

	// Topic returns the topic name.
	Topic() string
}

// Subscription receives payloads from a single topic.
type Subscription interface {
	// Receive invokes h for every incoming message until ctx is done or
	// the transport fails.
	Receive(ctx context.Context, h Handler) error

	// Topic returns the topic name.
	Topic() string
}

// Transport creates publishers and subscriptions for named topics.
type Transport interface {
	Publisher(topic string) Publisher
	Subscribe(topic string) Subscription
	Close() error
}
