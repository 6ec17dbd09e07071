package transport

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/iterator"
)

// PubSubConfig holds configuration for the Google Pub/Sub transport.
type PubSubConfig struct {
	ProjectID string

	// SubscriptionSuffix is appended to the topic name to derive the
	// subscription ID used by Subscribe. Default: "-sub".
	SubscriptionSuffix string

	// MaxOutstandingMessages bounds concurrent message handling per
	// subscription. Default: 10.
	MaxOutstandingMessages int
}

// PubSubTransport is a Transport backed by Google Cloud Pub/Sub.
type PubSubTransport struct {
	client *pubsub.Client
	cfg    PubSubConfig
}

// NewPubSubTransport creates a Pub/Sub backed transport.
func NewPubSubTransport(ctx context.Context, cfg PubSubConfig) (*PubSubTransport, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	if cfg.SubscriptionSuffix == "" {
		cfg.SubscriptionSuffix = "-sub"
	}
	if cfg.MaxOutstandingMessages == 0 {
		cfg.MaxOutstandingMessages = 10
	}

	return &PubSubTransport{client: client, cfg: cfg}, nil
}

// Publisher returns a publisher for the given topic.
func (t *PubSubTransport) Publisher(topic string) Publisher {
	return &pubsubPublisher{
		name:      topic,
		projectID: t.cfg.ProjectID,
		client:    t.client,
		publisher: t.client.Publisher(topic),
	}
}

// Subscribe attaches to the subscription derived from the topic name.
// The subscription must already exist.
func (t *PubSubTransport) Subscribe(topic string) Subscription {
	subID := topic + t.cfg.SubscriptionSuffix
	sub := t.client.Subscriber(subID)
	sub.ReceiveSettings.MaxOutstandingMessages = t.cfg.MaxOutstandingMessages

	return &pubsubSubscription{name: topic, subscriber: sub}
}

// Close releases the underlying Pub/Sub client.
func (t *PubSubTransport) Close() error {
	return t.client.Close()
}

type pubsubPublisher struct {
	name      string
	projectID string
	client    *pubsub.Client
	publisher *pubsub.Publisher
}

func (p *pubsubPublisher) Publish(ctx context.Context, data []byte) error {
	result := p.publisher.Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.name, err)
	}
	return nil
}

// NumListeners counts the subscriptions attached to the topic. Pub/Sub has
// no notion of live subscribers, so an attached subscription counts as a
// listener even when nothing is currently pulling from it.
func (p *pubsubPublisher) NumListeners(ctx context.Context) (int, error) {
	req := &pubsubpb.ListTopicSubscriptionsRequest{
		Topic: fmt.Sprintf("projects/%s/topics/%s", p.projectID, p.name),
	}

	n := 0
	it := p.client.TopicAdminClient.ListTopicSubscriptions(ctx, req)
	for {
		_, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("listing subscriptions for %s: %w", p.name, err)
		}
		n++
	}
	return n, nil
}

func (p *pubsubPublisher) Topic() string { return p.name }

type pubsubSubscription struct {
	name       string
	subscriber *pubsub.Subscriber
}

func (s *pubsubSubscription) Receive(ctx context.Context, h Handler) error {
	return s.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h(ctx, Message{
			ID:          msg.ID,
			Data:        msg.Data,
			Attributes:  msg.Attributes,
			PublishTime: msg.PublishTime,
		})
		msg.Ack()
	})
}

func (s *pubsubSubscription) Topic() string { return s.name }

var (
	_ Transport    = (*PubSubTransport)(nil)
	_ Publisher    = (*pubsubPublisher)(nil)
	_ Subscription = (*pubsubSubscription)(nil)
)
