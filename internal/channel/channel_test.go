package channel_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetnode/fleetnode/internal/channel"
	"github.com/fleetnode/fleetnode/internal/transport"
)

// startCounting attaches a subscription to the topic that counts
// deliveries, and waits until the transport sees it as a listener.
func startCounting(t *testing.T, tr *transport.MemoryTransport, topic string) *atomic.Int64 {
	t.Helper()

	var count atomic.Int64
	sub := tr.Subscribe(topic)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = sub.Receive(ctx, func(context.Context, transport.Message) {
			count.Add(1)
		})
	}()

	pub := tr.Publisher(topic)
	require.Eventually(t, func() bool {
		n, err := pub.NumListeners(context.Background())
		return err == nil && n > 0
	}, time.Second, time.Millisecond)

	return &count
}

func TestPublisher_InactiveSuppressesSends(t *testing.T) {
	tr := transport.NewMemoryTransport()
	received := startCounting(t, tr, "telemetry")

	pub := channel.NewPublisher(tr.Publisher("telemetry"))
	ctx := context.Background()

	pub.SetActive(false)
	for i := 0; i < 5; i++ {
		require.NoError(t, pub.Publish(ctx, []byte("dropped")))
	}
	assert.Equal(t, int64(0), received.Load())

	pub.SetActive(true)
	require.NoError(t, pub.Publish(ctx, []byte("delivered")))
	assert.Equal(t, int64(1), received.Load())
}

func TestPublisher_StartsActive(t *testing.T) {
	tr := transport.NewMemoryTransport()
	pub := channel.NewPublisher(tr.Publisher("telemetry"))
	assert.True(t, pub.Active())
	assert.Equal(t, "telemetry", pub.Topic())
}

func TestPublisher_HasListeners(t *testing.T) {
	tr := transport.NewMemoryTransport()
	pub := channel.NewPublisher(tr.Publisher("telemetry"))
	ctx := context.Background()

	assert.False(t, pub.HasListeners(ctx))

	startCounting(t, tr, "telemetry")
	assert.True(t, pub.HasListeners(ctx))

	// HasListeners is independent of the active flag.
	pub.SetActive(false)
	assert.True(t, pub.HasListeners(ctx))
}

func TestSubscriber_InactiveDropsDeliveries(t *testing.T) {
	tr := transport.NewMemoryTransport()

	var handled atomic.Int64
	sub := channel.NewSubscriber(tr.Subscribe("commands"), func(context.Context, transport.Message) {
		handled.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sub.Run(ctx) }()

	pub := tr.Publisher("commands")
	require.Eventually(t, func() bool {
		n, err := pub.NumListeners(context.Background())
		return err == nil && n > 0
	}, time.Second, time.Millisecond)

	sub.SetActive(false)
	for i := 0; i < 5; i++ {
		require.NoError(t, pub.Publish(ctx, []byte("dropped")))
	}
	assert.Equal(t, int64(0), handled.Load())

	sub.SetActive(true)
	require.NoError(t, pub.Publish(ctx, []byte("handled")))
	assert.Equal(t, int64(1), handled.Load())
}
