package diagnostics_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetnode/fleetnode/internal/diagnostics"
	"github.com/fleetnode/fleetnode/internal/supervisor"
	"github.com/fleetnode/fleetnode/internal/transport"
)

// collectEvents subscribes to the diagnostics topic and decodes events.
type eventSink struct {
	mu     sync.Mutex
	events []diagnostics.Event
}

func (s *eventSink) handle(_ context.Context, msg transport.Message) {
	var ev diagnostics.Event
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		return
	}
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *eventSink) all() []diagnostics.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]diagnostics.Event(nil), s.events...)
}

func startSink(t *testing.T, tr *transport.MemoryTransport, topic string) *eventSink {
	t.Helper()

	sink := &eventSink{}
	sub := tr.Subscribe(topic)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = sub.Receive(ctx, sink.handle) }()

	pub := tr.Publisher(topic)
	require.Eventually(t, func() bool {
		n, _ := pub.NumListeners(context.Background())
		return n == 1
	}, time.Second, time.Millisecond)

	return sink
}

func TestTransportReporter_RegisterNode(t *testing.T) {
	tr := transport.NewMemoryTransport()
	sink := startSink(t, tr, diagnostics.DefaultTopic)

	reporter := diagnostics.NewTransportReporter(tr, "", zerolog.Nop())
	reporter.RegisterNode("camera-node", supervisor.HealthUnknown)

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, "register", events[0].Kind)
	assert.Equal(t, "camera-node", events[0].Node)
	assert.Equal(t, "UNKNOWN", events[0].Health)
}

func TestTransportReporter_UpdateCarriesNodeName(t *testing.T) {
	tr := transport.NewMemoryTransport()
	sink := startSink(t, tr, "custom-diag")

	reporter := diagnostics.NewTransportReporter(tr, "custom-diag", zerolog.Nop())
	reporter.RegisterNode("camera-node", supervisor.HealthStarting)

	health := supervisor.HealthWarning
	reason := "[camera-node] low light"
	enabled := false
	reporter.UpdateNode(supervisor.StatusUpdate{
		Health:       &health,
		HealthReason: &reason,
		Enabled:      &enabled,
	})

	events := sink.all()
	require.Len(t, events, 2)
	update := events[1]
	assert.Equal(t, "update", update.Kind)
	assert.Equal(t, "camera-node", update.Node)
	assert.Equal(t, "WARNING", update.Health)
	assert.Equal(t, "[camera-node] low light", update.HealthReason)
	require.NotNil(t, update.Enabled)
	assert.False(t, *update.Enabled)
}

func TestTransportReporter_PublishFailureIsSwallowed(t *testing.T) {
	tr := transport.NewMemoryTransport()
	// No subscriber at all; publishing still must not panic or error out.
	reporter := diagnostics.NewTransportReporter(tr, "", zerolog.Nop())

	enabled := true
	reporter.UpdateNode(supervisor.StatusUpdate{Enabled: &enabled})
}
