// Package diagnostics forwards node status events to the fleet's
// diagnostics aggregation topic.
package diagnostics

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fleetnode/fleetnode/internal/supervisor"
	"github.com/fleetnode/fleetnode/internal/transport"
)

// DefaultTopic is the diagnostics topic nodes publish status events on.
const DefaultTopic = "fleet-diagnostics"

// publishTimeout bounds each status publish so a slow diagnostics backend
// cannot stall the supervisor's callers.
const publishTimeout = 2 * time.Second

// Event is one node status event on the diagnostics topic.
type Event struct {
	Kind         string    `json:"kind"` // "register" or "update"
	Node         string    `json:"node"`
	Health       string    `json:"health,omitempty"`
	HealthReason string    `json:"health_reason,omitempty"`
	Enabled      *bool     `json:"enabled,omitempty"`
	Time         time.Time `json:"time"`
}

// TransportReporter publishes status events over the messaging transport.
// Every call is fire-and-forget: publish failures are logged at debug
// level and otherwise swallowed.
type TransportReporter struct {
	pub    transport.Publisher
	logger zerolog.Logger

	mu   sync.RWMutex
	node string
}

// NewTransportReporter creates a reporter publishing on the given topic of t.
func NewTransportReporter(t transport.Transport, topic string, logger zerolog.Logger) *TransportReporter {
	if topic == "" {
		topic = DefaultTopic
	}
	return &TransportReporter{pub: t.Publisher(topic), logger: logger}
}

// RegisterNode announces a node to the diagnostics backend. The name is
// remembered and stamped on subsequent update events.
func (r *TransportReporter) RegisterNode(name string, health supervisor.Health) {
	r.mu.Lock()
	r.node = name
	r.mu.Unlock()

	r.publish(Event{
		Kind:   "register",
		Node:   name,
		Health: health.String(),
		Time:   time.Now(),
	})
}

// UpdateNode forwards a status change to the diagnostics backend.
func (r *TransportReporter) UpdateNode(update supervisor.StatusUpdate) {
	r.mu.RLock()
	node := r.node
	r.mu.RUnlock()

	ev := Event{Kind: "update", Node: node, Time: time.Now()}
	if update.Health != nil {
		ev.Health = update.Health.String()
	}
	if update.HealthReason != nil {
		ev.HealthReason = *update.HealthReason
	}
	ev.Enabled = update.Enabled
	r.publish(ev)
}

func (r *TransportReporter) publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		r.logger.Debug().Err(err).Msg("failed to encode diagnostics event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := r.pub.Publish(ctx, data); err != nil {
		r.logger.Debug().Err(err).Str("kind", ev.Kind).
			Msg("failed to publish diagnostics event")
	}
}

var _ supervisor.Reporter = (*TransportReporter)(nil)
