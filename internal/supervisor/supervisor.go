// Package supervisor owns the process-wide runtime state of a fleet node:
// the on/off switch, the registered message channels, the dynamic
// parameter set, and the health state machine. One supervisor exists per
// process; constructing a second one fails.
package supervisor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/fleetnode/fleetnode/internal/channel"
	"github.com/fleetnode/fleetnode/internal/param"
)

// Config holds construction arguments for the supervisor.
type Config struct {
	// Name is the node name, used as the log prefix and the identity
	// reported to diagnostics.
	Name string

	// Type is the node role tag. Construction fails with
	// ErrInvalidNodeType for unrecognized values.
	Type NodeType

	// Logger is the sink behind the Log facade.
	Logger zerolog.Logger

	// Reporter receives status notifications. Nil disables reporting.
	Reporter Reporter

	// Parameters is the node's parameter registry. Nil means an empty
	// registry.
	Parameters *param.Registry
}

// Supervisor is the single process-wide owner of a node's runtime state.
// All methods are safe for concurrent use.
type Supervisor struct {
	name     string
	nodeType NodeType
	logger   zerolog.Logger
	reporter Reporter
	params   *param.Registry

	// mu guards enabled, health, healthReason, and channels. Switch
	// propagation runs under it so a concurrent Switch cannot leave
	// channels disagreeing with the final flag value.
	mu           sync.RWMutex
	enabled      bool
	health       Health
	healthReason string
	channels     []channel.Switchable

	shutdownOnce sync.Once
	shutdown     atomic.Bool
}

// New constructs the process's supervisor. It fails with
// ErrAlreadyInitialized if one exists already, or ErrInvalidNodeType for
// an unrecognized node type. On success the node's health is STARTING.
func New(cfg Config) (*Supervisor, error) {
	if !cfg.Type.valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidNodeType, cfg.Type)
	}
	if err := claimProcessSlot(); err != nil {
		return nil, err
	}

	params := cfg.Parameters
	if params == nil {
		params = param.NewRegistry()
	}

	s := &Supervisor{
		name:     cfg.Name,
		nodeType: cfg.Type,
		logger:   cfg.Logger,
		reporter: cfg.Reporter,
		params:   params,
		enabled:  true,
		health:   HealthUnknown,
	}

	_ = s.Log("initializing", SeverityInfo)

	if s.reporter != nil {
		s.reporter.RegisterNode(s.name, s.health)
	}
	_ = s.SetHealth(HealthStarting, "")

	return s, nil
}

// Name returns the node name.
func (s *Supervisor) Name() string { return s.name }

// Type returns the node type tag.
func (s *Supervisor) Type() NodeType { return s.nodeType }

// Enabled reports the current value of the node switch.
func (s *Supervisor) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// Health returns the current health state and reason.
func (s *Supervisor) Health() (Health, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.health, s.healthReason
}

// IsShutdown reports whether the shutdown hook has run.
func (s *Supervisor) IsShutdown() bool { return s.shutdown.Load() }

// Parameters returns the node's parameter registry.
func (s *Supervisor) Parameters() *param.Registry { return s.params }

// RegisterChannel adds a channel to the switch propagation list. The list
// is append-only; the supervisor does not own channel lifetime beyond the
// active flag. Safe to call concurrently with Switch: a channel registered
// mid-propagation picks up the switch value on the next call.
func (s *Supervisor) RegisterChannel(ch channel.Switchable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = append(s.channels, ch)
}

// Switch sets the node switch and propagates it to every registered
// channel, unconditionally overwriting each channel's active flag. The
// operation cannot fail; diagnostics delivery is best-effort and does not
// affect the result.
func (s *Supervisor) Switch(desired bool) (bool, string) {
	s.mu.Lock()
	old := s.enabled
	s.enabled = desired
	for _, ch := range s.channels {
		ch.SetActive(desired)
	}
	s.mu.Unlock()

	if s.reporter != nil {
		enabled := desired
		s.reporter.UpdateNode(StatusUpdate{Enabled: &enabled})
	}

	msg := fmt.Sprintf("node switched from [%s] to [%s]", onOff(old), onOff(desired))
	_ = s.Log(msg, SeverityInfo)
	return true, msg
}

// ListParameters returns one descriptor per registered parameter in
// registration order. Pure read, no side effects.
func (s *Supervisor) ListParameters() []param.Descriptor {
	descs := s.params.Descriptors()
	for i := range descs {
		descs[i].Node = s.name
	}
	return descs
}

// RequestParameterUpdate force-refreshes the named parameter from the
// external store. It reports false when the parameter is unknown or the
// refresh failed; failures never surface as errors.
func (s *Supervisor) RequestParameterUpdate(ctx context.Context, name string) bool {
	p, ok := s.params.Get(name)
	if !ok {
		return false
	}
	if err := p.ForceUpdate(ctx); err != nil {
		s.logger.Warn().Err(err).Str("parameter", name).
			Msgf("[%s] parameter update failed", s.name)
		return false
	}
	return true
}

// Log prefixes the message with the node name and routes it to the
// corresponding sink. Warn, err, and fatal severities additionally move
// the health state machine, using the formatted message as the reason.
// An unrecognized severity returns ErrInvalidSeverity.
func (s *Supervisor) Log(msg string, severity Severity) error {
	sev, err := ParseSeverity(string(severity))
	if err != nil {
		return err
	}

	full := fmt.Sprintf("[%s] %s", s.name, msg)
	switch sev {
	case SeverityDebug:
		s.logger.Debug().Msg(full)
	case SeverityInfo:
		s.logger.Info().Msg(full)
	case SeverityWarn:
		_ = s.SetHealth(HealthWarning, full)
		s.logger.Warn().Msg(full)
	case SeverityErr:
		_ = s.SetHealth(HealthError, full)
		s.logger.Error().Msg(full)
	case SeverityFatal:
		_ = s.SetHealth(HealthFatal, full)
		// WithLevel logs at fatal without exiting the process.
		s.logger.WithLevel(zerolog.FatalLevel).Msg(full)
	}
	return nil
}

// SetHealth moves the health state machine. It is idempotent in the sense
// that setting the current state again still logs and re-notifies. An
// unrecognized state returns ErrInvalidHealthState and leaves health
// unchanged.
func (s *Supervisor) SetHealth(state Health, reason string) error {
	if !state.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidHealthState, state)
	}

	s.mu.Lock()
	old := s.health
	s.health = state
	s.healthReason = reason
	s.mu.Unlock()

	// Log straight to the sink so the transition does not feed back
	// into the health state machine.
	s.logger.Info().Msgf("[%s] health changed [%s] -> [%s]", s.name, old, state)

	if s.reporter != nil {
		health := state
		healthReason := reason
		s.reporter.UpdateNode(StatusUpdate{Health: &health, HealthReason: &healthReason})
	}
	return nil
}

// Shutdown is the node's shutdown hook. It runs at most once; later calls
// are no-ops. The process lifecycle owner is responsible for invoking it
// exactly once at termination.
func (s *Supervisor) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.shutdown.Store(true)
		_ = s.Log("shutdown", SeverityInfo)
	})
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
