package supervisor_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetnode/fleetnode/internal/channel"
	"github.com/fleetnode/fleetnode/internal/param"
	"github.com/fleetnode/fleetnode/internal/supervisor"
	"github.com/fleetnode/fleetnode/internal/transport"
)

// fakeReporter records diagnostics calls.
type fakeReporter struct {
	mu        sync.Mutex
	registers []string
	updates   []supervisor.StatusUpdate
}

func (r *fakeReporter) RegisterNode(name string, _ supervisor.Health) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registers = append(r.registers, name)
}

func (r *fakeReporter) UpdateNode(update supervisor.StatusUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, update)
}

func (r *fakeReporter) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func newSupervisor(t *testing.T, cfg supervisor.Config) *supervisor.Supervisor {
	t.Helper()
	if cfg.Name == "" {
		cfg.Name = "test-node"
	}
	cfg.Logger = zerolog.Nop()

	sup, err := supervisor.New(cfg)
	require.NoError(t, err)
	t.Cleanup(supervisor.ReleaseProcessSlot)
	return sup
}

func TestNew_SecondSupervisorFails(t *testing.T) {
	_ = newSupervisor(t, supervisor.Config{})

	_, err := supervisor.New(supervisor.Config{Name: "other", Logger: zerolog.Nop()})
	assert.ErrorIs(t, err, supervisor.ErrAlreadyInitialized)
}

func TestNew_InvalidNodeType(t *testing.T) {
	_, err := supervisor.New(supervisor.Config{
		Name:   "test-node",
		Type:   supervisor.NodeType(99),
		Logger: zerolog.Nop(),
	})
	assert.ErrorIs(t, err, supervisor.ErrInvalidNodeType)
}

func TestNew_StartsEnabledAndStarting(t *testing.T) {
	reporter := &fakeReporter{}
	sup := newSupervisor(t, supervisor.Config{Reporter: reporter})

	assert.True(t, sup.Enabled())
	health, _ := sup.Health()
	assert.Equal(t, supervisor.HealthStarting, health)
	assert.Equal(t, []string{"test-node"}, reporter.registers)
	assert.False(t, sup.IsShutdown())
}

func TestSwitch_PropagatesToAllChannels(t *testing.T) {
	sup := newSupervisor(t, supervisor.Config{})

	tr := transport.NewMemoryTransport()
	var channels []channel.Switchable
	for i := 0; i < 4; i++ {
		ch := channel.NewPublisher(tr.Publisher(fmt.Sprintf("topic-%d", i)))
		channels = append(channels, ch)
		sup.RegisterChannel(ch)
	}

	for _, desired := range []bool{false, true, true, false} {
		ok, msg := sup.Switch(desired)
		assert.True(t, ok)
		assert.NotEmpty(t, msg)
		assert.Equal(t, desired, sup.Enabled())
		for _, ch := range channels {
			assert.Equal(t, desired, ch.Active())
		}
	}
}

func TestSwitch_OverwritesIndividuallySetFlags(t *testing.T) {
	sup := newSupervisor(t, supervisor.Config{})

	tr := transport.NewMemoryTransport()
	ch := channel.NewPublisher(tr.Publisher("topic"))
	sup.RegisterChannel(ch)

	// Disabled for reasons unrelated to the global switch.
	ch.SetActive(false)

	sup.Switch(true)
	assert.True(t, ch.Active(), "global switch overwrites per-channel flag")
}

func TestSwitch_NotifiesReporter(t *testing.T) {
	reporter := &fakeReporter{}
	sup := newSupervisor(t, supervisor.Config{Reporter: reporter})

	before := reporter.updateCount()
	sup.Switch(false)

	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	require.Greater(t, len(reporter.updates), before)
	last := reporter.updates[len(reporter.updates)-1]
	require.NotNil(t, last.Enabled)
	assert.False(t, *last.Enabled)
}

func TestLog_WarnMovesHealthWithFormattedReason(t *testing.T) {
	sup := newSupervisor(t, supervisor.Config{})

	require.NoError(t, sup.Log("sensor drift detected", supervisor.SeverityWarn))

	health, reason := sup.Health()
	assert.Equal(t, supervisor.HealthWarning, health)
	assert.Equal(t, "[test-node] sensor drift detected", reason)
}

func TestLog_InfoLeavesHealthUnchanged(t *testing.T) {
	sup := newSupervisor(t, supervisor.Config{})

	before, _ := sup.Health()
	require.NoError(t, sup.Log("all good", supervisor.SeverityInfo))

	after, _ := sup.Health()
	assert.Equal(t, before, after)
}

func TestLog_SeverityAliases(t *testing.T) {
	sup := newSupervisor(t, supervisor.Config{})

	require.NoError(t, sup.Log("deprecated alias", supervisor.Severity("warning")))
	health, _ := sup.Health()
	assert.Equal(t, supervisor.HealthWarning, health)

	require.NoError(t, sup.Log("also aliased", supervisor.Severity("error")))
	health, _ = sup.Health()
	assert.Equal(t, supervisor.HealthError, health)
}

func TestLog_InvalidSeverity(t *testing.T) {
	sup := newSupervisor(t, supervisor.Config{})

	err := sup.Log("oops", supervisor.Severity("shout"))
	assert.ErrorIs(t, err, supervisor.ErrInvalidSeverity)
}

func TestSetHealth_InvalidStateLeavesHealthUnchanged(t *testing.T) {
	sup := newSupervisor(t, supervisor.Config{})

	before, _ := sup.Health()
	err := sup.SetHealth(supervisor.Health(42), "bogus")
	assert.ErrorIs(t, err, supervisor.ErrInvalidHealthState)

	after, _ := sup.Health()
	assert.Equal(t, before, after)
}

func TestSetHealth_SameStateRenotifies(t *testing.T) {
	reporter := &fakeReporter{}
	sup := newSupervisor(t, supervisor.Config{Reporter: reporter})

	require.NoError(t, sup.SetHealth(supervisor.HealthHealthy, ""))
	count := reporter.updateCount()
	require.NoError(t, sup.SetHealth(supervisor.HealthHealthy, ""))
	assert.Equal(t, count+1, reporter.updateCount())
}

func TestRequestParameterUpdate(t *testing.T) {
	store := param.NewInMemoryStore()
	store.Set("gain", 2.5)

	params := param.NewRegistry()
	params.Register(param.New(param.Config{
		Name: "gain", Type: param.TypeFloat, Default: 1.0, Store: store,
	}))

	sup := newSupervisor(t, supervisor.Config{Parameters: params})
	ctx := context.Background()

	assert.False(t, sup.RequestParameterUpdate(ctx, "missing"))
	assert.True(t, sup.RequestParameterUpdate(ctx, "gain"))

	p, _ := params.Get("gain")
	assert.Equal(t, 2.5, p.Value())

	// A store outage collapses to false, never an error.
	store.FailWith(errors.New("connection refused"))
	assert.False(t, sup.RequestParameterUpdate(ctx, "gain"))
}

func TestListParameters_OrderAndIdempotence(t *testing.T) {
	store := param.NewInMemoryStore()
	params := param.NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		params.Register(param.New(param.Config{
			Name: name, Type: param.TypeString, Default: "", Store: store,
		}))
	}

	sup := newSupervisor(t, supervisor.Config{Parameters: params})

	first := sup.ListParameters()
	require.Len(t, first, 3)
	assert.Equal(t, "zeta", first[0].Name)
	assert.Equal(t, "alpha", first[1].Name)
	assert.Equal(t, "mid", first[2].Name)
	for _, d := range first {
		assert.Equal(t, "test-node", d.Node)
	}

	second := sup.ListParameters()
	assert.Equal(t, first, second)
}

func TestShutdown_RunsOnce(t *testing.T) {
	sup := newSupervisor(t, supervisor.Config{})

	sup.Shutdown()
	assert.True(t, sup.IsShutdown())
	sup.Shutdown()
	assert.True(t, sup.IsShutdown())
}

func TestWatchParameters_RefreshesDriftedValue(t *testing.T) {
	store := param.NewInMemoryStore()
	store.Set("gain", 1.0)

	params := param.NewRegistry()
	params.Register(param.New(param.Config{
		Name: "gain", Type: param.TypeFloat, Default: 1.0, Store: store,
	}))

	sup := newSupervisor(t, supervisor.Config{Parameters: params})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- sup.WatchParameters(ctx, 5*time.Millisecond)
	}()

	store.Set("gain", 9.9)

	p, _ := params.Get("gain")
	require.Eventually(t, func() bool {
		return p.Value() == 9.9
	}, time.Second, 5*time.Millisecond, "watcher picks up the drifted value")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatchParameters_NonPositiveIntervalDisables(t *testing.T) {
	sup := newSupervisor(t, supervisor.Config{})

	assert.NoError(t, sup.WatchParameters(context.Background(), 0))
	assert.NoError(t, sup.WatchParameters(context.Background(), -time.Second))
}

func TestConcurrentSwitch_NoTornPropagation(t *testing.T) {
	sup := newSupervisor(t, supervisor.Config{})

	tr := transport.NewMemoryTransport()
	var channels []channel.Switchable
	for i := 0; i < 8; i++ {
		ch := channel.NewPublisher(tr.Publisher(fmt.Sprintf("topic-%d", i)))
		channels = append(channels, ch)
		sup.RegisterChannel(ch)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sup.Switch(true)
		}()
		go func() {
			defer wg.Done()
			sup.Switch(false)
		}()
	}
	wg.Wait()

	final := sup.Enabled()
	for _, ch := range channels {
		assert.Equal(t, final, ch.Active())
	}
}

func TestConcurrentRegisterAndSwitch(t *testing.T) {
	sup := newSupervisor(t, supervisor.Config{})
	tr := transport.NewMemoryTransport()

	channels := make([]channel.Switchable, 50)
	var wg sync.WaitGroup
	for i := range channels {
		i := i
		wg.Add(2)
		go func() {
			defer wg.Done()
			ch := channel.NewPublisher(tr.Publisher(fmt.Sprintf("t-%d", i)))
			channels[i] = ch
			sup.RegisterChannel(ch)
		}()
		go func() {
			defer wg.Done()
			sup.Switch(i%2 == 0)
		}()
	}
	wg.Wait()

	// A propagation after the dust settles must reach every channel,
	// including those registered mid-flight.
	sup.Switch(false)
	assert.False(t, sup.Enabled())
	for _, ch := range channels {
		assert.False(t, ch.Active())
	}

	sup.Switch(true)
	for _, ch := range channels {
		assert.True(t, ch.Active())
	}
}
