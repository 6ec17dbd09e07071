package param

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// ErrStoreUnavailable is returned when the circuit breaker around the
// external store is open and calls are being short-circuited.
var ErrStoreUnavailable = errors.New("parameter store unavailable")

// ResilientStoreConfig holds configuration for the resilient store
// decorator.
type ResilientStoreConfig struct {
	// Name identifies the breaker, typically the node name.
	Name string

	// MaxRetries is the maximum number of retry attempts per Get.
	// Default: 3.
	MaxRetries uint64

	// InitialInterval is the initial retry backoff. Default: 100ms.
	InitialInterval time.Duration

	// MaxInterval caps the retry backoff. Default: 2s.
	MaxInterval time.Duration

	// OpenTimeout is how long the breaker stays open before probing the
	// store again. Default: 30s.
	OpenTimeout time.Duration
}

// ResilientStore decorates a Store with retries and a circuit breaker, so
// a flapping or down external store degrades to fast failures instead of
// piling up blocked round-trips.
type ResilientStore struct {
	inner   Store
	breaker *gobreaker.CircuitBreaker[any]
	cfg     ResilientStoreConfig
}

// NewResilientStore wraps a store with retry and circuit breaking.
func NewResilientStore(inner Store, cfg ResilientStoreConfig) *ResilientStore {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 2 * time.Second
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// A missing parameter is a definitive answer from a
			// reachable store, not a store failure.
			return err == nil || errors.Is(err, ErrParameterNotFound)
		},
	})

	return &ResilientStore{inner: inner, breaker: breaker, cfg: cfg}
}

// Get retrieves a value through the breaker, retrying transient failures
// with exponential backoff.
func (s *ResilientStore) Get(ctx context.Context, name string) (any, error) {
	value, err := s.breaker.Execute(func() (any, error) {
		return s.getWithRetry(ctx, name)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrStoreUnavailable
		}
		return nil, err
	}
	return value, nil
}

func (s *ResilientStore) getWithRetry(ctx context.Context, name string) (any, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.InitialInterval
	bo.MaxInterval = s.cfg.MaxInterval

	var value any
	operation := func() error {
		var err error
		value, err = s.inner.Get(ctx, name)
		if errors.Is(err, ErrParameterNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(bo, s.cfg.MaxRetries), ctx))
	if err != nil {
		return nil, err
	}
	return value, nil
}

// State returns the current breaker state, for status reporting.
func (s *ResilientStore) State() gobreaker.State {
	return s.breaker.State()
}

var _ Store = (*ResilientStore)(nil)
