package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetnode/fleetnode/internal/telemetry"
)

func TestInit_Disabled(t *testing.T) {
	provider, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "fleetnode-test",
		Enabled:     false,
	})
	require.NoError(t, err)
	require.NotNil(t, provider)

	// Shutdown on a provider without exporters is a no-op.
	assert.NoError(t, provider.Shutdown(context.Background()))
}
