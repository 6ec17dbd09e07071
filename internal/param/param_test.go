package param_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetnode/fleetnode/internal/param"
)

func TestParameter_ForceUpdate(t *testing.T) {
	store := param.NewInMemoryStore()
	store.Set("speed_limit", 3.5)

	p := param.New(param.Config{
		Name:    "speed_limit",
		Type:    param.TypeFloat,
		Default: 1.0,
		Store:   store,
	})

	assert.Equal(t, 1.0, p.Value())

	require.NoError(t, p.ForceUpdate(context.Background()))
	assert.Equal(t, 3.5, p.Value())
}

func TestParameter_ForceUpdateNotFound(t *testing.T) {
	store := param.NewInMemoryStore()
	p := param.New(param.Config{
		Name: "ghost", Type: param.TypeString, Default: "fallback", Store: store,
	})

	err := p.ForceUpdate(context.Background())
	assert.ErrorIs(t, err, param.ErrParameterNotFound)
	assert.Equal(t, "fallback", p.Value(), "failed update leaves local value intact")
}

func TestParameter_ForceUpdateStoreUnreachable(t *testing.T) {
	store := param.NewInMemoryStore()
	store.Set("speed_limit", 3.5)
	store.FailWith(errors.New("dial tcp: connection refused"))

	p := param.New(param.Config{
		Name: "speed_limit", Type: param.TypeFloat, Default: 1.0, Store: store,
	})

	err := p.ForceUpdate(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, param.ErrParameterNotFound)
	assert.Equal(t, 1.0, p.Value())
}

func TestParameter_HasChanged(t *testing.T) {
	store := param.NewInMemoryStore()
	store.Set("mode", "auto")

	p := param.New(param.Config{
		Name: "mode", Type: param.TypeString, Default: "auto", Store: store,
	})

	ctx := context.Background()
	assert.False(t, p.HasChanged(ctx))

	store.Set("mode", "manual")
	assert.True(t, p.HasChanged(ctx))

	require.NoError(t, p.ForceUpdate(ctx))
	assert.False(t, p.HasChanged(ctx))
}

func TestParameter_HasChangedStoreFailureCountsAsUnchanged(t *testing.T) {
	store := param.NewInMemoryStore()
	store.Set("mode", "manual")

	p := param.New(param.Config{
		Name: "mode", Type: param.TypeString, Default: "auto", Store: store,
	})

	store.FailWith(errors.New("timeout"))
	assert.False(t, p.HasChanged(context.Background()))
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "string", param.TypeString.String())
	assert.Equal(t, "int", param.TypeInt.String())
	assert.Equal(t, "float", param.TypeFloat.String())
	assert.Equal(t, "bool", param.TypeBool.String())
	assert.Equal(t, "unknown", param.TypeUnknown.String())
	assert.Equal(t, "unknown", param.Type(99).String())
}
