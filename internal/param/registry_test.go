package param_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetnode/fleetnode/internal/param"
)

func newParam(name string) *param.Parameter {
	return param.New(param.Config{
		Name:  name,
		Type:  param.TypeString,
		Store: param.NewInMemoryStore(),
	})
}

func TestRegistry_RegistrationOrder(t *testing.T) {
	r := param.NewRegistry()
	for _, name := range []string{"c", "a", "b"} {
		r.Register(newParam(name))
	}

	descs := r.Descriptors()
	require.Len(t, descs, 3)
	assert.Equal(t, "c", descs[0].Name)
	assert.Equal(t, "a", descs[1].Name)
	assert.Equal(t, "b", descs[2].Name)
}

func TestRegistry_DuplicateKeepsPosition(t *testing.T) {
	r := param.NewRegistry()
	r.Register(newParam("first"))
	r.Register(newParam("second"))

	replacement := param.New(param.Config{
		Name: "first", Type: param.TypeInt, Store: param.NewInMemoryStore(),
	})
	r.Register(replacement)

	assert.Equal(t, 2, r.Len())
	descs := r.Descriptors()
	assert.Equal(t, "first", descs[0].Name)
	assert.Equal(t, int(param.TypeInt), descs[0].Type)

	p, ok := r.Get("first")
	require.True(t, ok)
	assert.Same(t, replacement, p)
}

func TestRegistry_GetAndHas(t *testing.T) {
	r := param.NewRegistry()
	assert.False(t, r.Has("missing"))

	p := newParam("present")
	r.Register(p)

	assert.True(t, r.Has("present"))
	got, ok := r.Get("present")
	require.True(t, ok)
	assert.Same(t, p, got)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_All(t *testing.T) {
	r := param.NewRegistry()
	r.Register(newParam("x"))
	r.Register(newParam("y"))

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "x", all[0].Name())
	assert.Equal(t, "y", all[1].Name())
}
