// Package param provides runtime-tunable node parameters backed by an
// external store.
package param

import (
	"context"
	"errors"
	"reflect"
	"sync"
)

// ErrParameterNotFound is returned by a Store when the parameter does not
// exist there. Any other error means the store was unreachable.
var ErrParameterNotFound = errors.New("parameter not found")

// Type tags the kind of value a parameter holds.
type Type int

// Recognized parameter types.
const (
	TypeUnknown Type = iota
	TypeString
	TypeInt
	TypeFloat
	TypeBool
)

// String returns the lowercase tag name.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Options carries type-specific parameter metadata.
type Options struct {
	MinValue *float64 `json:"min_value,omitempty"`
	MaxValue *float64 `json:"max_value,omitempty"`
	Editable bool     `json:"editable"`
}

// Descriptor describes one registered parameter for remote enumeration.
type Descriptor struct {
	Node string `json:"node"`
	Name string `json:"name"`
	Type int    `json:"type"`
	Options
}

// Store is the external parameter store. Get returns the current value of
// a parameter, ErrParameterNotFound if the store does not know it, or a
// transport error if the store is unreachable. Get may block on a network
// round-trip; callers pass a context accordingly.
type Store interface {
	Get(ctx context.Context, name string) (any, error)
}

// Parameter is a handle on one named, typed, externally-stored value.
type Parameter struct {
	name  string
	typ   Type
	opts  Options
	store Store

	mu    sync.RWMutex
	value any
}

// Config holds construction arguments for a Parameter.
type Config struct {
	Name    string
	Type    Type
	Default any
	Store   Store
	Options Options
}

// New creates a parameter handle seeded with the configured default value.
func New(cfg Config) *Parameter {
	return &Parameter{
		name:  cfg.Name,
		typ:   cfg.Type,
		opts:  cfg.Options,
		store: cfg.Store,
		value: cfg.Default,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string { return p.name }

// Type returns the parameter type tag.
func (p *Parameter) Type() Type { return p.typ }

// Options returns the parameter metadata.
func (p *Parameter) Options() Options { return p.opts }

// Value returns the current local value.
func (p *Parameter) Value() any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Descriptor returns the wire representation of the handle. The Node field
// is filled in by the supervisor.
func (p *Parameter) Descriptor() Descriptor {
	return Descriptor{
		Name:    p.name,
		Type:    int(p.typ),
		Options: p.opts,
	}
}

// HasChanged fetches the value from the store and reports whether it
// differs from the local value. Store failures count as unchanged.
func (p *Parameter) HasChanged(ctx context.Context) bool {
	remote, err := p.store.Get(ctx, p.name)
	if err != nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !reflect.DeepEqual(p.value, remote)
}

// ForceUpdate eagerly re-fetches the value from the store and replaces the
// local value. The error is the store's: ErrParameterNotFound when the
// parameter no longer exists there, anything else when the store was
// unreachable.
func (p *Parameter) ForceUpdate(ctx context.Context) error {
	remote, err := p.store.Get(ctx, p.name)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.value = remote
	p.mu.Unlock()
	return nil
}
