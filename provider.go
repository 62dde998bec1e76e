package stitch

import (
	"reflect"

	"github.com/danpasecinic/stitch/internal/container"
	"github.com/danpasecinic/stitch/internal/convert"
	ireflect "github.com/danpasecinic/stitch/internal/reflect"
)

// Declaration is anything that contributes to an injector: bindings, modules
// and options.
type Declaration interface {
	declare(b *Binder) error
}

type declareFunc func(b *Binder) error

func (f declareFunc) declare(b *Binder) error {
	return f(b)
}

type (
	// Owned is the exclusive owner of a unique instance. Release disposes it.
	Owned[T any] = convert.Owned[T]

	// Counted shares an instance. The instance is disposed after the last
	// handle is released and the owning injector no longer holds it.
	Counted[T any] = convert.Counted[T]

	// Named carries the name that selected the injected value.
	Named[T any] = convert.Named[T]

	// Provider resolves T lazily, on every call.
	Provider[T any] = convert.Provider[T]

	// In marks a struct as a parameter object when embedded.
	In = ireflect.In
)

// Single is the legacy name for Owned.
//
// Deprecated: use Owned.
type Single[T any] = convert.Owned[T]

type BindingOption func(*bindingConfig)

type bindingConfig struct {
	name  string
	scope Scope
}

func newBindingConfig(opts []BindingOption) *bindingConfig {
	cfg := &bindingConfig{scope: Deduce}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func WithName(name string) BindingOption {
	return func(cfg *bindingConfig) {
		cfg.name = name
	}
}

// WithScope fixes the scope of a binding. Without it the scope is deduced from
// how each dependent asks for the type.
func WithScope(s Scope) BindingOption {
	return func(cfg *bindingConfig) {
		cfg.scope = s
	}
}

// Provide binds the result type of constructor. The constructor may take a
// context.Context, parameter objects embedding In, and any resolvable type,
// and returns T or (T, error).
func Provide(constructor any, opts ...BindingOption) Declaration {
	return declareFunc(
		func(b *Binder) error {
			cfg := newBindingConfig(opts)
			cb, err := container.FuncBinding(constructor, cfg.name, cfg.scope)
			if err != nil {
				return wrapError(err)
			}
			return b.add(cb)
		},
	)
}

// Bind serves requests for I with the implementation T. T is resolved like
// any other dependency, so it may be bound itself or constructed from its
// tagged fields.
func Bind[I, T any](opts ...BindingOption) Declaration {
	return declareFunc(
		func(b *Binder) error {
			cfg := newBindingConfig(opts)
			cb, err := container.AliasBinding(ireflect.TypeOf[I](), ireflect.TypeOf[T](), cfg.name, cfg.scope)
			if err != nil {
				return wrapError(err)
			}
			return b.add(cb)
		},
	)
}

// External binds an instance the injector neither constructs nor disposes.
func External[T any](value T, opts ...BindingOption) Declaration {
	return declareFunc(
		func(b *Binder) error {
			cfg := newBindingConfig(opts)
			if cfg.scope != Deduce {
				return errInvalidBinding("external bindings cannot take a scope").
					WithService(ireflect.NamedKey(ireflect.TypeOf[T](), cfg.name))
			}
			cb, err := container.ExternalBinding(ireflect.TypeOf[T](), reflect.ValueOf(&value).Elem(), cfg.name)
			if err != nil {
				return wrapError(err)
			}
			return b.add(cb)
		},
	)
}
