package stitch

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/danpasecinic/stitch/internal/container"
	ireflect "github.com/danpasecinic/stitch/internal/reflect"
)

// Configurer is implemented by modules that declare bindings in code.
type Configurer interface {
	Configure(b *Binder) error
}

// NoConfigure can be embedded by module types that have nothing to declare
// yet. Installing a module whose only Configure comes from NoConfigure is a
// no-op.
type NoConfigure struct{}

func (NoConfigure) Configure(*Binder) error { return nil }

var (
	configurerType  = reflect.TypeOf((*Configurer)(nil)).Elem()
	noConfigureType = reflect.TypeOf(NoConfigure{})
)

// Binder collects declarations while an injector is being built.
type Binder struct {
	cfg       *injectorConfig
	bindings  []*container.Binding
	installed map[any]struct{}
	module    string
}

func newBinder(cfg *injectorConfig) *Binder {
	return &Binder{
		cfg:       cfg,
		installed: make(map[any]struct{}),
	}
}

// Declare adds declarations. Every declaration is attempted and the failures
// are returned together.
func (b *Binder) Declare(decls ...Declaration) error {
	var errs []error
	for _, d := range decls {
		if d == nil {
			continue
		}
		if err := d.declare(b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Module reports the name of the module currently being configured.
func (b *Binder) Module() string {
	return b.module
}

func (b *Binder) add(cb *container.Binding) error {
	cb.Module = b.module
	b.bindings = append(b.bindings, cb)
	return nil
}

// enter marks key as installed and reports whether it was new.
func (b *Binder) enter(key any) bool {
	if _, ok := b.installed[key]; ok {
		return false
	}
	b.installed[key] = struct{}{}
	return true
}

func (b *Binder) within(module string, fn func() error) error {
	prev := b.module
	b.module = module
	defer func() { b.module = prev }()

	if err := fn(); err != nil {
		return errModuleFailed(module, wrapError(err))
	}
	return nil
}

// Module groups declarations under a name. Including a module more than once
// declares its bindings once.
type Module struct {
	name       string
	decls      []Declaration
	submodules []*Module
}

func NewModule(name string) *Module {
	return &Module{
		name: name,
	}
}

func (m *Module) Name() string {
	return m.name
}

func (m *Module) Add(decls ...Declaration) *Module {
	m.decls = append(m.decls, decls...)
	return m
}

func (m *Module) Include(submodules ...*Module) *Module {
	m.submodules = append(m.submodules, submodules...)
	return m
}

func (m *Module) declare(b *Binder) error {
	if !b.enter(m) {
		return nil
	}

	return b.within(
		m.name, func() error {
			var errs []error
			for _, sub := range m.submodules {
				if err := sub.declare(b); err != nil {
					errs = append(errs, err)
				}
			}
			if err := b.Declare(m.decls...); err != nil {
				errs = append(errs, err)
			}
			return errors.Join(errs...)
		},
	)
}

// Install declares the bindings of a Configurer module. Modules are matched
// by value, so installing the same module twice, including from a nested
// Configure, has no further effect.
func Install(module any) Declaration {
	return declareFunc(
		func(b *Binder) error {
			if module == nil {
				return errInvalidBinding("cannot install nil module")
			}
			if m, ok := module.(*Module); ok {
				return m.declare(b)
			}

			t := reflect.TypeOf(module)
			name := moduleName(t)
			if !ireflect.DeclaresMethod(t, "Configure", configurerType, noConfigureType) {
				b.cfg.logger.Debug("module declares nothing", "module", name)
				return nil
			}

			if t.Comparable() && !b.enter(module) {
				return nil
			}

			cfg, ok := module.(Configurer)
			if !ok {
				ptr := reflect.New(t)
				ptr.Elem().Set(reflect.ValueOf(module))
				cfg = ptr.Interface().(Configurer)
			}

			return b.within(
				name, func() error {
					return cfg.Configure(b)
				},
			)
		},
	)
}

func moduleName(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		return "*" + t.Elem().Name()
	}
	if t.Name() == "" {
		return fmt.Sprint(t)
	}
	return t.Name()
}
