package stitch

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/danpasecinic/stitch/internal/container"
)

// Injector resolves dependencies from a set of declarations. All planning is
// done by New, so an injector that was built successfully only fails at
// resolution when a provider fails, a session token is missing or the
// injector has been closed.
type Injector struct {
	internal *container.Container
	config   *injectorConfig
	parent   *Injector
}

type injectorConfig struct {
	logger    *slog.Logger
	onResolve []ResolveHook
	onProvide []ProvideHook
	onDispose []DisposeHook
}

func (cfg *injectorConfig) clone() *injectorConfig {
	return &injectorConfig{
		logger:    cfg.logger,
		onResolve: slices.Clone(cfg.onResolve),
		onProvide: slices.Clone(cfg.onProvide),
		onDispose: slices.Clone(cfg.onDispose),
	}
}

// New builds an injector from declarations and plans every binding. All
// problems found are reported together.
func New(decls ...Declaration) (*Injector, error) {
	return build(nil, &injectorConfig{logger: slog.Default()}, decls)
}

func MustNew(decls ...Declaration) *Injector {
	inj, err := New(decls...)
	if err != nil {
		panic(err)
	}
	return inj
}

// Make builds an injector and resolves T from it. The injector is returned so
// the caller can close it.
func Make[T any](decls ...Declaration) (T, *Injector, error) {
	var zero T
	inj, err := New(decls...)
	if err != nil {
		return zero, nil, err
	}
	v, err := Invoke[T](inj)
	if err != nil {
		_ = inj.Close()
		return zero, nil, err
	}
	return v, inj, nil
}

func build(parent *Injector, cfg *injectorConfig, decls []Declaration) (*Injector, error) {
	b := newBinder(cfg)
	var errs []error
	if err := b.Declare(decls...); err != nil {
		errs = append(errs, wrapError(err))
	}

	var parentInternal *container.Container
	if parent != nil {
		parentInternal = parent.internal
	}

	internal := container.New(
		&container.Config{
			Logger:    cfg.logger,
			Parent:    parentInternal,
			OnResolve: cfg.onResolve,
			OnProvide: cfg.onProvide,
			OnDispose: cfg.onDispose,
		},
	)

	for _, cb := range b.bindings {
		if err := internal.Register(cb); err != nil {
			errs = append(errs, wrapError(err))
		}
	}

	if len(errs) == 0 {
		if err := internal.Compile(); err != nil {
			errs = append(errs, wrapError(err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	cfg.logger.Debug("injector built", "bindings", internal.Size(), "child", parent != nil)
	return &Injector{
		internal: internal,
		config:   cfg,
		parent:   parent,
	}, nil
}

func (i *Injector) Validate() error {
	if err := i.internal.Validate(); err != nil {
		return errValidationFailed(wrapError(err))
	}
	return nil
}

// Size is the number of bindings declared on this injector, not counting
// inherited ones.
func (i *Injector) Size() int {
	return i.internal.Size()
}

func (i *Injector) Keys() []string {
	return i.internal.Keys()
}

func (i *Injector) Parent() *Injector {
	return i.parent
}
