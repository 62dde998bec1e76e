package stitch

import "log/slog"

// Option configures the injector. Options are declarations and can be passed
// to New alongside bindings.
type Option func(*injectorConfig)

func (o Option) declare(b *Binder) error {
	o(b.cfg)
	return nil
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *injectorConfig) {
		if logger == nil {
			logger = slog.Default()
		}
		cfg.logger = logger
	}
}

func WithResolveObserver(hook ResolveHook) Option {
	return func(cfg *injectorConfig) {
		cfg.onResolve = append(cfg.onResolve, hook)
	}
}

func WithProvideObserver(hook ProvideHook) Option {
	return func(cfg *injectorConfig) {
		cfg.onProvide = append(cfg.onProvide, hook)
	}
}

func WithDisposeObserver(hook DisposeHook) Option {
	return func(cfg *injectorConfig) {
		cfg.onDispose = append(cfg.onDispose, hook)
	}
}
