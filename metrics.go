package stitch

import (
	"github.com/danpasecinic/stitch/internal/container"
)

// ResolveHook observes every top-level resolution: the key requested, how
// long it took and the error, if any.
type ResolveHook = container.ResolveHook

// ProvideHook observes every provider call.
type ProvideHook = container.ProvideHook

// DisposeHook is called once per disposed instance. err is the Close error,
// if any.
type DisposeHook = container.DisposeHook
