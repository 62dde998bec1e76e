package stitch

import (
	"context"

	"github.com/danpasecinic/stitch/internal/container"
)

// Preload builds every shared instance declared on i, dependencies first.
// Resolution afterwards never runs their providers.
func (i *Injector) Preload(ctx context.Context) error {
	if err := i.internal.Preload(ctx); err != nil {
		return wrapError(err)
	}
	return nil
}

// Close releases the shared instances declared on i, in reverse dependency
// order, and ends all of i's sessions. An instance still held through a
// Counted handle is disposed when the last handle is released. Children are
// not closed, but they can no longer resolve anything that i owns.
func (i *Injector) Close() error {
	if err := i.internal.Close(); err != nil {
		return errDisposeFailed(err)
	}
	return nil
}

// EndSession disposes the session instances created for token, in i and in
// its ancestors. It reports whether any session was found.
func (i *Injector) EndSession(token any) bool {
	ended := false
	for cur := i; cur != nil; cur = cur.parent {
		if cur.internal.EndSession(token) {
			ended = true
		}
	}
	return ended
}

func (i *Injector) Closed() bool {
	return i.internal.State() == container.StateClosed
}
