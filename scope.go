package stitch

import (
	"context"

	"github.com/danpasecinic/stitch/internal/scope"
)

type Scope = scope.Scope

const (
	Deduce  = scope.Deduce
	Unique  = scope.Unique
	Shared  = scope.Shared
	Session = scope.Session
)

// WithSession attaches a session token to ctx. Session-scoped bindings
// resolved with the returned context share one instance per token.
func WithSession(ctx context.Context, token any) context.Context {
	return scope.WithSession(ctx, token)
}

func SessionFrom(ctx context.Context) (any, bool) {
	return scope.SessionFrom(ctx)
}
