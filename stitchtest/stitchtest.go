// Package stitchtest provides helpers for building injectors in tests.
package stitchtest

import (
	"context"
	"reflect"

	"github.com/danpasecinic/stitch"
)

type TB interface {
	Helper()
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Cleanup(f func())
}

type TestInjector struct {
	*stitch.Injector
	tb TB
}

// New builds an injector and closes it when the test finishes. Any build
// error fails the test.
func New(tb TB, decls ...stitch.Declaration) *TestInjector {
	tb.Helper()

	inj, err := stitch.New(decls...)
	if err != nil {
		tb.Fatalf("failed to build injector: %v", err)
		return nil
	}
	return wrap(tb, inj)
}

func wrap(tb TB, inj *stitch.Injector) *TestInjector {
	tb.Cleanup(func() {
		if err := inj.Close(); err != nil {
			tb.Fatalf("failed to close injector: %v", err)
		}
	})
	return &TestInjector{Injector: inj, tb: tb}
}

// Override builds a child of ti whose declarations take precedence. Bindings
// planned by the parent keep the dependencies they were planned with, so
// declare a dependent again to have it pick up a replacement.
func Override(ti *TestInjector, decls ...stitch.Declaration) *TestInjector {
	ti.tb.Helper()

	child, err := ti.Child(decls...)
	if err != nil {
		ti.tb.Fatalf("failed to build override: %v", err)
		return nil
	}
	return wrap(ti.tb, child)
}

// Replace overrides T with a fixed value.
func Replace[T any](ti *TestInjector, value T) *TestInjector {
	ti.tb.Helper()
	return Override(ti, stitch.External(value))
}

func ReplaceNamed[T any](ti *TestInjector, name string, value T) *TestInjector {
	ti.tb.Helper()
	return Override(ti, stitch.External(value, stitch.WithName(name)))
}

func (ti *TestInjector) RequireValidate() {
	ti.tb.Helper()

	if err := ti.Validate(); err != nil {
		ti.tb.Fatalf("injector validation failed: %v", err)
	}
}

func (ti *TestInjector) RequirePreload(ctx context.Context) {
	ti.tb.Helper()

	if err := ti.Preload(ctx); err != nil {
		ti.tb.Fatalf("failed to preload injector: %v", err)
	}
}

func (ti *TestInjector) RequireClose() {
	ti.tb.Helper()

	if err := ti.Close(); err != nil {
		ti.tb.Fatalf("failed to close injector: %v", err)
	}
}

func AssertHas[T any](ti *TestInjector) {
	ti.tb.Helper()

	if !stitch.Has[T](ti.Injector) {
		ti.tb.Fatalf("expected injector to have %s", typeName[T](""))
	}
}

func AssertHasNamed[T any](ti *TestInjector, name string) {
	ti.tb.Helper()

	if !stitch.HasNamed[T](ti.Injector, name) {
		ti.tb.Fatalf("expected injector to have %s", typeName[T](name))
	}
}

func AssertNotHas[T any](ti *TestInjector) {
	ti.tb.Helper()

	if stitch.Has[T](ti.Injector) {
		ti.tb.Fatalf("expected injector to not have %s", typeName[T](""))
	}
}

func MustInvoke[T any](ti *TestInjector) T {
	ti.tb.Helper()
	return MustInvokeCtx[T](context.Background(), ti)
}

func MustInvokeCtx[T any](ctx context.Context, ti *TestInjector) T {
	ti.tb.Helper()

	v, err := stitch.InvokeCtx[T](ctx, ti.Injector)
	if err != nil {
		ti.tb.Fatalf("failed to invoke %s: %v", typeName[T](""), err)
	}
	return v
}

func MustInvokeNamed[T any](ti *TestInjector, name string) T {
	ti.tb.Helper()

	v, err := stitch.InvokeNamed[T](ti.Injector, name)
	if err != nil {
		ti.tb.Fatalf("failed to invoke %s: %v", typeName[T](name), err)
	}
	return v
}

// Session returns a context carrying a fresh session token. The session ends
// when the test finishes.
func Session(ti *TestInjector) context.Context {
	ti.tb.Helper()

	token := new(int)
	ti.tb.Cleanup(func() { ti.EndSession(token) })
	return stitch.WithSession(context.Background(), token)
}

func typeName[T any](name string) string {
	s := reflect.TypeFor[T]().String()
	if name != "" {
		s += "#" + name
	}
	return s
}
