package stitch

import (
	"context"
	"reflect"

	ireflect "github.com/danpasecinic/stitch/internal/reflect"
)

// Invoke resolves T. T may be a bound type or any representation of one:
// *S for a binding of S, Owned[T], Counted[T], *Counted[T], Provider[T] or
// Named[T].
func Invoke[T any](i *Injector) (T, error) {
	return InvokeNamedCtx[T](context.Background(), i, "")
}

func InvokeCtx[T any](ctx context.Context, i *Injector) (T, error) {
	return InvokeNamedCtx[T](ctx, i, "")
}

func InvokeNamed[T any](i *Injector, name string) (T, error) {
	return InvokeNamedCtx[T](context.Background(), i, name)
}

func InvokeNamedCtx[T any](ctx context.Context, i *Injector, name string) (T, error) {
	var zero T

	edge, err := i.internal.Plan(ireflect.TypeOf[T](), name)
	if err != nil {
		return zero, wrapError(err)
	}

	v, err := i.internal.Resolve(ctx, edge)
	if err != nil {
		return zero, wrapError(err)
	}
	return valueAs[T](v), nil
}

func valueAs[T any](v reflect.Value) T {
	var out T
	if v.IsValid() {
		reflect.ValueOf(&out).Elem().Set(v)
	}
	return out
}

func MustInvoke[T any](i *Injector) T {
	v, err := Invoke[T](i)
	if err != nil {
		panic(err)
	}
	return v
}

func MustInvokeCtx[T any](ctx context.Context, i *Injector) T {
	v, err := InvokeCtx[T](ctx, i)
	if err != nil {
		panic(err)
	}
	return v
}

func MustInvokeNamed[T any](i *Injector, name string) T {
	v, err := InvokeNamed[T](i, name)
	if err != nil {
		panic(err)
	}
	return v
}

func TryInvoke[T any](i *Injector) (T, bool) {
	v, err := Invoke[T](i)
	return v, err == nil
}

func TryInvokeNamed[T any](i *Injector, name string) (T, bool) {
	v, err := InvokeNamed[T](i, name)
	return v, err == nil
}

// Has reports whether T is bound in i or one of its ancestors. Types that
// would be constructed implicitly are not reported.
func Has[T any](i *Injector) bool {
	return i.internal.Has(ireflect.TypeOf[T](), "")
}

func HasNamed[T any](i *Injector, name string) bool {
	return i.internal.Has(ireflect.TypeOf[T](), name)
}

type Optional[T any] struct {
	value   T
	present bool
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

func (o Optional[T]) Value() T {
	return o.value
}

func (o Optional[T]) Present() bool {
	return o.present
}

func (o Optional[T]) OrElse(defaultValue T) T {
	if o.present {
		return o.value
	}
	return defaultValue
}

func (o Optional[T]) OrElseFunc(fn func() T) T {
	if o.present {
		return o.value
	}
	return fn()
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, present: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

// InvokeOptional resolves T only when it is bound. Resolution errors are
// reported as absence.
func InvokeOptional[T any](i *Injector) Optional[T] {
	return InvokeOptionalCtx[T](context.Background(), i)
}

func InvokeOptionalCtx[T any](ctx context.Context, i *Injector) Optional[T] {
	return InvokeOptionalNamedCtx[T](ctx, i, "")
}

func InvokeOptionalNamed[T any](i *Injector, name string) Optional[T] {
	return InvokeOptionalNamedCtx[T](context.Background(), i, name)
}

func InvokeOptionalNamedCtx[T any](ctx context.Context, i *Injector, name string) Optional[T] {
	if !HasNamed[T](i, name) {
		return None[T]()
	}

	v, err := InvokeNamedCtx[T](ctx, i, name)
	if err != nil {
		return None[T]()
	}
	return Some(v)
}
