package convert

import (
	"context"
	"reflect"
	"sync/atomic"
)

type handle interface {
	form() Form
	elem() reflect.Type
	wrap(a *Allocation) reflect.Value
}

type annotation interface {
	annotated() reflect.Type
	annotate(name string, v reflect.Value) reflect.Value
}

type lazy interface {
	lazyElem() reflect.Type
	lazyBind(fn func(ctx context.Context) (reflect.Value, error)) reflect.Value
}

// Owned is the single owner of an instance. Copies of an Owned refer to the
// same ownership, so releasing any of them disposes the instance once.
type Owned[T any] struct {
	ptr *T
	own *owner
}

func (Owned[T]) form() Form { return FormOwned }

func (Owned[T]) elem() reflect.Type { return typeOf[T]() }

func (Owned[T]) wrap(a *Allocation) reflect.Value {
	return reflect.ValueOf(Owned[T]{ptr: a.Cell.Interface().(*T), own: a.own})
}

func (o Owned[T]) Get() T {
	return *o.ptr
}

func (o Owned[T]) Ptr() *T {
	return o.ptr
}

func (o Owned[T]) Valid() bool {
	return o.ptr != nil && o.own != nil && !o.own.settled.Load()
}

// Release disposes the instance. Further calls do nothing.
func (o Owned[T]) Release() {
	if o.own != nil {
		o.own.finish(Disposed)
	}
}

type countedRef[T any] struct {
	ptr      *T
	own      *owner
	released atomic.Bool
}

// Counted is a reference-counted handle. Each handle obtained from the
// injector or from Clone holds one reference and must be released once.
type Counted[T any] struct {
	ref *countedRef[T]
}

func (Counted[T]) form() Form { return FormCounted }

func (Counted[T]) elem() reflect.Type { return typeOf[T]() }

func (Counted[T]) wrap(a *Allocation) reflect.Value {
	return reflect.ValueOf(Counted[T]{ref: &countedRef[T]{ptr: a.Cell.Interface().(*T), own: a.own}})
}

func (c Counted[T]) Get() T {
	return *c.ref.ptr
}

func (c Counted[T]) Ptr() *T {
	if c.ref == nil {
		return nil
	}
	return c.ref.ptr
}

func (c Counted[T]) Valid() bool {
	return c.ref != nil && !c.ref.released.Load()
}

// Owning reports whether the handle keeps the instance alive. Handles to
// external instances never do.
func (c Counted[T]) Owning() bool {
	return c.ref != nil && c.ref.own != nil
}

func (c Counted[T]) UseCount() int64 {
	if c.ref == nil || c.ref.own == nil {
		return 0
	}
	return c.ref.own.refs.Load()
}

func (c Counted[T]) Clone() Counted[T] {
	if c.ref == nil {
		return c
	}
	if c.ref.own != nil {
		c.ref.own.acquire()
	}
	return Counted[T]{ref: &countedRef[T]{ptr: c.ref.ptr, own: c.ref.own}}
}

func (c Counted[T]) Release() {
	if c.ref == nil || !c.ref.released.CompareAndSwap(false, true) {
		return
	}
	if c.ref.own != nil {
		c.ref.own.release()
	}
}

// Named carries the annotation that selected Value.
type Named[T any] struct {
	Name  string
	Value T
}

func (Named[T]) annotated() reflect.Type { return typeOf[T]() }

func (Named[T]) annotate(name string, v reflect.Value) reflect.Value {
	return reflect.ValueOf(Named[T]{Name: name, Value: as[T](v)})
}

func (n Named[T]) Unwrap() T {
	return n.Value
}

// Provider resolves T each time it is called.
type Provider[T any] func(ctx context.Context) (T, error)

func (Provider[T]) lazyElem() reflect.Type { return typeOf[T]() }

func (Provider[T]) lazyBind(fn func(ctx context.Context) (reflect.Value, error)) reflect.Value {
	p := Provider[T](
		func(ctx context.Context) (T, error) {
			v, err := fn(ctx)
			if err != nil {
				var zero T
				return zero, err
			}
			return as[T](v), nil
		},
	)
	return reflect.ValueOf(p)
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func as[T any](v reflect.Value) T {
	var out T
	reflect.ValueOf(&out).Elem().Set(v)
	return out
}
