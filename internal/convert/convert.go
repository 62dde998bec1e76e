package convert

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	ireflect "github.com/danpasecinic/stitch/internal/reflect"
	"github.com/danpasecinic/stitch/internal/scope"
)

var (
	ErrOwnership = errors.New("representation requires exclusive ownership")
	ErrSettled   = errors.New("allocation already settled")
	ErrShape     = errors.New("allocation does not match requested type")
)

type Form uint8

const (
	FormValue Form = iota
	FormPointer
	FormOwned
	FormCounted
	FormCountedRef
)

func (f Form) String() string {
	switch f {
	case FormValue:
		return "value"
	case FormPointer:
		return "pointer"
	case FormOwned:
		return "owned"
	case FormCounted:
		return "counted"
	case FormCountedRef:
		return "counted-ref"
	default:
		return "unknown"
	}
}

// Descriptor is a requested type broken down into the bound element type and
// the representation wrapped around it.
type Descriptor struct {
	Type  reflect.Type
	Shape reflect.Type
	Elem  reflect.Type
	Form  Form
	Named bool
	Lazy  bool

	lazyType reflect.Type
}

func Describe(t reflect.Type) Descriptor {
	d := Descriptor{Type: t}
	cur := t

	if a, ok := zeroAs[annotation](cur); ok {
		d.Named = true
		cur = a.annotated()
	}
	if l, ok := zeroAs[lazy](cur); ok {
		d.Lazy = true
		d.lazyType = cur
		cur = l.lazyElem()
	}

	d.Shape = cur
	d.Form = FormValue
	d.Elem = cur

	if cur.Kind() == reflect.Ptr {
		if h, ok := zeroAs[handle](cur.Elem()); ok && h.form() == FormCounted {
			d.Form = FormCountedRef
			d.Elem = h.elem()
		}
		return d
	}
	if h, ok := zeroAs[handle](cur); ok {
		d.Form = h.form()
		d.Elem = h.elem()
	}
	return d
}

// Pointer reinterprets a request for *S as a pointer into an instance of S.
func (d Descriptor) Pointer() (Descriptor, bool) {
	if d.Form != FormValue || d.Elem.Kind() != reflect.Ptr {
		return d, false
	}
	d.Form = FormPointer
	d.Elem = d.Elem.Elem()
	return d, true
}

// Target strips the lazy and annotation layers.
func (d Descriptor) Target() Descriptor {
	if !d.Lazy && !d.Named {
		return d
	}
	inner := d
	inner.Type = d.Shape
	inner.Named = false
	inner.Lazy = false
	inner.lazyType = nil
	return inner
}

func (d Descriptor) Request() scope.Request {
	switch d.Form {
	case FormOwned:
		return scope.ByOwner
	case FormCounted, FormCountedRef:
		return scope.ByCounted
	case FormPointer:
		return scope.ByReference
	default:
		if ireflect.IsReference(d.Elem) {
			return scope.ByReference
		}
		return scope.ByValue
	}
}

func (d Descriptor) String() string {
	return d.Type.String()
}

// Annotate applies the Named layer, if requested.
func (d Descriptor) Annotate(name string, v reflect.Value) reflect.Value {
	if !d.Named {
		return v
	}
	a, _ := zeroAs[annotation](d.Type)
	return a.annotate(name, v)
}

// Defer builds the Provider value that resolves through fn.
func (d Descriptor) Defer(fn func(ctx context.Context) (reflect.Value, error)) reflect.Value {
	l, _ := zeroAs[lazy](d.lazyType)
	return l.lazyBind(fn)
}

type strategy func(d Descriptor, a *Allocation) (reflect.Value, error)

var strategies = [...]strategy{
	FormValue:      toValue,
	FormPointer:    toPointer,
	FormOwned:      toOwned,
	FormCounted:    toCounted,
	FormCountedRef: toCountedRef,
}

// Convert shapes an allocation into d's representation. Exactly one party
// ends up responsible for settling the allocation.
func Convert(d Descriptor, a *Allocation) (reflect.Value, error) {
	if a.Cell.Type().Elem() != d.Elem {
		return reflect.Value{}, fmt.Errorf("%w: have %s, want %s", ErrShape, a.Cell.Type().Elem(), d.Elem)
	}
	if a.Settled() {
		return reflect.Value{}, ErrSettled
	}
	return strategies[d.Form](d, a)
}

func toValue(d Descriptor, a *Allocation) (reflect.Value, error) {
	out := reflect.New(d.Elem).Elem()
	out.Set(a.Cell.Elem())
	if a.Mode == Transfer {
		a.own.finish(HandedOff)
	}
	return out, nil
}

func toPointer(_ Descriptor, a *Allocation) (reflect.Value, error) {
	if a.Mode == Transfer {
		a.own.finish(HandedOff)
	}
	return a.Cell, nil
}

func toOwned(d Descriptor, a *Allocation) (reflect.Value, error) {
	if a.Mode != Transfer {
		return reflect.Value{}, fmt.Errorf("%w: %s is held as %s", ErrOwnership, d.Elem, a.Mode)
	}
	h, _ := zeroAs[handle](d.Shape)
	return h.wrap(a), nil
}

func toCounted(d Descriptor, a *Allocation) (reflect.Value, error) {
	shape := d.Shape
	if d.Form == FormCountedRef {
		shape = shape.Elem()
	}
	h, _ := zeroAs[handle](shape)

	switch a.Mode {
	case Transfer:
		a.Mode = Refcount
		a.own.refs.Store(1)
	case Refcount:
		a.own.acquire()
	}
	return h.wrap(a), nil
}

func toCountedRef(d Descriptor, a *Allocation) (reflect.Value, error) {
	v, err := toCounted(d, a)
	if err != nil {
		return reflect.Value{}, err
	}
	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)
	return ptr, nil
}

func zeroAs[I any](t reflect.Type) (I, bool) {
	var none I
	if t == nil || t.Kind() == reflect.Ptr || t.Kind() == reflect.Interface {
		return none, false
	}
	i, ok := reflect.Zero(t).Interface().(I)
	return i, ok
}
