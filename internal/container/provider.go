package container

import (
	"context"
	"fmt"
	"reflect"

	ireflect "github.com/danpasecinic/stitch/internal/reflect"
	"github.com/danpasecinic/stitch/internal/scope"
)

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

type dependency struct {
	Type     reflect.Type
	Name     string
	Optional bool
	Field    int
}

type argument struct {
	typ    reflect.Type
	ctx    bool
	object bool
	deps   []dependency
}

// provider builds the raw instance once every dependency has been decided.
type provider struct {
	kind     Kind
	fn       *ireflect.Func
	args     []argument
	out      reflect.Type
	structT  reflect.Type
	ptr      bool
	fields   []dependency
	external reflect.Value
}

func (p *provider) dependencies() []dependency {
	if p.kind == KindStruct {
		return p.fields
	}
	var deps []dependency
	for _, a := range p.args {
		deps = append(deps, a.deps...)
	}
	return deps
}

func FuncBinding(fn any, name string, s scope.Scope) (*Binding, error) {
	f, err := ireflect.InspectFunc(fn)
	if err != nil {
		return nil, newError(fmt.Sprintf("%T", fn), nil, fmt.Errorf("%w: %w", ErrInvalidBinding, err))
	}
	key := Key{Type: f.Out, Name: name}
	if s == scope.External {
		return nil, newError(key.String(), nil, fmt.Errorf("%w: constructors cannot have external scope", ErrInvalidBinding))
	}

	p := &provider{kind: KindFunc, fn: f, out: f.Out}
	for _, pt := range f.Params {
		switch {
		case pt == contextType:
			p.args = append(p.args, argument{typ: pt, ctx: true})
		case ireflect.IsParameterObject(pt):
			fields, err := ireflect.StructFields(pt, true)
			if err != nil {
				return nil, newError(key.String(), nil, fmt.Errorf("%w: %w", ErrInvalidBinding, err))
			}
			p.args = append(p.args, argument{typ: pt, object: true, deps: fieldDependencies(fields)})
		default:
			p.args = append(p.args, argument{typ: pt, deps: []dependency{{Type: pt, Field: -1}}})
		}
	}

	return &Binding{Key: key, Scope: s, Kind: KindFunc, Target: f.Out, prov: p}, nil
}

func StructBinding(t reflect.Type, name string, s scope.Scope) (*Binding, error) {
	key := Key{Type: t, Name: name}
	if s == scope.External {
		return nil, newError(key.String(), nil, fmt.Errorf("%w: struct bindings cannot have external scope", ErrInvalidBinding))
	}
	p, err := structProvider(t)
	if err != nil {
		return nil, newError(key.String(), nil, err)
	}
	return &Binding{Key: key, Scope: s, Kind: KindStruct, Target: t, prov: p}, nil
}

func AliasBinding(iface, impl reflect.Type, name string, s scope.Scope) (*Binding, error) {
	key := Key{Type: iface, Name: name}
	if iface == impl {
		return nil, newError(key.String(), nil, fmt.Errorf("%w: type bound to itself", ErrInvalidBinding))
	}
	if !impl.AssignableTo(iface) {
		return nil, newError(key.String(), nil, fmt.Errorf("%w: %s does not implement %s", ErrInvalidBinding, impl, iface))
	}
	if s == scope.External {
		return nil, newError(key.String(), nil, fmt.Errorf("%w: aliases cannot have external scope", ErrInvalidBinding))
	}
	return &Binding{Key: key, Scope: s, Kind: KindAlias, Target: impl}, nil
}

func ExternalBinding(t reflect.Type, v reflect.Value, name string) (*Binding, error) {
	key := Key{Type: t, Name: name}
	if !v.IsValid() || !v.Type().AssignableTo(t) {
		return nil, newError(key.String(), nil, fmt.Errorf("%w: external value is not a %s", ErrInvalidBinding, t))
	}
	cell := reflect.New(t)
	cell.Elem().Set(v)
	p := &provider{kind: KindExternal, out: t, external: cell}
	return &Binding{Key: key, Scope: scope.External, Kind: KindExternal, Target: t, prov: p}, nil
}

func structProvider(t reflect.Type) (*provider, error) {
	if !ireflect.Constructible(t) {
		return nil, fmt.Errorf("%w: %s has no constructor and is not a struct", ErrUnresolvable, t)
	}
	fields, err := ireflect.StructFields(t, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBinding, err)
	}

	p := &provider{kind: KindStruct, out: t, structT: t, fields: fieldDependencies(fields)}
	if t.Kind() == reflect.Ptr {
		p.ptr = true
		p.structT = t.Elem()
	}
	return p, nil
}

func fieldDependencies(fields []ireflect.Field) []dependency {
	deps := make([]dependency, len(fields))
	for i, f := range fields {
		deps[i] = dependency{Type: f.Type, Name: f.Named, Optional: f.Optional, Field: f.Index}
	}
	return deps
}

// call runs the provider with already converted dependency values, given in
// the order of dependencies().
func (p *provider) call(ctx context.Context, values []reflect.Value) (reflect.Value, error) {
	switch p.kind {
	case KindStruct:
		sv := reflect.New(p.structT)
		for i, dep := range p.fields {
			sv.Elem().Field(dep.Field).Set(values[i])
		}
		if p.ptr {
			return sv, nil
		}
		return sv.Elem(), nil

	case KindFunc:
		in := make([]reflect.Value, len(p.args))
		next := 0
		for i, a := range p.args {
			switch {
			case a.ctx:
				in[i] = reflect.ValueOf(&ctx).Elem()
			case a.object:
				obj := reflect.New(a.typ).Elem()
				for _, dep := range a.deps {
					obj.Field(dep.Field).Set(values[next])
					next++
				}
				in[i] = obj
			default:
				in[i] = values[next]
				next++
			}
		}

		out := p.fn.Value.Call(in)
		if p.fn.HasErr && !out[1].IsNil() {
			return reflect.Value{}, out[1].Interface().(error)
		}
		return out[0], nil

	default:
		return p.external.Elem(), nil
	}
}
