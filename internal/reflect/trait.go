package reflect

import (
	"reflect"
	"runtime"
)

// In marks a struct as a parameter object: each of its fields is resolved
// as a separate dependency.
type In struct{}

var inType = reflect.TypeOf(In{})

func IsParameterObject(t reflect.Type) bool {
	if t == nil || t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == inType {
			return true
		}
	}
	return false
}

func HasInjectFields(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		if tag, ok := t.Field(i).Tag.Lookup(TagKey); ok && tag != "-" {
			return true
		}
	}
	return false
}

// DeclaresMethod reports whether t (or *t) satisfies iface through a method
// of its own rather than the one promoted from an embedded base. Interface
// types declare nothing.
func DeclaresMethod(t reflect.Type, name string, iface, base reflect.Type) bool {
	if t == nil || t.Kind() == reflect.Interface || !implements(t, iface) {
		return false
	}
	if t == base || t == reflect.PointerTo(base) {
		return false
	}

	m, ok := methodOf(t, name)
	if !ok || !generated(m) {
		return true
	}

	provided := false
	for _, ft := range embeddedProviders(t, name) {
		if ft == base || ft == reflect.PointerTo(base) {
			continue
		}
		if DeclaresMethod(ft, name, iface, base) {
			return true
		}
		provided = true
	}
	if provided {
		return false
	}
	// Pointer wrapper around a value method declared on the element type.
	return !embedsType(t, base)
}

func implements(t, iface reflect.Type) bool {
	if t.Implements(iface) {
		return true
	}
	return t.Kind() != reflect.Ptr && t.Kind() != reflect.Interface && reflect.PointerTo(t).Implements(iface)
}

func methodOf(t reflect.Type, name string) (reflect.Method, bool) {
	if t.Kind() == reflect.Ptr {
		if m, ok := t.Elem().MethodByName(name); ok {
			return m, true
		}
		return t.MethodByName(name)
	}
	if m, ok := t.MethodByName(name); ok {
		return m, true
	}
	return reflect.PointerTo(t).MethodByName(name)
}

func generated(m reflect.Method) bool {
	if !m.Func.IsValid() {
		return false
	}
	pc := m.Func.Pointer()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return false
	}
	file, _ := fn.FileLine(fn.Entry())
	return file == "<autogenerated>"
}

func embeddedProviders(t reflect.Type, name string) []reflect.Type {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var providers []reflect.Type
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		if _, ok := methodOf(f.Type, name); ok {
			providers = append(providers, f.Type)
		}
	}
	return providers
}

func embedsType(t, base reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		if ft == base || ft == reflect.PointerTo(base) || embedsType(ft, base) {
			return true
		}
	}
	return false
}
