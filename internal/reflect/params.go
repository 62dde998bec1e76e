package reflect

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

const TagKey = "stitch"

var (
	ErrNotFunc        = errors.New("constructor must be a function")
	ErrBadResults     = errors.New("constructor must return T or (T, error)")
	ErrVariadic       = errors.New("variadic constructors are not supported")
	ErrNotStruct      = errors.New("type is not a struct")
	ErrUnexportedSlot = errors.New("tagged field is unexported")

	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

type Func struct {
	Value  reflect.Value
	Params []reflect.Type
	Out    reflect.Type
	HasErr bool
}

func InspectFunc(fn any) (*Func, error) {
	if fn == nil {
		return nil, ErrNotFunc
	}

	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w, got %s", ErrNotFunc, t)
	}
	if v.IsNil() {
		return nil, ErrNotFunc
	}
	if t.IsVariadic() {
		return nil, fmt.Errorf("%w: %s", ErrVariadic, t)
	}

	f := &Func{Value: v}
	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != errorType {
			return nil, fmt.Errorf("%w: %s", ErrBadResults, t)
		}
		f.HasErr = true
	default:
		return nil, fmt.Errorf("%w: %s", ErrBadResults, t)
	}
	f.Out = t.Out(0)
	if f.Out == errorType {
		return nil, fmt.Errorf("%w: %s", ErrBadResults, t)
	}

	f.Params = make([]reflect.Type, t.NumIn())
	for i := range f.Params {
		f.Params[i] = t.In(i)
	}
	return f, nil
}

type Field struct {
	Name     string
	Index    int
	Type     reflect.Type
	Named    string
	Optional bool
}

// StructFields lists the injectable fields of a struct type. With all set,
// every exported field counts (parameter objects); otherwise only fields
// carrying the tag do.
func StructFields(t reflect.Type, all bool) ([]Field, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrNotStruct, t)
	}

	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type == inType {
			continue
		}

		tag, tagged := sf.Tag.Lookup(TagKey)
		if tag == "-" || (!tagged && !all) {
			continue
		}
		if !sf.IsExported() {
			if tagged {
				return nil, fmt.Errorf("%w: %s.%s", ErrUnexportedSlot, t, sf.Name)
			}
			continue
		}

		name, optional := ParseTag(tag)
		fields = append(
			fields, Field{
				Name:     sf.Name,
				Index:    i,
				Type:     sf.Type,
				Named:    name,
				Optional: optional,
			},
		)
	}
	return fields, nil
}

func ParseTag(tag string) (name string, optional bool) {
	parts := strings.Split(tag, ",")
	name = strings.TrimSpace(parts[0])
	for _, opt := range parts[1:] {
		if strings.TrimSpace(opt) == "optional" {
			optional = true
		}
	}
	return name, optional
}
