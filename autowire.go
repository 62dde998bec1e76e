package stitch

import (
	"github.com/danpasecinic/stitch/internal/container"
	ireflect "github.com/danpasecinic/stitch/internal/reflect"
)

// TagKey is the struct tag read for field injection. The tag value is
// "name,optional"; both parts may be empty and "-" skips the field.
const TagKey = ireflect.TagKey

// Self binds the struct type T (or *T) to its own construction: a zero value
// whose tagged fields are injected.
//
//	type UserService struct {
//	    DB    *Database `stitch:""`
//	    Log   *Logger   `stitch:"audit"`
//	    Cache *Cache    `stitch:",optional"`
//	}
//	stitch.Self[*UserService]()
func Self[T any](opts ...BindingOption) Declaration {
	return declareFunc(
		func(b *Binder) error {
			cfg := newBindingConfig(opts)
			cb, err := container.StructBinding(ireflect.TypeOf[T](), cfg.name, cfg.scope)
			if err != nil {
				return wrapError(err)
			}
			return b.add(cb)
		},
	)
}
