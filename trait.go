package stitch

import (
	ireflect "github.com/danpasecinic/stitch/internal/reflect"
)

// HasConfigure reports whether T declares its own Configure method. A
// Configure promoted from an embedded NoConfigure does not count.
func HasConfigure[T any]() bool {
	return ireflect.DeclaresMethod(ireflect.TypeOf[T](), "Configure", configurerType, noConfigureType)
}

func IsParameterObject[T any]() bool {
	return ireflect.IsParameterObject(ireflect.TypeOf[T]())
}

func HasInjectFields[T any]() bool {
	return ireflect.HasInjectFields(ireflect.TypeOf[T]())
}
