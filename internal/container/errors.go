package container

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnresolvable    = errors.New("unresolvable dependency")
	ErrCycle           = errors.New("circular dependency")
	ErrAmbiguous       = errors.New("ambiguous binding")
	ErrDuplicate       = errors.New("duplicate binding")
	ErrScopeMismatch   = errors.New("representation incompatible with scope")
	ErrCaptive         = errors.New("shared instance captures session instance")
	ErrInvalidBinding  = errors.New("invalid binding")
	ErrProvider        = errors.New("provider failed")
	ErrSessionRequired = errors.New("session token required")
	ErrClosed          = errors.New("injector closed")
)

// Error ties a failure to the key being resolved and the chain of keys that
// led to it.
type Error struct {
	Key  string
	Path []string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Key)
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if len(e.Path) > 1 {
		fmt.Fprintf(&b, " (via %s)", strings.Join(e.Path, " -> "))
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(key string, path []string, err error) *Error {
	return &Error{Key: key, Path: append([]string(nil), path...), Err: err}
}

func cycleError(path []string) *Error {
	return &Error{
		Key:  path[0],
		Path: path,
		Err:  fmt.Errorf("%w: %s", ErrCycle, strings.Join(path, " -> ")),
	}
}
