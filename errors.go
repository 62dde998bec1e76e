package stitch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danpasecinic/stitch/internal/container"
)

type ErrorCode uint16

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeUnresolvable
	ErrCodeCircularDependency
	ErrCodeAmbiguousBinding
	ErrCodeDuplicateBinding
	ErrCodeScopeMismatch
	ErrCodeCaptiveDependency
	ErrCodeInvalidBinding
	ErrCodeProviderFailed
	ErrCodeSessionRequired
	ErrCodeModuleFailed
	ErrCodeInjectorClosed
	ErrCodeValidationFailed
	ErrCodeDisposeFailed
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:            "UNKNOWN",
	ErrCodeUnresolvable:       "UNRESOLVABLE",
	ErrCodeCircularDependency: "CIRCULAR_DEPENDENCY",
	ErrCodeAmbiguousBinding:   "AMBIGUOUS_BINDING",
	ErrCodeDuplicateBinding:   "DUPLICATE_BINDING",
	ErrCodeScopeMismatch:      "SCOPE_MISMATCH",
	ErrCodeCaptiveDependency:  "CAPTIVE_DEPENDENCY",
	ErrCodeInvalidBinding:     "INVALID_BINDING",
	ErrCodeProviderFailed:     "PROVIDER_FAILED",
	ErrCodeSessionRequired:    "SESSION_REQUIRED",
	ErrCodeModuleFailed:       "MODULE_FAILED",
	ErrCodeInjectorClosed:     "INJECTOR_CLOSED",
	ErrCodeValidationFailed:   "VALIDATION_FAILED",
	ErrCodeDisposeFailed:      "DISPOSE_FAILED",
}

var codeMessages = map[ErrorCode]string{
	ErrCodeUnresolvable:       "no binding or construction for dependency",
	ErrCodeCircularDependency: "dependency graph has a cycle",
	ErrCodeAmbiguousBinding:   "more than one binding matches",
	ErrCodeDuplicateBinding:   "binding declared twice",
	ErrCodeScopeMismatch:      "requested representation does not fit the scope",
	ErrCodeCaptiveDependency:  "shared instance would capture a session instance",
	ErrCodeInvalidBinding:     "invalid binding",
	ErrCodeProviderFailed:     "provider returned error",
	ErrCodeSessionRequired:    "no session token in context",
	ErrCodeInjectorClosed:     "injector is closed",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", c)
}

type Error struct {
	Code    ErrorCode
	Message string
	Service string
	Cause   error
	Stack   []string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]", e.Code))

	if e.Service != "" {
		b.WriteString(fmt.Sprintf(" service=%q:", e.Service))
	}

	b.WriteString(" ")
	b.WriteString(e.Message)

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) WithService(service string) *Error {
	e.Service = service
	return e
}

func (e *Error) WithStack(stack []string) *Error {
	e.Stack = stack
	return e
}

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// wrapError turns errors from the internal packages into coded errors. Joined
// errors are mapped one by one and errors from user code are left as they are.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs := joined.Unwrap()
		mapped := make([]error, 0, len(errs))
		for _, e := range errs {
			mapped = append(mapped, wrapError(e))
		}
		if len(mapped) == 1 {
			return mapped[0]
		}
		return errors.Join(mapped...)
	}

	var coded *Error
	if errors.As(err, &coded) {
		return err
	}

	code := codeOf(err)
	if code == ErrCodeUnknown {
		return err
	}
	e := newError(code, codeMessages[code], err)

	var ie *container.Error
	if errors.As(err, &ie) {
		e.Service = ie.Key
		e.Stack = ie.Path
	}
	return e
}

func codeOf(err error) ErrorCode {
	switch {
	case errors.Is(err, container.ErrProvider):
		return ErrCodeProviderFailed
	case errors.Is(err, container.ErrClosed):
		return ErrCodeInjectorClosed
	case errors.Is(err, container.ErrSessionRequired):
		return ErrCodeSessionRequired
	case errors.Is(err, container.ErrCycle):
		return ErrCodeCircularDependency
	case errors.Is(err, container.ErrAmbiguous):
		return ErrCodeAmbiguousBinding
	case errors.Is(err, container.ErrDuplicate):
		return ErrCodeDuplicateBinding
	case errors.Is(err, container.ErrCaptive):
		return ErrCodeCaptiveDependency
	case errors.Is(err, container.ErrScopeMismatch):
		return ErrCodeScopeMismatch
	case errors.Is(err, container.ErrInvalidBinding):
		return ErrCodeInvalidBinding
	case errors.Is(err, container.ErrUnresolvable):
		return ErrCodeUnresolvable
	default:
		return ErrCodeUnknown
	}
}

func errModuleFailed(module string, cause error) *Error {
	return newError(
		ErrCodeModuleFailed,
		"failed to configure module "+module,
		cause,
	).WithService(module)
}

func errValidationFailed(cause error) *Error {
	return newError(ErrCodeValidationFailed, "injector validation failed", cause)
}

func errDisposeFailed(cause error) *Error {
	return newError(ErrCodeDisposeFailed, "failed to dispose instances", cause)
}

func errInvalidBinding(message string) *Error {
	return newError(ErrCodeInvalidBinding, message, nil)
}

func hasCode(err error, code ErrorCode) bool {
	return errors.Is(err, &Error{Code: code})
}

func IsUnresolvable(err error) bool {
	return hasCode(err, ErrCodeUnresolvable)
}

func IsCircularDependency(err error) bool {
	return hasCode(err, ErrCodeCircularDependency)
}

func IsAmbiguousBinding(err error) bool {
	return hasCode(err, ErrCodeAmbiguousBinding)
}

func IsDuplicateBinding(err error) bool {
	return hasCode(err, ErrCodeDuplicateBinding)
}

func IsScopeMismatch(err error) bool {
	return hasCode(err, ErrCodeScopeMismatch)
}

func IsCaptiveDependency(err error) bool {
	return hasCode(err, ErrCodeCaptiveDependency)
}

func IsInvalidBinding(err error) bool {
	return hasCode(err, ErrCodeInvalidBinding)
}

func IsProviderFailed(err error) bool {
	return hasCode(err, ErrCodeProviderFailed)
}

func IsSessionRequired(err error) bool {
	return hasCode(err, ErrCodeSessionRequired)
}

func IsModuleFailed(err error) bool {
	return hasCode(err, ErrCodeModuleFailed)
}

func IsInjectorClosed(err error) bool {
	return hasCode(err, ErrCodeInjectorClosed)
}

func IsValidationFailed(err error) bool {
	return hasCode(err, ErrCodeValidationFailed)
}

func IsDisposeFailed(err error) bool {
	return hasCode(err, ErrCodeDisposeFailed)
}
