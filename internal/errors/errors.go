// Package errors defines the two-tier error taxonomy of the runtime. Every
// failure surfaced to callers is either a runtime error (a resource or device
// operation failed) or a condition error (a precondition of the call was
// violated).
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrRuntime reports a failed device or resource operation.
	ErrRuntime = errors.New("runtime error")

	// ErrCondition reports a violated precondition such as a nil pointer or an
	// argument index out of range.
	ErrCondition = errors.New("condition error")
)

// Status codes exchanged across the kernel and device boundary.
const (
	StatusNone      = 0
	StatusRuntime   = -1
	StatusCondition = -2
)

// Conditionf returns an error that matches ErrCondition.
func Conditionf(format string, args ...any) error {
	return With(fmt.Errorf(format, args...), ErrCondition)
}

// Runtimef returns an error that matches ErrRuntime.
func Runtimef(format string, args ...any) error {
	return With(fmt.Errorf(format, args...), ErrRuntime)
}

// With returns an error that represents top wrapped on top of the base error.
// The message is the one of base; errors.Is and errors.As match either of them.
func With(base, top error) error {
	if base == nil && top == nil {
		return nil
	}
	if top == nil {
		return base
	}
	if base == nil {
		return top
	}
	return union{error: base, top: top}
}

type union struct {
	error
	top error
}

func (u union) Unwrap() []error {
	return []error{u.top, u.error}
}

// Status maps err onto the numeric status code of the taxonomy. Errors that
// are neither a condition nor a runtime error are reported as runtime errors.
func Status(err error) int {
	switch {
	case err == nil:
		return StatusNone
	case errors.Is(err, ErrCondition):
		return StatusCondition
	default:
		return StatusRuntime
	}
}

// FromStatus is the inverse of Status. Unknown non-zero codes map to ErrRuntime.
func FromStatus(status int) error {
	switch status {
	case StatusNone:
		return nil
	case StatusCondition:
		return ErrCondition
	default:
		return ErrRuntime
	}
}
