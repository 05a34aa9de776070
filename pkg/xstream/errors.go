package xstream

import (
	"errors"

	xerrors "github.com/openfga/xstream/internal/errors"
)

var (
	ErrRuntime   = xerrors.ErrRuntime
	ErrCondition = xerrors.ErrCondition

	// ErrClosed is returned by operations on a closed runtime. It matches ErrRuntime.
	ErrClosed = xerrors.With(errors.New("runtime is closed"), xerrors.ErrRuntime)
)

// Status maps err onto the numeric status codes exchanged with kernels:
// 0 for success, -1 for runtime errors and -2 for condition errors.
func Status(err error) int {
	return xerrors.Status(err)
}
