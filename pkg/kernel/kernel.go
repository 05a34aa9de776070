// Package kernel defines the calling convention of offloaded functions.
//
// A kernel receives the argument count, the address of every argument and the
// size in bytes of the data behind each address. Kernels do not return a
// value; a kernel that cannot proceed panics, and the runtime reports the
// panic as the status of the call.
package kernel

import (
	"unsafe"

	xerrors "github.com/openfga/xstream/internal/errors"
)

type Func func(argc int, ptrs []unsafe.Pointer, sizes []uint64)

// Require panics with a condition error unless at least n arguments were passed.
func Require(argc int, ptrs []unsafe.Pointer, sizes []uint64, n int) {
	if argc < n || len(ptrs) < n || len(sizes) < n {
		panic(xerrors.Conditionf("kernel needs %d arguments, got %d", n, argc))
	}
}

func check[T any](ptrs []unsafe.Pointer, sizes []uint64, i int) uint64 {
	if i < 0 || i >= len(ptrs) || i >= len(sizes) {
		panic(xerrors.Conditionf("argument %d out of range", i))
	}
	if ptrs[i] == nil {
		panic(xerrors.Conditionf("argument %d is nil", i))
	}
	var zero T
	elem := uint64(unsafe.Sizeof(zero))
	if sizes[i] < elem {
		panic(xerrors.Conditionf("argument %d holds %d bytes, want at least %d", i, sizes[i], elem))
	}
	return elem
}

// Scalar reads argument i as a T.
func Scalar[T any](ptrs []unsafe.Pointer, sizes []uint64, i int) T {
	check[T](ptrs, sizes, i)
	return *(*T)(ptrs[i])
}

// Store writes v through argument i, which must be an output or inout scalar.
func Store[T any](ptrs []unsafe.Pointer, sizes []uint64, i int, v T) {
	check[T](ptrs, sizes, i)
	*(*T)(ptrs[i]) = v
}

// Slice views the data of argument i as a slice of T.
func Slice[T any](ptrs []unsafe.Pointer, sizes []uint64, i int) []T {
	if i >= 0 && i < len(sizes) && sizes[i] == 0 {
		return nil
	}
	elem := check[T](ptrs, sizes, i)
	return unsafe.Slice((*T)(ptrs[i]), sizes[i]/elem)
}
