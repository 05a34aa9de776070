// Package blas exposes gonum's BLAS level 1 and 3 routines through the kernel
// calling convention. Integers are passed as i32 except the dgemm extents,
// which are i64.
package blas

import (
	"unsafe"

	gblas "gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/openfga/xstream/pkg/kernel"
)

const (
	NameDaxpy = "daxpy"
	NameDscal = "dscal"
	NameDdot  = "ddot"
	NameDgemm = "dgemm"
)

// Register adds every kernel of this package to r.
func Register(r *kernel.Registry) error {
	for name, fn := range map[string]kernel.Func{
		NameDaxpy: Daxpy,
		NameDscal: Dscal,
		NameDdot:  Ddot,
		NameDgemm: Dgemm,
	} {
		if err := r.Register(name, fn); err != nil {
			return err
		}
	}
	return nil
}

func vector(ptrs []unsafe.Pointer, sizes []uint64, n, data, inc int) blas64.Vector {
	return blas64.Vector{
		N:    n,
		Data: kernel.Slice[float64](ptrs, sizes, data),
		Inc:  int(kernel.Scalar[int32](ptrs, sizes, inc)),
	}
}

// Daxpy computes y = alpha*x + y.
//
//	daxpy(n i32, alpha f64, x []f64, incx i32, y []f64, incy i32)
func Daxpy(argc int, ptrs []unsafe.Pointer, sizes []uint64) {
	kernel.Require(argc, ptrs, sizes, 6)
	n := int(kernel.Scalar[int32](ptrs, sizes, 0))
	alpha := kernel.Scalar[float64](ptrs, sizes, 1)
	blas64.Axpy(alpha, vector(ptrs, sizes, n, 2, 3), vector(ptrs, sizes, n, 4, 5))
}

// Dscal computes x = alpha*x.
//
//	dscal(n i32, alpha f64, x []f64, incx i32)
func Dscal(argc int, ptrs []unsafe.Pointer, sizes []uint64) {
	kernel.Require(argc, ptrs, sizes, 4)
	n := int(kernel.Scalar[int32](ptrs, sizes, 0))
	alpha := kernel.Scalar[float64](ptrs, sizes, 1)
	blas64.Scal(alpha, vector(ptrs, sizes, n, 2, 3))
}

// Ddot stores the dot product of x and y in result.
//
//	ddot(n i32, x []f64, incx i32, y []f64, incy i32, result *f64)
func Ddot(argc int, ptrs []unsafe.Pointer, sizes []uint64) {
	kernel.Require(argc, ptrs, sizes, 6)
	n := int(kernel.Scalar[int32](ptrs, sizes, 0))
	dot := blas64.Dot(vector(ptrs, sizes, n, 1, 2), vector(ptrs, sizes, n, 3, 4))
	kernel.Store(ptrs, sizes, 5, dot)
}

// Dgemm computes C = alpha*A*B + beta*C on row-major matrices, with A of
// m x k, B of k x n and C of m x n.
//
//	dgemm(a []f64, b []f64, c []f64, m i64, n i64, k i64, alpha f64, beta f64)
func Dgemm(argc int, ptrs []unsafe.Pointer, sizes []uint64) {
	kernel.Require(argc, ptrs, sizes, 8)
	m := int(kernel.Scalar[int64](ptrs, sizes, 3))
	n := int(kernel.Scalar[int64](ptrs, sizes, 4))
	k := int(kernel.Scalar[int64](ptrs, sizes, 5))
	alpha := kernel.Scalar[float64](ptrs, sizes, 6)
	beta := kernel.Scalar[float64](ptrs, sizes, 7)

	a := blas64.General{Rows: m, Cols: k, Stride: k, Data: kernel.Slice[float64](ptrs, sizes, 0)}
	b := blas64.General{Rows: k, Cols: n, Stride: n, Data: kernel.Slice[float64](ptrs, sizes, 1)}
	c := blas64.General{Rows: m, Cols: n, Stride: n, Data: kernel.Slice[float64](ptrs, sizes, 2)}
	blas64.Gemm(gblas.NoTrans, gblas.NoTrans, alpha, a, b, beta, c)
}
