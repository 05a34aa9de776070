package kernel

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	xerrors "github.com/openfga/xstream/internal/errors"
)

func TestHelpers(t *testing.T) {
	n := int32(3)
	x := []float64{1, 2, 3}
	var out float64

	ptrs := []unsafe.Pointer{unsafe.Pointer(&n), unsafe.Pointer(&x[0]), unsafe.Pointer(&out)}
	sizes := []uint64{4, 24, 8}

	Require(3, ptrs, sizes, 3)
	require.Equal(t, int32(3), Scalar[int32](ptrs, sizes, 0))
	require.Equal(t, []float64{1, 2, 3}, Slice[float64](ptrs, sizes, 1))

	Store(ptrs, sizes, 2, 4.5)
	require.InDelta(t, 4.5, out, 0)

	require.Nil(t, Slice[float64]([]unsafe.Pointer{nil}, []uint64{0}, 0))
}

func TestHelpersPanicWithConditionErrors(t *testing.T) {
	n := int16(1)
	ptrs := []unsafe.Pointer{unsafe.Pointer(&n), nil}
	sizes := []uint64{2, 8}

	conditionPanic := func(t *testing.T, fn func()) {
		t.Helper()
		defer func() {
			r := recover()
			require.NotNil(t, r)
			err, ok := r.(error)
			require.True(t, ok)
			require.ErrorIs(t, err, xerrors.ErrCondition)
		}()
		fn()
	}

	conditionPanic(t, func() { Require(2, ptrs, sizes, 3) })
	conditionPanic(t, func() { Scalar[int64](ptrs, sizes, 0) })
	conditionPanic(t, func() { Scalar[float64](ptrs, sizes, 1) })
	conditionPanic(t, func() { Scalar[int16](ptrs, sizes, 2) })
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	noop := func(int, []unsafe.Pointer, []uint64) {}

	require.NoError(t, r.Register("dscal", noop))
	require.NoError(t, r.Register("daxpy", noop))
	r.MustRegister("ddot", noop)

	require.ErrorIs(t, r.Register("ddot", noop), xerrors.ErrCondition)
	require.ErrorIs(t, r.Register("", noop), xerrors.ErrCondition)
	require.ErrorIs(t, r.Register("nil", nil), xerrors.ErrCondition)

	require.Equal(t, 3, r.Len())
	require.Equal(t, []string{"daxpy", "ddot", "dscal"}, r.Names())

	fn, err := r.Lookup("daxpy")
	require.NoError(t, err)
	require.NotNil(t, fn)

	_, err = r.Lookup("sgemm")
	require.ErrorIs(t, err, xerrors.ErrCondition)
}
