package signature

import "unsafe"

// InputValue sets argument i to the scalar *v, captured by value.
func InputValue[T Scalar](s *Signature, i int, v *T) error {
	return s.Input(i, unsafe.Pointer(v), TypeFor[T](), 0, nil)
}

// OutputValue sets argument i to the scalar written back through v.
func OutputValue[T Scalar](s *Signature, i int, v *T) error {
	return s.Output(i, unsafe.Pointer(v), TypeFor[T](), 0, nil)
}

func InputSlice[T Scalar](s *Signature, i int, v []T) error {
	return s.Input(i, sliceData(v), TypeFor[T](), 1, []int{len(v)})
}

func OutputSlice[T Scalar](s *Signature, i int, v []T) error {
	return s.Output(i, sliceData(v), TypeFor[T](), 1, []int{len(v)})
}

func InOutSlice[T Scalar](s *Signature, i int, v []T) error {
	return s.InOut(i, sliceData(v), TypeFor[T](), 1, []int{len(v)})
}

func sliceData[T any](v []T) unsafe.Pointer {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(v))
}
