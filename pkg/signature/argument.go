package signature

import (
	"fmt"
	"math"
	"unsafe"

	xerrors "github.com/openfga/xstream/internal/errors"
)

const (
	// MaxDims is the highest dimensionality of an argument.
	MaxDims = 4
	// MaxArgs is the capacity of a signature.
	MaxArgs = 16

	valueSize = 16
)

type Kind uint8

const (
	KindInvalid Kind = iota
	KindInput
	KindOutput
	KindInOut
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindOutput:
		return "output"
	case KindInOut:
		return "inout"
	default:
		return "invalid"
	}
}

// Argument describes one parameter of a kernel call. Input scalars are
// captured by value so the caller's variable may change after enqueue.
type Argument struct {
	kind  Kind
	typ   Type
	dims  int
	shape [MaxDims]int
	data  unsafe.Pointer
	value [valueSize]byte
	// inline reports that value holds the scalar instead of data pointing to it.
	inline bool
}

func (a *Argument) Kind() Kind {
	return a.kind
}

func (a *Argument) Type() Type {
	return a.typ
}

func (a *Argument) Dims() int {
	return a.dims
}

// Shape returns the extent of each dimension. A scalar has the single extent 0,
// unless it is a VOID scalar whose extent is its byte count.
func (a *Argument) Shape() []int {
	if a.dims == 0 {
		return []int{a.scalarExtent()}
	}
	shape := make([]int, a.dims)
	copy(shape, a.shape[:a.dims])
	return shape
}

func (a *Argument) scalarExtent() int {
	if a.typ == VOID {
		return a.shape[0]
	}
	return 0
}

// Data returns the address of the argument data. For captured input scalars
// this is the inline copy owned by the argument.
func (a *Argument) Data() unsafe.Pointer {
	if a.inline {
		return unsafe.Pointer(&a.value[0])
	}
	return a.data
}

// Size is the number of elements: the product of the shape, 1 for scalars.
func (a *Argument) Size() int {
	return linearSize(a.dims, a.shape, 1)
}

// ElemSize is the size of one element in bytes.
func (a *Argument) ElemSize() (int, error) {
	typesize := 1
	if a.dims == 0 {
		typesize = a.shape[0]
	}
	if a.typ != VOID {
		size, err := a.typ.Size()
		if err != nil {
			return 0, err
		}
		typesize = size
	}
	return typesize, nil
}

// DataSize is the total size of the argument data in bytes.
func (a *Argument) DataSize() (int, error) {
	elemsize, err := a.ElemSize()
	if err != nil {
		return 0, err
	}
	return linearSize(a.dims, a.shape, elemsize), nil
}

// String renders a pointer as hexadecimal and a scalar by its value.
func (a *Argument) String() string {
	s, err := a.format()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return s
}

// Format is String with the error reported instead of rendered.
func (a *Argument) Format() (string, error) {
	return a.format()
}

func (a *Argument) format() (string, error) {
	data := a.Data()
	if a.dims > 0 || data == nil {
		if a.typ >= INVALID {
			return "", xerrors.Conditionf("argument has no type")
		}
		return fmt.Sprintf("0x%x", uintptr(data)), nil
	}

	typ := a.typ
	if typ == VOID {
		typ = AutoType(a.shape[0], CHAR)
	}

	switch typ {
	case CHAR:
		return fmt.Sprintf("%c", *(*byte)(data)), nil
	case I8:
		return fmt.Sprintf("%d", *(*int8)(data)), nil
	case U8:
		return fmt.Sprintf("%d", *(*uint8)(data)), nil
	case I16:
		return fmt.Sprintf("%d", *(*int16)(data)), nil
	case U16:
		return fmt.Sprintf("%d", *(*uint16)(data)), nil
	case I32:
		return fmt.Sprintf("%d", *(*int32)(data)), nil
	case U32:
		return fmt.Sprintf("%d", *(*uint32)(data)), nil
	case I64:
		return fmt.Sprintf("%d", *(*int64)(data)), nil
	case U64:
		return fmt.Sprintf("%d", *(*uint64)(data)), nil
	case F32:
		return fmt.Sprintf("%f", *(*float32)(data)), nil
	case F64:
		return fmt.Sprintf("%f", *(*float64)(data)), nil
	case C32:
		c := (*[2]float32)(data)
		return fmt.Sprintf("(%f, %f)", c[0], c[1]), nil
	case C64:
		c := (*[2]float64)(data)
		return fmt.Sprintf("(%f, %f)", c[0], c[1]), nil
	default:
		return "", xerrors.Conditionf("scalar of %d bytes has no matching type", a.shape[0])
	}
}

func linearSize(dims int, shape [MaxDims]int, initial int) int {
	size := initial
	for i := 0; i < dims; i++ {
		size *= shape[i]
	}
	return size
}

func construct(kind Kind, data unsafe.Pointer, typ Type, dims int, shape []int) (Argument, error) {
	var a Argument
	if typ >= INVALID {
		return a, xerrors.Conditionf("invalid argument type %d", typ)
	}
	if dims < 0 || dims > MaxDims {
		return a, xerrors.Conditionf("dims %d out of range [0, %d]", dims, MaxDims)
	}

	switch {
	case dims > 0:
		if len(shape) < dims {
			return a, xerrors.Conditionf("shape has %d extents, want %d", len(shape), dims)
		}
		for i := 0; i < dims; i++ {
			if shape[i] < 0 || shape[i] > math.MaxInt32 {
				return a, xerrors.Conditionf("extent %d of dimension %d out of range", shape[i], i)
			}
			a.shape[i] = shape[i]
		}
	case typ == VOID:
		if len(shape) < 1 || shape[0] <= 0 {
			return a, xerrors.Conditionf("void scalar needs its byte count as extent")
		}
		a.shape[0] = shape[0]
	}

	a.kind = kind
	a.typ = typ
	a.dims = dims
	a.data = data

	if kind == KindInput && dims == 0 && data != nil {
		size, err := a.ElemSize()
		if err != nil {
			return Argument{}, err
		}
		if size <= valueSize {
			copy(a.value[:size], unsafe.Slice((*byte)(data), size))
			a.inline = true
			a.data = nil
		}
	}
	return a, nil
}
