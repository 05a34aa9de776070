package signature

import (
	"fmt"
	"reflect"

	"golang.org/x/exp/constraints"

	xerrors "github.com/openfga/xstream/internal/errors"
)

// Type is the elemental type of an argument. The numeric order is part of
// the kernel ABI and AutoType probes the types in this order.
type Type uint8

const (
	CHAR Type = iota
	I8
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
	C32
	C64
	VOID
	INVALID
)

const (
	BOOL = I32
	BYTE = U8
)

var typeSizes = [...]int{
	CHAR: 1, I8: 1, I16: 2, I32: 4, I64: 8,
	U8: 1, U16: 2, U32: 4, U64: 8,
	F32: 4, F64: 8, C32: 8, C64: 16,
}

var typeNames = [...]string{
	CHAR: "char", I8: "i8", I16: "i16", I32: "i32", I64: "i64",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64",
	F32: "f32", F64: "f64", C32: "c32", C64: "c64",
	VOID: "void",
}

// Size returns the size in bytes of one element. VOID and INVALID have no size.
func (t Type) Size() (int, error) {
	if t >= VOID {
		return 0, xerrors.Conditionf("type %d has no size", t)
	}
	return typeSizes[t], nil
}

// Name returns the short name of the type, for example "f64".
func (t Type) Name() (string, error) {
	if t > VOID {
		return "", xerrors.Conditionf("type %d has no name", t)
	}
	return typeNames[t], nil
}

func (t Type) String() string {
	if name, err := t.Name(); err == nil {
		return name
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// AutoType returns the first type at or after start whose size is size. It
// returns VOID if no type matches.
func AutoType(size int, start Type) Type {
	for t := start; t < VOID; t++ {
		if typeSizes[t] == size {
			return t
		}
	}
	return VOID
}

// Scalar lists the Go types that map onto a Type.
type Scalar interface {
	constraints.Integer | constraints.Float | constraints.Complex
}

// TypeFor returns the Type matching the Go type T.
func TypeFor[T Scalar]() Type {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Int8:
		return I8
	case reflect.Int16:
		return I16
	case reflect.Int32:
		return I32
	case reflect.Int64, reflect.Int:
		return I64
	case reflect.Uint8:
		return U8
	case reflect.Uint16:
		return U16
	case reflect.Uint32:
		return U32
	case reflect.Uint64, reflect.Uint, reflect.Uintptr:
		return U64
	case reflect.Float32:
		return F32
	case reflect.Float64:
		return F64
	case reflect.Complex64:
		return C32
	case reflect.Complex128:
		return C64
	default:
		return INVALID
	}
}
