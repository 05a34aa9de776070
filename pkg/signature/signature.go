// Package signature models the type-erased argument list of a kernel call.
// A Signature is a fixed-capacity array of Arguments with an explicit length,
// so no type value doubles as a terminator.
package signature

import (
	"strings"
	"unsafe"

	xerrors "github.com/openfga/xstream/internal/errors"
)

type Signature struct {
	args  [MaxArgs]Argument
	nargs int
}

// New returns a signature with nargs reserved arguments.
func New(nargs int) (*Signature, error) {
	var s Signature
	if err := s.Reset(nargs); err != nil {
		return nil, err
	}
	return &s, nil
}

// Must is New that panics on error.
func Must(nargs int) *Signature {
	s, err := New(nargs)
	if err != nil {
		panic(err)
	}
	return s
}

// Reset clears all arguments and reserves nargs slots, for reuse across calls.
func (s *Signature) Reset(nargs int) error {
	if nargs < 0 || nargs > MaxArgs {
		return xerrors.Conditionf("nargs %d out of range [0, %d]", nargs, MaxArgs)
	}
	s.Clear()
	s.nargs = nargs
	return nil
}

// Clear invalidates every argument and keeps the reserved length.
func (s *Signature) Clear() {
	for i := range s.args {
		s.args[i] = Argument{typ: INVALID}
	}
}

func (s *Signature) Input(i int, data unsafe.Pointer, typ Type, dims int, shape []int) error {
	return s.set(i, KindInput, data, typ, dims, shape)
}

func (s *Signature) Output(i int, data unsafe.Pointer, typ Type, dims int, shape []int) error {
	return s.set(i, KindOutput, data, typ, dims, shape)
}

func (s *Signature) InOut(i int, data unsafe.Pointer, typ Type, dims int, shape []int) error {
	return s.set(i, KindInOut, data, typ, dims, shape)
}

func (s *Signature) set(i int, kind Kind, data unsafe.Pointer, typ Type, dims int, shape []int) error {
	if i < 0 || i >= s.nargs {
		return xerrors.Conditionf("argument index %d out of range [0, %d)", i, s.nargs)
	}
	a, err := construct(kind, data, typ, dims, shape)
	if err != nil {
		return err
	}
	s.args[i] = a
	return nil
}

// NArgs is the number of reserved arguments.
func (s *Signature) NArgs() int {
	return s.nargs
}

// Arity counts the leading arguments that were constructed.
func (s *Signature) Arity() int {
	n := 0
	for n < s.nargs && s.args[n].kind != KindInvalid && s.args[n].typ != INVALID {
		n++
	}
	return n
}

// Arg returns argument i.
func (s *Signature) Arg(i int) (*Argument, error) {
	if i < 0 || i >= s.nargs {
		return nil, xerrors.Conditionf("argument index %d out of range [0, %d)", i, s.nargs)
	}
	return &s.args[i], nil
}

// Find returns the index of the argument whose data is at ptr.
func (s *Signature) Find(ptr unsafe.Pointer) (int, error) {
	if ptr == nil {
		return -1, xerrors.Conditionf("nil pointer")
	}
	for i := 0; i < s.Arity(); i++ {
		if s.args[i].Data() == ptr {
			return i, nil
		}
	}
	return -1, xerrors.Conditionf("no argument refers to 0x%x", uintptr(ptr))
}

func (s *Signature) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i := 0; i < s.Arity(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s.args[i].kind.String())
		b.WriteByte(' ')
		b.WriteString(s.args[i].typ.String())
		b.WriteByte(' ')
		b.WriteString(s.args[i].String())
	}
	b.WriteByte(')')
	return b.String()
}
