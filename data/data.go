package data

import (
	"slices"
	"unsafe"
)

// Data is a typed container holding either one element or an array.
type Data interface {
	// Kind returns the element type tag.
	Kind() Kind
	// IsArray reports whether the container holds a sequence.
	IsArray() bool
	// Len returns the number of elements (1 for single values).
	Len() int
	// Interpretation returns the geometric meaning; None for non V2/V3 kinds.
	Interpretation() Interpretation
	// TypeName returns a stable name such as "FloatArray" or "V3f".
	TypeName() string
	// Copy returns a deep copy.
	Copy() Data
	// Equal reports whether other has the same kind, cardinality,
	// interpretation and element-wise equal values.
	Equal(other Data) bool
	// Any returns the held value: T for single values, []T for arrays.
	Any() any

	pointer() unsafe.Pointer
}

func normalize(k Kind, i Interpretation) Interpretation {
	if !k.IsGeometric() {
		return None
	}
	return i
}

// Value holds a single element.
type Value[T Element] struct {
	v      T
	interp Interpretation
}

// NewValue returns a single-value container.
func NewValue[T Element](v T) *Value[T] {
	return &Value[T]{v: v}
}

// WithInterpretation sets the interpretation and returns the receiver.
// The interpretation is dropped for non V2/V3 kinds.
func (d *Value[T]) WithInterpretation(i Interpretation) *Value[T] {
	d.interp = normalize(d.Kind(), i)
	return d
}

// Get returns the held value.
func (d *Value[T]) Get() T { return d.v }

// Set replaces the held value.
func (d *Value[T]) Set(v T) { d.v = v }

func (d *Value[T]) Kind() Kind                     { return KindOf[T]() }
func (d *Value[T]) IsArray() bool                  { return false }
func (d *Value[T]) Len() int                       { return 1 }
func (d *Value[T]) Interpretation() Interpretation { return d.interp }
func (d *Value[T]) TypeName() string               { return d.Kind().String() }
func (d *Value[T]) Any() any                       { return d.v }

func (d *Value[T]) Copy() Data {
	c := *d
	return &c
}

func (d *Value[T]) Equal(other Data) bool {
	o, ok := other.(*Value[T])
	if !ok {
		return false
	}
	return d.interp == o.interp && d.v == o.v
}

func (d *Value[T]) pointer() unsafe.Pointer {
	return unsafe.Pointer(&d.v)
}

// Array holds a contiguous sequence of elements.
type Array[T Element] struct {
	v      []T
	interp Interpretation
}

// NewArray returns an array container that takes ownership of values.
func NewArray[T Element](values []T) *Array[T] {
	return &Array[T]{v: values}
}

// MakeArray returns an array container of n zero elements.
func MakeArray[T Element](n int) *Array[T] {
	return &Array[T]{v: make([]T, n)}
}

// WithInterpretation sets the interpretation and returns the receiver.
// The interpretation is dropped for non V2/V3 kinds.
func (d *Array[T]) WithInterpretation(i Interpretation) *Array[T] {
	d.interp = normalize(d.Kind(), i)
	return d
}

// Values returns the backing slice. Mutations are visible to the container.
func (d *Array[T]) Values() []T { return d.v }

// Append adds elements to the end of the array.
func (d *Array[T]) Append(vs ...T) { d.v = append(d.v, vs...) }

// Resize changes the length, zero-filling new elements.
func (d *Array[T]) Resize(n int) {
	if n <= len(d.v) {
		d.v = d.v[:n]
		return
	}
	d.v = append(d.v, make([]T, n-len(d.v))...)
}

func (d *Array[T]) Kind() Kind                     { return KindOf[T]() }
func (d *Array[T]) IsArray() bool                  { return true }
func (d *Array[T]) Len() int                       { return len(d.v) }
func (d *Array[T]) Interpretation() Interpretation { return d.interp }
func (d *Array[T]) TypeName() string               { return d.Kind().String() + "Array" }
func (d *Array[T]) Any() any                       { return d.v }

func (d *Array[T]) Copy() Data {
	return &Array[T]{v: slices.Clone(d.v), interp: d.interp}
}

func (d *Array[T]) Equal(other Data) bool {
	o, ok := other.(*Array[T])
	if !ok {
		return false
	}
	return d.interp == o.interp && slices.Equal(d.v, o.v)
}

func (d *Array[T]) pointer() unsafe.Pointer {
	if len(d.v) == 0 {
		return nil
	}
	return unsafe.Pointer(&d.v[0])
}

// Pointer returns the address of the first element of d, or nil for an empty
// array. The memory is owned by d and stays valid while d is reachable and
// not resized.
func Pointer(d Data) unsafe.Pointer {
	return d.pointer()
}

// Values returns the elements of d as []T, wrapping single values.
// ok is false when the element type of d is not T.
func Values[T Element](d Data) ([]T, bool) {
	switch v := d.(type) {
	case *Array[T]:
		return v.v, true
	case *Value[T]:
		return []T{v.v}, true
	default:
		return nil, false
	}
}
