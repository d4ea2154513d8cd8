package data

import (
	"errors"
	"fmt"
	"unsafe"
)

// ErrUnsupportedKind is returned when no container exists for a kind.
var ErrUnsupportedKind = errors.New("data: unsupported kind")

type factory struct {
	value      func() Data
	array      func(n int) Data
	fromMemory func(p unsafe.Pointer, n int, array bool) Data
}

func newFactory[T Element]() factory {
	return factory{
		value: func() Data { return NewValue(*new(T)) },
		array: func(n int) Data { return MakeArray[T](n) },
		fromMemory: func(p unsafe.Pointer, n int, array bool) Data {
			src := unsafe.Slice((*T)(p), n)
			if !array {
				return NewValue(src[0])
			}
			dst := make([]T, n)
			copy(dst, src)
			return NewArray(dst)
		},
	}
}

var factories = [numKinds]factory{
	KindBool:    newFactory[bool](),
	KindChar:    newFactory[int8](),
	KindUChar:   newFactory[uint8](),
	KindShort:   newFactory[int16](),
	KindUShort:  newFactory[uint16](),
	KindInt:     newFactory[int32](),
	KindUInt:    newFactory[uint32](),
	KindInt64:   newFactory[int64](),
	KindUInt64:  newFactory[uint64](),
	KindHalf:    newFactory[Half](),
	KindFloat:   newFactory[float32](),
	KindDouble:  newFactory[float64](),
	KindString:  newFactory[string](),
	KindV2i:     newFactory[V2i](),
	KindV3i:     newFactory[V3i](),
	KindV2f:     newFactory[V2f](),
	KindV3f:     newFactory[V3f](),
	KindV2d:     newFactory[V2d](),
	KindV3d:     newFactory[V3d](),
	KindColor3f: newFactory[Color3f](),
	KindColor4f: newFactory[Color4f](),
	KindBox2i:   newFactory[Box2i](),
	KindBox2f:   newFactory[Box2f](),
	KindBox2d:   newFactory[Box2d](),
	KindBox3f:   newFactory[Box3f](),
	KindBox3d:   newFactory[Box3d](),
	KindM33f:    newFactory[M33f](),
	KindM44f:    newFactory[M44f](),
	KindM44d:    newFactory[M44d](),
	KindQuatf:   newFactory[Quatf](),
	KindQuatd:   newFactory[Quatd](),
}

// New returns an empty container of kind k: a zero single value, or an array
// of n zero elements.
func New(k Kind, array bool, n int) (Data, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, k)
	}
	f := factories[k]
	if array {
		return f.array(n), nil
	}
	return f.value(), nil
}

// FromMemory copies n elements of kind k starting at p into a new container.
// For single values n must be 1.
func FromMemory(k Kind, array bool, p unsafe.Pointer, n int) (Data, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, k)
	}
	if !array && n != 1 {
		return nil, fmt.Errorf("data: single value needs exactly one element, got %d", n)
	}
	if n == 0 {
		return factories[k].array(0), nil
	}
	if p == nil {
		return nil, errors.New("data: nil pointer")
	}
	return factories[k].fromMemory(p, n, array), nil
}

// SetInterpretation stamps i onto d when d supports it.
func SetInterpretation(d Data, i Interpretation) {
	if s, ok := d.(interface{ setInterpretation(Interpretation) }); ok {
		s.setInterpretation(i)
	}
}

func (d *Value[T]) setInterpretation(i Interpretation) { d.WithInterpretation(i) }
func (d *Array[T]) setInterpretation(i Interpretation) { d.WithInterpretation(i) }

// Reinterpret views a flat slice of components as a slice of elements without
// copying, e.g. []float32 of length 3n as []V3f of length n.
func Reinterpret[T Element, S Element](flat []S) ([]T, error) {
	ts := int(unsafe.Sizeof(*new(T)))
	ss := int(unsafe.Sizeof(*new(S)))
	if len(flat) == 0 {
		return []T{}, nil
	}
	if ts%ss != 0 || (len(flat)*ss)%ts != 0 || unsafe.Alignof(*new(T)) > unsafe.Alignof(*new(S)) {
		return nil, fmt.Errorf("data: cannot view %d x %s as %s", len(flat), KindOf[S](), KindOf[T]())
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&flat[0])), len(flat)*ss/ts), nil
}

// Flatten is the inverse of Reinterpret.
func Flatten[S Element, T Element](elems []T) ([]S, error) {
	return Reinterpret[S](elems)
}
