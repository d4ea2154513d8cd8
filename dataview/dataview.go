package dataview

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/hupe1980/sceneconv/data"
)

// ErrUnsupported is returned for kinds and type descriptions that have no
// counterpart.
var ErrUnsupported = errors.New("dataview: unsupported type")

// ErrShape is returned when a view's element count and array length
// disagree.
var ErrShape = errors.New("dataview: inconsistent shape")

// View is a typed window onto memory owned by someone else.
//
// Count is the number of container elements for views of arrays and 0 for
// single values. Views made elsewhere may leave it 0, in which case the
// shape follows from Type.ArrayLen alone.
type View struct {
	Type  TypeDesc
	Ptr   unsafe.Pointer
	Count int
}

// Bytes returns the viewed memory. It returns nil for string views.
func (v View) Bytes() []byte {
	if v.Ptr == nil || v.Type.Base == String {
		return nil
	}
	n := max(v.Count, 1)
	if v.Type.Semantics == Box {
		n *= 2
	}
	return unsafe.Slice((*byte)(v.Ptr), n*v.Type.Size())
}

type layout struct {
	kind      data.Kind
	base      BaseType
	agg       Aggregate
	sem       Semantics
	geometric bool
}

func (l layout) box() bool { return l.sem == Box }

// layouts lists every kind with a view. Kinds with fixed semantics come
// before the geometric kinds sharing their base and aggregate, which makes
// reconstruction prefer them.
var layouts = []layout{
	{kind: data.KindChar, base: Int8, agg: Scalar},
	{kind: data.KindUChar, base: UInt8, agg: Scalar},
	{kind: data.KindShort, base: Int16, agg: Scalar},
	{kind: data.KindUShort, base: UInt16, agg: Scalar},
	{kind: data.KindInt, base: Int32, agg: Scalar},
	{kind: data.KindUInt, base: UInt32, agg: Scalar},
	{kind: data.KindInt64, base: Int64, agg: Scalar},
	{kind: data.KindUInt64, base: UInt64, agg: Scalar},
	{kind: data.KindHalf, base: Half, agg: Scalar},
	{kind: data.KindFloat, base: Float, agg: Scalar},
	{kind: data.KindDouble, base: Double, agg: Scalar},
	{kind: data.KindString, base: String, agg: Scalar},
	{kind: data.KindColor3f, base: Float, agg: Vec3, sem: Color},
	{kind: data.KindColor4f, base: Float, agg: Vec4, sem: Color},
	{kind: data.KindQuatf, base: Float, agg: Vec4},
	{kind: data.KindQuatd, base: Double, agg: Vec4},
	{kind: data.KindM33f, base: Float, agg: Matrix33},
	{kind: data.KindM44f, base: Float, agg: Matrix44},
	{kind: data.KindM44d, base: Double, agg: Matrix44},
	{kind: data.KindBox2i, base: Int32, agg: Vec2, sem: Box},
	{kind: data.KindBox2f, base: Float, agg: Vec2, sem: Box},
	{kind: data.KindBox2d, base: Double, agg: Vec2, sem: Box},
	{kind: data.KindBox3f, base: Float, agg: Vec3, sem: Box},
	{kind: data.KindBox3d, base: Double, agg: Vec3, sem: Box},
	{kind: data.KindV2i, base: Int32, agg: Vec2, geometric: true},
	{kind: data.KindV3i, base: Int32, agg: Vec3, geometric: true},
	{kind: data.KindV2f, base: Float, agg: Vec2, geometric: true},
	{kind: data.KindV3f, base: Float, agg: Vec3, geometric: true},
	{kind: data.KindV2d, base: Double, agg: Vec2, geometric: true},
	{kind: data.KindV3d, base: Double, agg: Vec3, geometric: true},
}

func layoutOf(k data.Kind) (layout, bool) {
	for _, l := range layouts {
		if l.kind == k {
			return l, true
		}
	}
	return layout{}, false
}

func semanticsOf(i data.Interpretation) Semantics {
	switch i {
	case data.Point:
		return Point
	case data.Normal:
		return Normal
	case data.Vector:
		return Vector
	case data.Color:
		return Color
	case data.UV:
		return TexCoord
	case data.Rational:
		return Rational
	default:
		return NoSemantics
	}
}

func interpretationOf(s Semantics) data.Interpretation {
	switch s {
	case Point:
		return data.Point
	case Normal:
		return data.Normal
	case Vector:
		return data.Vector
	case Color:
		return data.Color
	case TexCoord:
		return data.UV
	case Rational:
		return data.Rational
	default:
		return data.None
	}
}

// ViewOf returns a view of the memory held by d. The view is valid while d
// is reachable and not resized.
func ViewOf(d data.Data) (View, error) {
	if d == nil {
		return View{}, fmt.Errorf("%w: nil data", ErrUnsupported)
	}
	l, ok := layoutOf(d.Kind())
	if !ok {
		return View{}, fmt.Errorf("%w: %s", ErrUnsupported, d.TypeName())
	}

	v := View{
		Type: TypeDesc{Base: l.base, Aggregate: l.agg, Semantics: l.sem},
		Ptr:  data.Pointer(d),
	}
	if l.geometric {
		v.Type.Semantics = semanticsOf(d.Interpretation())
	}

	per := 1
	if l.box() {
		per = 2
	}
	if !d.IsArray() {
		if l.box() {
			v.Type.ArrayLen = 2
		}
		return v, nil
	}

	v.Count = d.Len()
	if v.Count == 0 {
		v.Type.ArrayLen = -1
	} else {
		v.Type.ArrayLen = v.Count * per
	}
	return v, nil
}

// Reconstruct copies the memory of v into a new container of the matching
// kind.
func Reconstruct(v View) (data.Data, error) {
	l, interp, err := resolve(v.Type)
	if err != nil {
		return nil, err
	}
	array, n, err := shape(v, l)
	if err != nil {
		return nil, err
	}
	d, err := data.FromMemory(l.kind, array, v.Ptr, n)
	if err != nil {
		return nil, fmt.Errorf("dataview: %s: %w", v.Type, err)
	}
	if l.geometric {
		data.SetInterpretation(d, interp)
	}
	return d, nil
}

func resolve(t TypeDesc) (layout, data.Interpretation, error) {
	for _, l := range layouts {
		if l.base != t.Base || l.agg != t.Aggregate {
			continue
		}
		if l.geometric {
			if t.Semantics == Box {
				continue
			}
			return l, interpretationOf(t.Semantics), nil
		}
		if l.sem == t.Semantics {
			return l, data.None, nil
		}
	}
	return layout{}, data.None, fmt.Errorf("%w: %s", ErrUnsupported, t)
}

func shape(v View, l layout) (array bool, n int, err error) {
	per := 1
	if l.box() {
		per = 2
	}
	al := v.Type.ArrayLen

	switch {
	case v.Count < 0 || al < -1:
		return false, 0, fmt.Errorf("%w: count %d, array length %d", ErrShape, v.Count, al)
	case v.Count > 0:
		if al != 0 && al != v.Count*per {
			return false, 0, fmt.Errorf("%w: %d elements of %s", ErrShape, v.Count, v.Type)
		}
		return true, v.Count, nil
	case al == -1:
		return true, 0, nil
	case l.box() && al == 2:
		return false, 1, nil
	case al == 0:
		if l.box() {
			return false, 0, fmt.Errorf("%w: a box needs array length 2", ErrShape)
		}
		return false, 1, nil
	case al%per != 0:
		return false, 0, fmt.Errorf("%w: %s is not a whole number of boxes", ErrShape, v.Type)
	default:
		return true, al / per, nil
	}
}
