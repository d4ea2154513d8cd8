package data

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hupe1980/sceneconv/internal/f16"
)

// Element types backed by mathgl.
type (
	V2f   = mgl32.Vec2
	V3f   = mgl32.Vec3
	V2d   = mgl64.Vec2
	V3d   = mgl64.Vec3
	M33f  = mgl32.Mat3
	M44f  = mgl32.Mat4
	M44d  = mgl64.Mat4
	Quatf = mgl32.Quat
	Quatd = mgl64.Quat
)

// Half is an IEEE-754 binary16 value.
type Half = f16.Bits

// V2i is a 2D integer vector.
type V2i [2]int32

// V3i is a 3D integer vector.
type V3i [3]int32

// Color3f is an RGB color.
type Color3f [3]float32

// Color4f is an RGBA color.
type Color4f [4]float32

// Box2i is an axis-aligned integer rectangle.
type Box2i struct{ Min, Max V2i }

// Box2f is an axis-aligned float rectangle.
type Box2f struct{ Min, Max V2f }

// Box2d is an axis-aligned double rectangle.
type Box2d struct{ Min, Max V2d }

// Box3f is an axis-aligned float box.
type Box3f struct{ Min, Max V3f }

// Box3d is an axis-aligned double box.
type Box3d struct{ Min, Max V3d }

// EmptyBox3f returns a box that contains nothing and grows on ExtendBy.
func EmptyBox3f() Box3f {
	inf := float32(math.Inf(1))
	return Box3f{
		Min: V3f{inf, inf, inf},
		Max: V3f{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether Min exceeds Max on any axis.
func (b Box3f) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// ExtendBy grows the box to contain p.
func (b *Box3f) ExtendBy(p V3f) {
	for i := range 3 {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}

// Box3d converts to double precision.
func (b Box3f) Box3d() Box3d {
	return Box3d{
		Min: V3d{float64(b.Min[0]), float64(b.Min[1]), float64(b.Min[2])},
		Max: V3d{float64(b.Max[0]), float64(b.Max[1]), float64(b.Max[2])},
	}
}

// EmptyBox3d returns a box that contains nothing and grows on ExtendBy.
func EmptyBox3d() Box3d {
	inf := math.Inf(1)
	return Box3d{
		Min: V3d{inf, inf, inf},
		Max: V3d{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether Min exceeds Max on any axis.
func (b Box3d) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// ExtendBy grows the box to contain p.
func (b *Box3d) ExtendBy(p V3d) {
	for i := range 3 {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
}

// Union returns the smallest box containing b and o.
func (b Box3d) Union(o Box3d) Box3d {
	if o.IsEmpty() {
		return b
	}
	b.ExtendBy(o.Min)
	b.ExtendBy(o.Max)
	return b
}

// Element is the set of Go types a container can hold.
type Element interface {
	bool | int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 |
		Half | float32 | float64 | string |
		V2i | V3i | V2f | V3f | V2d | V3d | Color3f | Color4f |
		Box2i | Box2f | Box2d | Box3f | Box3d |
		M33f | M44f | M44d | Quatf | Quatd
}

// KindOf returns the Kind tag of the element type T.
func KindOf[T Element]() Kind {
	var zero T
	switch any(zero).(type) {
	case bool:
		return KindBool
	case int8:
		return KindChar
	case uint8:
		return KindUChar
	case int16:
		return KindShort
	case uint16:
		return KindUShort
	case int32:
		return KindInt
	case uint32:
		return KindUInt
	case int64:
		return KindInt64
	case uint64:
		return KindUInt64
	case Half:
		return KindHalf
	case float32:
		return KindFloat
	case float64:
		return KindDouble
	case string:
		return KindString
	case V2i:
		return KindV2i
	case V3i:
		return KindV3i
	case V2f:
		return KindV2f
	case V3f:
		return KindV3f
	case V2d:
		return KindV2d
	case V3d:
		return KindV3d
	case Color3f:
		return KindColor3f
	case Color4f:
		return KindColor4f
	case Box2i:
		return KindBox2i
	case Box2f:
		return KindBox2f
	case Box2d:
		return KindBox2d
	case Box3f:
		return KindBox3f
	case Box3d:
		return KindBox3d
	case M33f:
		return KindM33f
	case M44f:
		return KindM44f
	case M44d:
		return KindM44d
	case Quatf:
		return KindQuatf
	case Quatd:
		return KindQuatd
	default:
		return KindInvalid
	}
}
