package dataview

import (
	"fmt"
	"strings"
)

// BaseType is the type of one component.
type BaseType uint8

const (
	Unknown BaseType = iota
	UInt8
	Int8
	UInt16
	Int16
	UInt32
	Int32
	UInt64
	Int64
	Half
	Float
	Double
	String
)

var baseNames = [...]string{
	Unknown: "unknown",
	UInt8:   "uint8",
	Int8:    "int8",
	UInt16:  "uint16",
	Int16:   "int16",
	UInt32:  "uint32",
	Int32:   "int32",
	UInt64:  "uint64",
	Int64:   "int64",
	Half:    "half",
	Float:   "float",
	Double:  "double",
	String:  "string",
}

func (b BaseType) String() string {
	if int(b) < len(baseNames) {
		return baseNames[b]
	}
	return fmt.Sprintf("BaseType(%d)", uint8(b))
}

// Size returns the size in bytes of one component. Strings are views of Go
// string headers.
func (b BaseType) Size() int {
	switch b {
	case UInt8, Int8:
		return 1
	case UInt16, Int16, Half:
		return 2
	case UInt32, Int32, Float:
		return 4
	case UInt64, Int64, Double:
		return 8
	case String:
		return 16
	default:
		return 0
	}
}

// Aggregate is the number of components of one element. The values are the
// component counts.
type Aggregate uint8

const (
	Scalar   Aggregate = 1
	Vec2     Aggregate = 2
	Vec3     Aggregate = 3
	Vec4     Aggregate = 4
	Matrix33 Aggregate = 9
	Matrix44 Aggregate = 16
)

func (a Aggregate) String() string {
	switch a {
	case Scalar:
		return "scalar"
	case Vec2:
		return "vec2"
	case Vec3:
		return "vec3"
	case Vec4:
		return "vec4"
	case Matrix33:
		return "matrix33"
	case Matrix44:
		return "matrix44"
	default:
		return fmt.Sprintf("Aggregate(%d)", uint8(a))
	}
}

// Semantics is a hint on how an aggregate transforms.
type Semantics uint8

const (
	NoSemantics Semantics = iota
	Color
	Point
	Vector
	Normal
	TexCoord
	Box
	Rational
)

func (s Semantics) String() string {
	switch s {
	case NoSemantics:
		return ""
	case Color:
		return "color"
	case Point:
		return "point"
	case Vector:
		return "vector"
	case Normal:
		return "normal"
	case TexCoord:
		return "texcoord"
	case Box:
		return "box"
	case Rational:
		return "rational"
	default:
		return fmt.Sprintf("Semantics(%d)", uint8(s))
	}
}

// TypeDesc describes the memory a View points at.
//
// ArrayLen is 0 for a single element, the number of aggregates for an array
// and -1 for an array of unknown or zero length. A box counts as two
// aggregates.
type TypeDesc struct {
	Base      BaseType
	Aggregate Aggregate
	Semantics Semantics
	ArrayLen  int
}

// Size returns the size in bytes of one aggregate.
func (t TypeDesc) Size() int {
	return t.Base.Size() * int(t.Aggregate)
}

// String formats t like "float vec3 point[4]".
func (t TypeDesc) String() string {
	var sb strings.Builder
	sb.WriteString(t.Base.String())
	if t.Aggregate != Scalar {
		sb.WriteByte(' ')
		sb.WriteString(t.Aggregate.String())
	}
	if t.Semantics != NoSemantics {
		sb.WriteByte(' ')
		sb.WriteString(t.Semantics.String())
	}
	switch {
	case t.ArrayLen > 0:
		fmt.Fprintf(&sb, "[%d]", t.ArrayLen)
	case t.ArrayLen < 0:
		sb.WriteString("[]")
	}
	return sb.String()
}
