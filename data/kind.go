package data

// Kind is the element type tag of a container.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindChar
	KindUChar
	KindShort
	KindUShort
	KindInt
	KindUInt
	KindInt64
	KindUInt64
	KindHalf
	KindFloat
	KindDouble
	KindString
	KindV2i
	KindV3i
	KindV2f
	KindV3f
	KindV2d
	KindV3d
	KindColor3f
	KindColor4f
	KindBox2i
	KindBox2f
	KindBox2d
	KindBox3f
	KindBox3d
	KindM33f
	KindM44f
	KindM44d
	KindQuatf
	KindQuatd

	numKinds
)

var kindNames = [numKinds]string{
	KindInvalid: "Invalid",
	KindBool:    "Bool",
	KindChar:    "Char",
	KindUChar:   "UChar",
	KindShort:   "Short",
	KindUShort:  "UShort",
	KindInt:     "Int",
	KindUInt:    "UInt",
	KindInt64:   "Int64",
	KindUInt64:  "UInt64",
	KindHalf:    "Half",
	KindFloat:   "Float",
	KindDouble:  "Double",
	KindString:  "String",
	KindV2i:     "V2i",
	KindV3i:     "V3i",
	KindV2f:     "V2f",
	KindV3f:     "V3f",
	KindV2d:     "V2d",
	KindV3d:     "V3d",
	KindColor3f: "Color3f",
	KindColor4f: "Color4f",
	KindBox2i:   "Box2i",
	KindBox2f:   "Box2f",
	KindBox2d:   "Box2d",
	KindBox3f:   "Box3f",
	KindBox3d:   "Box3d",
	KindM33f:    "M33f",
	KindM44f:    "M44f",
	KindM44d:    "M44d",
	KindQuatf:   "Quatf",
	KindQuatd:   "Quatd",
}

// String returns the kind name, e.g. "V3f".
func (k Kind) String() string {
	if k >= numKinds {
		return "Invalid"
	}
	return kindNames[k]
}

// Valid reports whether k names a real element kind.
func (k Kind) Valid() bool {
	return k > KindInvalid && k < numKinds
}

// IsGeometric reports whether containers of this kind carry an Interpretation.
func (k Kind) IsGeometric() bool {
	switch k {
	case KindV2i, KindV3i, KindV2f, KindV3f, KindV2d, KindV3d:
		return true
	default:
		return false
	}
}

// Layout describes the fixed-size numeric layout of an element kind:
// the kind of one component and how many components an element has.
type Layout struct {
	Component Kind
	Count     int
}

var layouts = [numKinds]Layout{
	KindBool:    {KindBool, 1},
	KindChar:    {KindChar, 1},
	KindUChar:   {KindUChar, 1},
	KindShort:   {KindShort, 1},
	KindUShort:  {KindUShort, 1},
	KindInt:     {KindInt, 1},
	KindUInt:    {KindUInt, 1},
	KindInt64:   {KindInt64, 1},
	KindUInt64:  {KindUInt64, 1},
	KindHalf:    {KindHalf, 1},
	KindFloat:   {KindFloat, 1},
	KindDouble:  {KindDouble, 1},
	KindV2i:     {KindInt, 2},
	KindV3i:     {KindInt, 3},
	KindV2f:     {KindFloat, 2},
	KindV3f:     {KindFloat, 3},
	KindV2d:     {KindDouble, 2},
	KindV3d:     {KindDouble, 3},
	KindColor3f: {KindFloat, 3},
	KindColor4f: {KindFloat, 4},
	KindBox2i:   {KindInt, 4},
	KindBox2f:   {KindFloat, 4},
	KindBox2d:   {KindDouble, 4},
	KindBox3f:   {KindFloat, 6},
	KindBox3d:   {KindDouble, 6},
	KindM33f:    {KindFloat, 9},
	KindM44f:    {KindFloat, 16},
	KindM44d:    {KindDouble, 16},
	KindQuatf:   {KindFloat, 4},
	KindQuatd:   {KindDouble, 4},
}

// Layout returns the component layout of k. String and Invalid have Count 0.
func (k Kind) Layout() Layout {
	if k >= numKinds {
		return Layout{}
	}
	return layouts[k]
}

// Size returns the size in bytes of one element, or 0 for String and Invalid.
func (k Kind) Size() int {
	l := k.Layout()
	return componentSize(l.Component) * l.Count
}

func componentSize(k Kind) int {
	switch k {
	case KindBool, KindChar, KindUChar:
		return 1
	case KindShort, KindUShort, KindHalf:
		return 2
	case KindInt, KindUInt, KindFloat:
		return 4
	case KindInt64, KindUInt64, KindDouble:
		return 8
	default:
		return 0
	}
}

// Interpretation is the geometric meaning of V2/V3 data.
type Interpretation uint8

const (
	None Interpretation = iota
	Numeric
	Point
	Normal
	Vector
	Color
	UV
	Rational
)

func (i Interpretation) String() string {
	switch i {
	case None:
		return "None"
	case Numeric:
		return "Numeric"
	case Point:
		return "Point"
	case Normal:
		return "Normal"
	case Vector:
		return "Vector"
	case Color:
		return "Color"
	case UV:
		return "UV"
	case Rational:
		return "Rational"
	default:
		return "Unknown"
	}
}
