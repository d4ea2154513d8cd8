package archive

import (
	"fmt"
	"strings"
)

// Format versions. Version 1 archives are read through the legacy readers.
const (
	FormatVersionLegacy  = 1
	FormatVersionCurrent = 2
)

// Schemas.
const (
	SchemaXform    = "Xform"
	SchemaPolyMesh = "PolyMesh"
	SchemaSubD     = "SubD"
	SchemaCurves   = "Curves"
	SchemaPoints   = "Points"
	SchemaCamera   = "Camera"
)

// Standard property names.
const (
	PropPositions     = "P"
	PropNormals       = "N"
	PropUV            = "uv"
	PropVelocities    = ".velocities"
	PropSelfBounds    = ".selfBnds"
	PropFaceCounts    = ".faceCounts"
	PropFaceIndices   = ".faceIndices"
	PropScheme        = ".scheme"
	PropCornerIndices = ".cornerIndices"
	PropCornerSharp   = ".cornerSharpnesses"
	PropCreaseLengths = ".creaseLengths"
	PropCreaseIndices = ".creaseIndices"
	PropCreaseSharp   = ".creaseSharpnesses"
	PropNumVertices   = "nVertices"
	PropCurveType     = ".curveType"
	PropWrap          = ".wrap"
	PropBasis         = ".basis"
	PropWidths        = "widths"
	PropPointIDs      = ".pointIds"
	PropFocalLength   = ".focalLength"
	PropHAperture     = ".horizontalAperture"
	PropVAperture     = ".verticalAperture"
	PropHFilmOffset   = ".horizontalFilmOffset"
	PropVFilmOffset   = ".verticalFilmOffset"
	PropLensSqueeze   = ".lensSqueezeRatio"
	PropNearClipping  = ".nearClippingPlane"
	PropFarClipping   = ".farClippingPlane"
)

// Curve type, wrap and basis values stored in the .curveType, .wrap and
// .basis properties.
const (
	CurveTypeLinear = "linear"
	CurveTypeCubic  = "cubic"

	WrapPeriodic    = "periodic"
	WrapNonPeriodic = "nonperiodic"

	BasisNone       = "none"
	BasisBezier     = "bezier"
	BasisBSpline    = "bspline"
	BasisCatmullRom = "catmullrom"
	BasisHermite    = "hermite"
	BasisPower      = "power"
)

// POD is the plain-old-data component type of a property.
type POD uint8

const (
	PODUnknown POD = iota
	PODBool
	PODUint8
	PODInt8
	PODUint16
	PODInt16
	PODUint32
	PODInt32
	PODUint64
	PODInt64
	PODFloat16
	PODFloat32
	PODFloat64
	PODString
)

var podNames = [...]string{
	PODUnknown: "unknown",
	PODBool:    "bool",
	PODUint8:   "uint8",
	PODInt8:    "int8",
	PODUint16:  "uint16",
	PODInt16:   "int16",
	PODUint32:  "uint32",
	PODInt32:   "int32",
	PODUint64:  "uint64",
	PODInt64:   "int64",
	PODFloat16: "float16",
	PODFloat32: "float32",
	PODFloat64: "float64",
	PODString:  "string",
}

func (p POD) String() string {
	if int(p) < len(podNames) {
		return podNames[p]
	}
	return fmt.Sprintf("POD(%d)", uint8(p))
}

// Size returns the byte size of one component, or 0 for strings and unknown
// PODs.
func (p POD) Size() int {
	switch p {
	case PODBool, PODUint8, PODInt8:
		return 1
	case PODUint16, PODInt16, PODFloat16:
		return 2
	case PODUint32, PODInt32, PODFloat32:
		return 4
	case PODUint64, PODInt64, PODFloat64:
		return 8
	default:
		return 0
	}
}

// Interpretation hints.
const (
	InterpNone   = ""
	InterpPoint  = "point"
	InterpNormal = "normal"
	InterpVector = "vector"
	InterpUV     = "uv"
	InterpRGB    = "rgb"
	InterpRGBA   = "rgba"
	InterpMatrix = "matrix"
	InterpQuat   = "quat"
	InterpBox    = "box"
)

// PropertyType is the static type tag of a property: a POD, the number of
// PODs per element and an optional interpretation hint.
type PropertyType struct {
	POD            POD    `json:"pod"`
	Extent         int    `json:"extent"`
	Interpretation string `json:"interpretation,omitempty"`
}

// ElementSize returns the byte size of one element, or 0 for strings.
func (t PropertyType) ElementSize() int {
	return t.POD.Size() * t.Extent
}

func (t PropertyType) String() string {
	var b strings.Builder
	b.WriteString(t.POD.String())
	if t.Extent != 1 {
		fmt.Fprintf(&b, "[%d]", t.Extent)
	}
	if t.Interpretation != "" {
		b.WriteString(":")
		b.WriteString(t.Interpretation)
	}
	return b.String()
}

// Scope says how a property's elements map onto the geometry.
type Scope uint8

const (
	ScopeConstant Scope = iota
	ScopeUniform
	ScopeVarying
	ScopeVertex
	ScopeFaceVarying
	ScopeUnknown
)

func (s Scope) String() string {
	switch s {
	case ScopeConstant:
		return "constant"
	case ScopeUniform:
		return "uniform"
	case ScopeVarying:
		return "varying"
	case ScopeVertex:
		return "vertex"
	case ScopeFaceVarying:
		return "facevarying"
	default:
		return "unknown"
	}
}

// PropertyHeader describes a property.
type PropertyHeader struct {
	Name  string       `json:"name"`
	Type  PropertyType `json:"type"`
	Scope Scope        `json:"scope"`
	// ArrayExtent is the number of elements making up one logical value.
	// Zero means 1.
	ArrayExtent int `json:"array_extent,omitempty"`
	// Scalar properties hold exactly one value per sample.
	Scalar  bool `json:"scalar,omitempty"`
	Indexed bool `json:"indexed,omitempty"`
}

// Extent returns ArrayExtent with the zero value mapped to 1.
func (h PropertyHeader) Extent() int {
	if h.ArrayExtent <= 0 {
		return 1
	}
	return h.ArrayExtent
}

func (h PropertyHeader) sameLayout(o PropertyHeader) bool {
	return h.Type == o.Type && h.Scope == o.Scope && h.Extent() == o.Extent() &&
		h.Scalar == o.Scalar && h.Indexed == o.Indexed
}

// PropertyValue is one sample of a property handed to the writer.
type PropertyValue struct {
	Header PropertyHeader
	// Raw holds Count elements encoded as described by Header.Type.
	Raw   []byte
	Count int
	// Indices is required when Header.Indexed is set.
	Indices []int32
}

// Sample is everything written for one object at one time.
type Sample struct {
	Properties []PropertyValue
	Arbitrary  []PropertyValue
}

// PropertySample is one sample of a property returned by the reader.
type PropertySample struct {
	Header  PropertyHeader
	Raw     []byte
	Count   int
	Indices []int32
}
