package convert

import (
	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/data"
)

// FieldTraits is the container layout a source field converts to.
type FieldTraits struct {
	Kind           data.Kind
	Interpretation data.Interpretation
}

func pt(pod archive.POD, extent int, interp string) archive.PropertyType {
	return archive.PropertyType{POD: pod, Extent: extent, Interpretation: interp}
}

var fieldTable = map[archive.PropertyType]FieldTraits{
	pt(archive.PODBool, 1, ""):    {Kind: data.KindBool},
	pt(archive.PODUint8, 1, ""):   {Kind: data.KindUChar},
	pt(archive.PODInt32, 1, ""):   {Kind: data.KindInt},
	pt(archive.PODInt64, 1, ""):   {Kind: data.KindInt64},
	pt(archive.PODUint64, 1, ""):  {Kind: data.KindUInt64},
	pt(archive.PODFloat32, 1, ""): {Kind: data.KindFloat},
	pt(archive.PODFloat64, 1, ""): {Kind: data.KindDouble},
	pt(archive.PODString, 1, ""):  {Kind: data.KindString},

	pt(archive.PODFloat32, 2, ""):                    {Kind: data.KindV2f},
	pt(archive.PODFloat32, 2, archive.InterpPoint):   {Kind: data.KindV2f, Interpretation: data.Point},
	pt(archive.PODFloat32, 2, archive.InterpNormal):  {Kind: data.KindV2f, Interpretation: data.Normal},
	pt(archive.PODFloat32, 2, archive.InterpVector):  {Kind: data.KindV2f, Interpretation: data.Vector},
	pt(archive.PODFloat32, 2, archive.InterpUV):      {Kind: data.KindV2f, Interpretation: data.UV},
	pt(archive.PODFloat64, 2, ""):                    {Kind: data.KindV2d},
	pt(archive.PODFloat64, 2, archive.InterpPoint):   {Kind: data.KindV2d, Interpretation: data.Point},
	pt(archive.PODFloat64, 2, archive.InterpNormal):  {Kind: data.KindV2d, Interpretation: data.Normal},
	pt(archive.PODFloat64, 2, archive.InterpVector):  {Kind: data.KindV2d, Interpretation: data.Vector},
	pt(archive.PODFloat32, 3, ""):                    {Kind: data.KindV3f},
	pt(archive.PODFloat32, 3, archive.InterpPoint):   {Kind: data.KindV3f, Interpretation: data.Point},
	pt(archive.PODFloat32, 3, archive.InterpNormal):  {Kind: data.KindV3f, Interpretation: data.Normal},
	pt(archive.PODFloat32, 3, archive.InterpVector):  {Kind: data.KindV3f, Interpretation: data.Vector},
	pt(archive.PODFloat64, 3, ""):                    {Kind: data.KindV3d},
	pt(archive.PODFloat64, 3, archive.InterpPoint):   {Kind: data.KindV3d, Interpretation: data.Point},
	pt(archive.PODFloat64, 3, archive.InterpNormal):  {Kind: data.KindV3d, Interpretation: data.Normal},
	pt(archive.PODFloat64, 3, archive.InterpVector):  {Kind: data.KindV3d, Interpretation: data.Vector},
	pt(archive.PODFloat32, 3, archive.InterpRGB):     {Kind: data.KindColor3f},
	pt(archive.PODFloat32, 4, archive.InterpRGBA):    {Kind: data.KindColor4f},
	pt(archive.PODFloat32, 16, archive.InterpMatrix): {Kind: data.KindM44f},
	pt(archive.PODFloat64, 16, archive.InterpMatrix): {Kind: data.KindM44d},
	pt(archive.PODFloat32, 4, archive.InterpQuat):    {Kind: data.KindQuatf},
	pt(archive.PODFloat64, 4, archive.InterpQuat):    {Kind: data.KindQuatd},
	pt(archive.PODFloat32, 6, archive.InterpBox):     {Kind: data.KindBox3f},
	pt(archive.PODFloat64, 6, archive.InterpBox):     {Kind: data.KindBox3d},
}

// LookupField returns the container layout for a source field type.
// ok is false for types without a representation; callers skip those.
func LookupField(t archive.PropertyType) (FieldTraits, bool) {
	tr, ok := fieldTable[t]
	return tr, ok
}

// FieldForData returns the source field type that stores d.
func FieldForData(d data.Data) (archive.PropertyType, bool) {
	t, ok := fieldForKind(d.Kind())
	if !ok {
		return archive.PropertyType{}, false
	}
	if d.Kind().IsGeometric() {
		switch d.Interpretation() {
		case data.Point:
			t.Interpretation = archive.InterpPoint
		case data.Normal:
			t.Interpretation = archive.InterpNormal
		case data.Vector:
			t.Interpretation = archive.InterpVector
		case data.UV:
			t.Interpretation = archive.InterpUV
		}
		if _, ok := fieldTable[t]; !ok {
			t.Interpretation = ""
		}
	}
	return t, true
}

func fieldForKind(k data.Kind) (archive.PropertyType, bool) {
	switch k {
	case data.KindBool:
		return pt(archive.PODBool, 1, ""), true
	case data.KindUChar:
		return pt(archive.PODUint8, 1, ""), true
	case data.KindInt:
		return pt(archive.PODInt32, 1, ""), true
	case data.KindInt64:
		return pt(archive.PODInt64, 1, ""), true
	case data.KindUInt64:
		return pt(archive.PODUint64, 1, ""), true
	case data.KindFloat:
		return pt(archive.PODFloat32, 1, ""), true
	case data.KindDouble:
		return pt(archive.PODFloat64, 1, ""), true
	case data.KindString:
		return pt(archive.PODString, 1, ""), true
	case data.KindV2f:
		return pt(archive.PODFloat32, 2, ""), true
	case data.KindV2d:
		return pt(archive.PODFloat64, 2, ""), true
	case data.KindV3f:
		return pt(archive.PODFloat32, 3, ""), true
	case data.KindV3d:
		return pt(archive.PODFloat64, 3, ""), true
	case data.KindColor3f:
		return pt(archive.PODFloat32, 3, archive.InterpRGB), true
	case data.KindColor4f:
		return pt(archive.PODFloat32, 4, archive.InterpRGBA), true
	case data.KindM44f:
		return pt(archive.PODFloat32, 16, archive.InterpMatrix), true
	case data.KindM44d:
		return pt(archive.PODFloat64, 16, archive.InterpMatrix), true
	case data.KindQuatf:
		return pt(archive.PODFloat32, 4, archive.InterpQuat), true
	case data.KindQuatd:
		return pt(archive.PODFloat64, 4, archive.InterpQuat), true
	case data.KindBox3f:
		return pt(archive.PODFloat32, 6, archive.InterpBox), true
	case data.KindBox3d:
		return pt(archive.PODFloat64, 6, archive.InterpBox), true
	default:
		return archive.PropertyType{}, false
	}
}
