package scene

// TypeID identifies the concrete kind of a scene object.
type TypeID uint8

const (
	// TypeObject is the root of the hierarchy; every object IsA TypeObject.
	TypeObject TypeID = iota
	TypePrimitive
	TypeMesh
	TypeCurves
	TypePoints
	TypeCamera
)

var typeParents = map[TypeID]TypeID{
	TypePrimitive: TypeObject,
	TypeMesh:      TypePrimitive,
	TypeCurves:    TypePrimitive,
	TypePoints:    TypePrimitive,
	TypeCamera:    TypeObject,
}

// IsA reports whether t equals base or derives from it.
func (t TypeID) IsA(base TypeID) bool {
	for {
		if t == base {
			return true
		}
		parent, ok := typeParents[t]
		if !ok {
			return false
		}
		t = parent
	}
}

func (t TypeID) String() string {
	switch t {
	case TypeObject:
		return "Object"
	case TypePrimitive:
		return "Primitive"
	case TypeMesh:
		return "MeshPrimitive"
	case TypeCurves:
		return "CurvesPrimitive"
	case TypePoints:
		return "PointsPrimitive"
	case TypeCamera:
		return "Camera"
	default:
		return "Unknown"
	}
}

// Object is a freestanding scene value.
type Object interface {
	TypeID() TypeID
	// Copy returns a deep copy sharing no memory with the receiver.
	Copy() Object
}
