package convert

import (
	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/scene"
)

// ScopeToInterpolation maps an archive scope to an interpolation. Unknown
// scopes map to scene.Invalid.
func ScopeToInterpolation(s archive.Scope) scene.Interpolation {
	switch s {
	case archive.ScopeConstant:
		return scene.Constant
	case archive.ScopeUniform:
		return scene.Uniform
	case archive.ScopeVarying:
		return scene.Varying
	case archive.ScopeVertex:
		return scene.Vertex
	case archive.ScopeFaceVarying:
		return scene.FaceVarying
	default:
		return scene.Invalid
	}
}

// InterpolationToScope is the inverse of ScopeToInterpolation.
func InterpolationToScope(i scene.Interpolation) (archive.Scope, bool) {
	switch i {
	case scene.Constant:
		return archive.ScopeConstant, true
	case scene.Uniform:
		return archive.ScopeUniform, true
	case scene.Varying:
		return archive.ScopeVarying, true
	case scene.Vertex:
		return archive.ScopeVertex, true
	case scene.FaceVarying:
		return archive.ScopeFaceVarying, true
	default:
		return archive.ScopeUnknown, false
	}
}
