// Package data defines the typed value containers shared by every converter.
//
// A container is either a single value (Value) or a contiguous sequence
// (Array) of one element Kind. The kind is derived from the Go element type,
// so the tag and the storage can never disagree.
//
// # Element Kinds
//
//   - Scalars: Bool, Char, UChar, Short, UShort, Int, UInt, Int64, UInt64,
//     Half, Float, Double, String
//   - Vectors: V2i, V3i, V2f, V3f, V2d, V3d, Color3f, Color4f
//   - Boxes: Box2i, Box2f, Box2d, Box3f, Box3d
//   - Transforms: M33f, M44f, M44d, Quatf, Quatd
//
// # Geometric Interpretation
//
// V2 and V3 containers carry an Interpretation (Point, Normal, Vector, Color,
// UV, ...). All other kinds always report None.
//
//	p := data.NewArray([]data.V3f{{0, 0, 0}, {1, 0, 0}}).WithInterpretation(data.Point)
//	p.Interpretation() // data.Point
//	p.TypeName()       // "V3fArray"
package data
