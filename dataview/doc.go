// Package dataview projects data containers onto untyped memory views and
// back.
//
// A View pairs a raw pointer with a TypeDesc in the style of image library
// attribute types: a base component type, an aggregate (scalar, vector or
// matrix), a semantic hint and an array length. Views share memory with the
// container they came from, so they can be handed to foreign array APIs
// without copying. Reconstruct copies a view into a new container.
//
// Bounding boxes are described as two Vec2 or Vec3 aggregates with Box
// semantics, so a box and a pair of vectors share a layout. A view with
// ArrayLen 2, Box semantics and no element count is a single box.
//
// There is no bool base type; ViewOf rejects bool data with ErrUnsupported.
package dataview
