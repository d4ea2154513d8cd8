// Package scene is the target scene model produced by readers and consumed by
// writers: primitives with named primitive variables, their topology, and
// cameras.
//
// Every Primitive owns an insertion-ordered variable map. Each variable has an
// Interpolation that fixes how many elements its data (or its indices) must
// hold for the primitive's topology; Validate checks this.
//
//	mesh, err := scene.NewMesh([]int32{4}, []int32{0, 1, 2, 3}, scene.SchemeLinear, positions)
//	if err != nil { ... }
//	err = mesh.Variables().Set("Cs", scene.PrimitiveVariable{
//	    Interpolation: scene.Uniform,
//	    Data:          data.NewArray([]data.Color3f{{1, 0, 0}}),
//	})
package scene
