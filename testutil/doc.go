// Package testutil provides testing utilities for sceneconv.
//
// This package is intended for use in tests and benchmarks only.
// It provides synthetic scene objects, seeded random geometry and a
// slog handler that records diagnostics for assertions.
//
// # Synthetic Scenes
//
//	quad := testutil.Quad()            // indexed FaceVarying uv
//	curves := testutil.TwoCurves()     // 4+3 vertices, periodic Bezier
//	pts := testutil.NewRNG(seed).Points(100)
//
// # Diagnostics
//
//	rec := testutil.NewLogRecorder()
//	r, _ := convert.NewReader(src, scene.TypeMesh, convert.WithLogger(rec.Logger()))
//	warnings := rec.Warnings()
package testutil
