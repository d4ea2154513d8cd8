package convert

import (
	"context"

	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/scene"
)

// meshWriter writes meshes as PolyMesh, or as SubD when the first sample
// uses a subdivision scheme.
type meshWriter struct {
	archiveWriter
}

func newMeshWriter(t WriteTarget, o Options) ObjectWriter {
	return &meshWriter{archiveWriter: newArchiveWriter(t, o, scene.TypeMesh)}
}

func (w *meshWriter) Convert(ctx context.Context, obj scene.Object, time float64) error {
	if err := w.check(ctx, obj, time); err != nil {
		return err
	}
	src, ok := obj.(*scene.Mesh)
	if !ok {
		return w.mismatch(obj)
	}
	if err := scene.Validate(src); err != nil {
		return &SourceError{Path: w.path(), Err: err}
	}

	m := src.Copy().(*scene.Mesh)
	if err := m.ReverseWinding(); err != nil {
		return &SourceError{Path: w.path(), Err: err}
	}

	def := archive.SchemaPolyMesh
	if m.InterpolationScheme() != scene.SchemeLinear {
		def = archive.SchemaSubD
	}
	schema := w.schema(def)

	props := []archive.PropertyValue{
		value(archive.PropFaceCounts, data.NewArray(m.VerticesPerFace())),
		value(archive.PropFaceIndices, data.NewArray(m.VertexIDs())),
	}
	props = w.variable(props, m, "P", archive.PropPositions)
	props = w.variable(props, m, "N", archive.PropNormals)
	props = w.variable(props, m, "uv", archive.PropUV)
	props = w.variable(props, m, "velocity", archive.PropVelocities)
	props = append(props, boundsValue(m))

	if schema == archive.SchemaSubD {
		props = append(props, value(archive.PropScheme, data.NewValue(storedScheme(m.InterpolationScheme()))))
		if ids, sharp := m.Corners(); ids != nil {
			props = append(props,
				value(archive.PropCornerIndices, data.NewArray(ids)),
				value(archive.PropCornerSharp, data.NewArray(sharp)),
			)
		}
		if lengths, ids, sharp := m.Creases(); lengths != nil {
			props = append(props,
				value(archive.PropCreaseLengths, data.NewArray(lengths)),
				value(archive.PropCreaseIndices, data.NewArray(ids)),
				value(archive.PropCreaseSharp, data.NewArray(sharp)),
			)
		}
	}

	s := archive.Sample{
		Properties: props,
		Arbitrary:  w.arbitrary(m, "P", "N", "uv", "velocity"),
	}
	return w.commit(ctx, schema, s, time)
}
