package convert

import (
	"context"

	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/sampling"
	"github.com/hupe1980/sceneconv/scene"
)

// meshReader reads PolyMesh objects. Archive faces wind clockwise; meshes
// are returned counter-clockwise, with FaceVarying data permuted to match.
type meshReader struct {
	archiveReader
	// legacy expands indexed uv and N instead of forwarding the indices.
	legacy bool
}

func newMeshReader(src Source, o Options) ObjectReader {
	return &meshReader{archiveReader: newArchiveReader(src, o)}
}

func newLegacyMeshReader(src Source, o Options) ObjectReader {
	return &meshReader{archiveReader: newArchiveReader(src, o), legacy: true}
}

func (r *meshReader) BoundsAt(ctx context.Context, sel sampling.Selector) (data.Box3d, error) {
	return r.primitiveBounds(ctx, sel, r.ReadSample)
}

func (r *meshReader) ReadSample(ctx context.Context, sel sampling.Selector) (scene.Object, error) {
	index, err := r.resolve(sel)
	if err != nil {
		return nil, err
	}
	m, err := r.readMesh(ctx, index, scene.SchemeLinear)
	if err != nil {
		return nil, err
	}
	if err := r.finishMesh(ctx, m, index); err != nil {
		return nil, err
	}
	return m, nil
}

// readMesh reads topology, positions and the standard variables.
func (r *meshReader) readMesh(ctx context.Context, index int, scheme string) (*scene.Mesh, error) {
	counts, err := readValues[int32](ctx, r.archiveReader, archive.PropFaceCounts, index)
	if err != nil {
		return nil, err
	}
	ids, err := readValues[int32](ctx, r.archiveReader, archive.PropFaceIndices, index)
	if err != nil {
		return nil, err
	}
	p, err := r.readPositions(ctx, index)
	if err != nil {
		return nil, err
	}
	m, err := scene.NewMesh(counts, ids, scheme, p)
	if err != nil {
		return nil, r.fail(archive.PropFaceCounts, err)
	}

	if err := r.readVariable(ctx, m, index, archive.PropUV, "uv", r.legacy); err != nil {
		return nil, err
	}
	if err := r.readVariable(ctx, m, index, archive.PropNormals, "N", r.legacy); err != nil {
		return nil, err
	}
	if err := r.readVariable(ctx, m, index, archive.PropVelocities, "velocity", false); err != nil {
		return nil, err
	}
	return m, nil
}

// finishMesh adds arbitrary parameters, then flips the winding so they are
// permuted along with the standard variables.
func (r *meshReader) finishMesh(ctx context.Context, m *scene.Mesh, index int) error {
	if err := ReadArbitrary(ctx, r.obj, index, m, r.logger); err != nil {
		return err
	}
	if err := m.ReverseWinding(); err != nil {
		return r.fail("", err)
	}
	return r.validate(m)
}

// subdReader reads SubD objects: a mesh plus scheme, corners and creases.
type subdReader struct {
	meshReader
}

func newSubDReader(src Source, o Options) ObjectReader {
	return &subdReader{meshReader: meshReader{archiveReader: newArchiveReader(src, o)}}
}

func (r *subdReader) BoundsAt(ctx context.Context, sel sampling.Selector) (data.Box3d, error) {
	return r.primitiveBounds(ctx, sel, r.ReadSample)
}

func (r *subdReader) ReadSample(ctx context.Context, sel sampling.Selector) (scene.Object, error) {
	index, err := r.resolve(sel)
	if err != nil {
		return nil, err
	}
	scheme, err := readScalar(ctx, r.archiveReader, archive.PropScheme, index, "catmull-clark")
	if err != nil {
		return nil, err
	}
	m, err := r.readMesh(ctx, index, subdScheme(scheme))
	if err != nil {
		return nil, err
	}

	cornerIDs, err := readOptionalValues[int32](ctx, r.archiveReader, archive.PropCornerIndices, index)
	if err != nil {
		return nil, err
	}
	if cornerIDs != nil {
		sharp, err := readValues[float32](ctx, r.archiveReader, archive.PropCornerSharp, index)
		if err != nil {
			return nil, err
		}
		if err := m.SetCorners(cornerIDs, sharp); err != nil {
			return nil, r.fail(archive.PropCornerIndices, err)
		}
	}

	creaseLengths, err := readOptionalValues[int32](ctx, r.archiveReader, archive.PropCreaseLengths, index)
	if err != nil {
		return nil, err
	}
	if creaseLengths != nil {
		ids, err := readValues[int32](ctx, r.archiveReader, archive.PropCreaseIndices, index)
		if err != nil {
			return nil, err
		}
		sharp, err := readValues[float32](ctx, r.archiveReader, archive.PropCreaseSharp, index)
		if err != nil {
			return nil, err
		}
		if err := m.SetCreases(creaseLengths, ids, sharp); err != nil {
			return nil, r.fail(archive.PropCreaseLengths, err)
		}
	}

	if err := r.finishMesh(ctx, m, index); err != nil {
		return nil, err
	}
	return m, nil
}

// subdScheme maps a stored scheme name to a mesh interpolation scheme. Only
// the hyphenated Catmull-Clark spelling is rewritten.
func subdScheme(s string) string {
	if s == "catmull-clark" {
		return scene.SchemeCatmullClark
	}
	return s
}

// storedScheme is the inverse of subdScheme.
func storedScheme(s string) string {
	if s == scene.SchemeCatmullClark {
		return "catmull-clark"
	}
	return s
}
