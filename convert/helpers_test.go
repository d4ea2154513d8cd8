package convert

import (
	"context"
	"testing"

	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/blobstore"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/sampling"
	"github.com/hupe1980/sceneconv/scene"
	"github.com/stretchr/testify/require"
)

const fixtureName = "fixture.scn"

// fixture is an archive being written to a memory store.
type fixture struct {
	t     *testing.T
	store *blobstore.MemoryStore
	w     *archive.Writer
}

func newFixture(t *testing.T, opts ...archive.WriterOption) *fixture {
	t.Helper()
	store := blobstore.NewMemoryStore()
	w, err := archive.Create(context.Background(), store, fixtureName, opts...)
	require.NoError(t, err)
	return &fixture{t: t, store: store, w: w}
}

// object writes a child of the root with one sample per entry, at times
// 1, 2, ...
func (f *fixture) object(name, schema string, samples ...archive.Sample) *archive.OObject {
	f.t.Helper()
	obj, err := f.w.Root().CreateChild(name, schema)
	require.NoError(f.t, err)
	require.NoError(f.t, obj.SetTimeSampling(sampling.Uniform(1, 1, len(samples))))
	for _, s := range samples {
		require.NoError(f.t, obj.WriteSample(context.Background(), s))
	}
	return obj
}

// target returns a write target for a child of the root.
func (f *fixture) target(name string, typ scene.TypeID) WriteTarget {
	return WriteTarget{Parent: f.w.Root(), Name: name, Type: typ}
}

// open closes the writer and opens the archive.
func (f *fixture) open() *archive.Reader {
	f.t.Helper()
	ctx := context.Background()
	require.NoError(f.t, f.w.Close(ctx))
	r, err := archive.Open(ctx, f.store, fixtureName)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { _ = r.Close() })
	return r
}

func readerFor(t *testing.T, r *archive.Reader, path string, desired scene.TypeID, opts ...Option) ObjectReader {
	t.Helper()
	obj, ok := r.Find(path)
	require.True(t, ok, "object %s", path)
	rd, ok := NewReader(FromArchive(obj), desired, opts...)
	require.True(t, ok, "no reader for %s", path)
	return rd
}

func readFirst(t *testing.T, rd ObjectReader) scene.Object {
	t.Helper()
	obj, err := rd.ReadSample(context.Background(), sampling.Index(0))
	require.NoError(t, err)
	return obj
}

// prop encodes d as a property value with the given scope.
func prop(name string, scope archive.Scope, d data.Data) archive.PropertyValue {
	t, ok := FieldForData(d)
	if !ok {
		panic("no field type for " + d.TypeName())
	}
	return archive.PropertyValue{
		Header: archive.PropertyHeader{Name: name, Type: t, Scope: scope, Scalar: !d.IsArray()},
		Raw:    archive.EncodeData(d),
		Count:  d.Len(),
	}
}

func indexed(v archive.PropertyValue, indices ...int32) archive.PropertyValue {
	v.Header.Indexed = true
	v.Indices = indices
	return v
}

func quadPositions() data.Data {
	return data.NewArray([]data.V3f{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}).WithInterpretation(data.Point)
}

// rawQuad is a single-face PolyMesh sample as stored on disk.
func rawQuad(extra ...archive.PropertyValue) archive.Sample {
	props := []archive.PropertyValue{
		prop(archive.PropFaceCounts, archive.ScopeConstant, data.NewArray([]int32{4})),
		prop(archive.PropFaceIndices, archive.ScopeConstant, data.NewArray([]int32{0, 1, 2, 3})),
		prop(archive.PropPositions, archive.ScopeVertex, quadPositions()),
	}
	return archive.Sample{Properties: append(props, extra...)}
}

func decodeInt32s(t *testing.T, ps archive.PropertySample) []int32 {
	t.Helper()
	d, err := archive.DecodeData(data.KindInt, true, ps.Raw, ps.Count)
	require.NoError(t, err)
	v, _ := data.Values[int32](d)
	return v
}
