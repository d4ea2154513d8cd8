package archive

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/sceneconv/blobstore"
	"github.com/hupe1980/sceneconv/codec"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/internal/cache"
	"github.com/hupe1980/sceneconv/internal/resource"
	"github.com/hupe1980/sceneconv/sampling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func positions(offset float32) PropertyValue {
	d := data.NewArray([]data.V3f{{offset, 0, 0}, {1, offset, 0}, {1, 1, offset}, {0, 1, 0}})
	return PropertyValue{
		Header: PropertyHeader{Name: PropPositions, Type: PropertyType{POD: PODFloat32, Extent: 3, Interpretation: InterpPoint}, Scope: ScopeVertex},
		Raw:    EncodeData(d),
		Count:  d.Len(),
	}
}

func int32Prop(name string, values ...int32) PropertyValue {
	return PropertyValue{
		Header: PropertyHeader{Name: name, Type: PropertyType{POD: PODInt32, Extent: 1}},
		Raw:    EncodeData(data.NewArray(values)),
		Count:  len(values),
	}
}

func uvProp() PropertyValue {
	d := data.NewArray([]data.V2f{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
	return PropertyValue{
		Header:  PropertyHeader{Name: PropUV, Type: PropertyType{POD: PODFloat32, Extent: 2, Interpretation: InterpUV}, Scope: ScopeFaceVarying, Indexed: true},
		Raw:     EncodeData(d),
		Count:   d.Len(),
		Indices: []int32{0, 1, 2, 3},
	}
}

func quadSample(offset float32) Sample {
	return Sample{
		Properties: []PropertyValue{
			positions(offset),
			int32Prop(PropFaceCounts, 4),
			int32Prop(PropFaceIndices, 0, 1, 2, 3),
			uvProp(),
		},
	}
}

func writeQuad(t *testing.T, store blobstore.BlobStore, name string, samples int, opts ...WriterOption) *Writer {
	t.Helper()
	ctx := context.Background()

	w, err := Create(ctx, store, name, opts...)
	require.NoError(t, err)

	geo, err := w.Root().CreateChild("geo", SchemaXform)
	require.NoError(t, err)
	mesh, err := geo.CreateChild("quad", SchemaPolyMesh)
	require.NoError(t, err)
	require.NoError(t, mesh.SetTimeSampling(sampling.Uniform(1, 1, samples)))

	for i := range samples {
		require.NoError(t, mesh.WriteSample(ctx, quadSample(float32(i))))
	}
	require.NoError(t, w.Close(ctx))
	return w
}

func TestWriteRead_RoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			ctx := context.Background()
			store := blobstore.NewMemoryStore()
			w := writeQuad(t, store, "shot.scn", 3, WithCompression(c))

			r, err := Open(ctx, store, "shot.scn")
			require.NoError(t, err)
			defer r.Close()

			assert.Equal(t, FormatVersionCurrent, r.FormatVersion())
			assert.Equal(t, c, r.Compression())
			assert.Equal(t, w.ArchiveID().String(), r.ArchiveID())
			assert.False(t, r.CreatedAt().IsZero())

			mesh, ok := r.Find("/geo/quad")
			require.True(t, ok)
			assert.Equal(t, "/geo/quad", mesh.Path())
			assert.Equal(t, SchemaPolyMesh, mesh.Schema())
			assert.Equal(t, 3, mesh.NumSamples())
			assert.Equal(t, []float64{1, 2, 3}, mesh.TimeSampling().Times())

			ps, err := mesh.ReadProperty(ctx, PropPositions, 2)
			require.NoError(t, err)
			assert.Equal(t, InterpPoint, ps.Header.Type.Interpretation)
			d, err := DecodeData(data.KindV3f, true, ps.Raw, ps.Count)
			require.NoError(t, err)
			p, _ := data.Values[data.V3f](d)
			assert.Equal(t, data.V3f{2, 0, 0}, p[0])

			uv, err := mesh.ReadProperty(ctx, PropUV, 0)
			require.NoError(t, err)
			assert.True(t, uv.Header.Indexed)
			assert.Equal(t, []int32{0, 1, 2, 3}, uv.Indices)
			assert.Equal(t, ScopeFaceVarying, uv.Header.Scope)
		})
	}
}

func TestWriter_DedupsIdenticalBlocks(t *testing.T) {
	store := blobstore.NewMemoryStore()
	w := writeQuad(t, store, "dedup.scn", 3)

	// P differs per sample. The uv indices encode to the same bytes as the
	// face indices, and everything but P repeats in later samples.
	assert.Equal(t, 3+3, w.blocks)
	assert.Equal(t, 1+2*4, w.dedupHits)
}

func TestWriter_OmittedPropertyRepeatsLastSample(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	w, err := Create(ctx, store, "repeat.scn")
	require.NoError(t, err)
	pts, err := w.Root().CreateChild("pts", SchemaPoints)
	require.NoError(t, err)
	require.NoError(t, pts.SetTimeSampling(sampling.Uniform(0, 1, 3)))

	require.NoError(t, pts.WriteSample(ctx, Sample{Properties: []PropertyValue{positions(0)}}))
	require.NoError(t, pts.WriteSample(ctx, Sample{
		Properties: []PropertyValue{positions(1)},
		Arbitrary:  []PropertyValue{int32Prop("tag", 7)},
	}))
	require.NoError(t, pts.WriteSample(ctx, Sample{}))
	require.NoError(t, w.Close(ctx))

	r, err := Open(ctx, store, "repeat.scn")
	require.NoError(t, err)
	obj, ok := r.Find("pts")
	require.True(t, ok)

	last, err := obj.ReadProperty(ctx, PropPositions, 2)
	require.NoError(t, err)
	prev, err := obj.ReadProperty(ctx, PropPositions, 1)
	require.NoError(t, err)
	assert.Equal(t, prev.Raw, last.Raw)

	_, err = obj.ReadArbitrary(ctx, "tag", 0)
	assert.ErrorIs(t, err, ErrPropertyNotFound)
	assert.False(t, obj.HasProperty("tag", 0))

	tag, err := obj.ReadArbitrary(ctx, "tag", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, tag.Count)
	assert.Equal(t, []PropertyHeader{int32Prop("tag").Header}, obj.Arbitrary())

	_, err = obj.ReadProperty(ctx, PropPositions, 3)
	assert.ErrorIs(t, err, ErrSampleOutOfRange)
}

func TestWriter_FailedSampleLeavesObjectUnchanged(t *testing.T) {
	ctx := context.Background()
	w, err := Create(ctx, blobstore.NewMemoryStore(), "bad.scn")
	require.NoError(t, err)
	mesh, err := w.Root().CreateChild("m", SchemaPolyMesh)
	require.NoError(t, err)
	require.NoError(t, mesh.SetTimeSampling(sampling.Uniform(0, 1, 4)))
	require.NoError(t, mesh.WriteSample(ctx, quadSample(0)))

	bad := positions(1)
	bad.Raw = bad.Raw[:5]
	err = mesh.WriteSample(ctx, Sample{Properties: []PropertyValue{bad}})
	assert.ErrorIs(t, err, ErrInvalidValue)

	changed := int32Prop(PropPositions, 1, 2, 3)
	err = mesh.WriteSample(ctx, Sample{Properties: []PropertyValue{changed}})
	assert.ErrorIs(t, err, ErrPropertyMismatch)

	outOfRange := uvProp()
	outOfRange.Indices = []int32{0, 9}
	err = mesh.WriteSample(ctx, Sample{Properties: []PropertyValue{outOfRange}})
	assert.ErrorIs(t, err, ErrInvalidValue)

	err = mesh.WriteSample(ctx, Sample{Properties: []PropertyValue{positions(1), positions(2)}})
	assert.ErrorIs(t, err, ErrInvalidValue)

	assert.Equal(t, 1, mesh.NumSamples())
}

func TestWriter_TimeSampling(t *testing.T) {
	ctx := context.Background()
	w, err := Create(ctx, blobstore.NewMemoryStore(), "ts.scn")
	require.NoError(t, err)
	obj, err := w.Root().CreateChild("o", SchemaPoints)
	require.NoError(t, err)

	err = obj.WriteSample(ctx, Sample{Properties: []PropertyValue{positions(0)}})
	assert.ErrorIs(t, err, ErrTimeSampling)

	ts, err := sampling.New(1)
	require.NoError(t, err)
	require.NoError(t, obj.SetTimeSampling(ts))
	require.NoError(t, obj.WriteSample(ctx, Sample{Properties: []PropertyValue{positions(0)}}))

	moved, err := sampling.New(2, 3)
	require.NoError(t, err)
	assert.ErrorIs(t, obj.SetTimeSampling(moved), ErrTimeSampling)

	extended, err := ts.Append(2)
	require.NoError(t, err)
	require.NoError(t, obj.SetTimeSampling(extended))
	assert.Equal(t, []float64{1, 2}, obj.TimeSampling().Times())

	err = w.Root().WriteSample(ctx, Sample{})
	assert.Error(t, err)
}

func TestWriter_CreateChild(t *testing.T) {
	ctx := context.Background()
	w, err := Create(ctx, blobstore.NewMemoryStore(), "tree.scn")
	require.NoError(t, err)

	a, err := w.Root().CreateChild("a", SchemaXform)
	require.NoError(t, err)
	b, err := a.CreateChild("b", SchemaCamera)
	require.NoError(t, err)
	assert.Equal(t, "/a/b", b.Path())
	assert.Equal(t, "/", w.Root().Path())

	_, err = a.CreateChild("b", SchemaCamera)
	assert.ErrorIs(t, err, ErrObjectExists)
	_, err = a.CreateChild("x/y", SchemaXform)
	assert.Error(t, err)

	got, ok := a.Child("b")
	require.True(t, ok)
	assert.Same(t, b, got)

	require.NoError(t, w.Close(ctx))
	assert.ErrorIs(t, w.Close(ctx), ErrClosed)
	_, err = a.CreateChild("c", SchemaXform)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReader_ChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	writeQuad(t, store, "rot.scn", 1, WithCompression(CompressionNone))

	r, err := Open(ctx, store, "rot.scn")
	require.NoError(t, err)
	mesh, _ := r.Find("/geo/quad")
	off := mesh.props[PropPositions].Samples[0].Data.Offset
	require.NoError(t, r.Close())

	raw, err := blobstore.ReadAll(ctx, store, "rot.scn")
	require.NoError(t, err)
	raw[off+blockHeaderSize] ^= 0xff
	require.NoError(t, store.Put(ctx, "rot.scn", raw))

	r, err = Open(ctx, store, "rot.scn")
	require.NoError(t, err)
	defer r.Close()
	mesh, _ = r.Find("/geo/quad")

	_, err = mesh.ReadProperty(ctx, PropPositions, 0)
	var ce *ChecksumError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "rot.scn", ce.Archive)
	assert.Equal(t, off, ce.Offset)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = mesh.ReadProperty(ctx, PropFaceCounts, 0)
	assert.NoError(t, err)
}

func TestOpen_Rejects(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	require.NoError(t, store.Put(ctx, "text.scn", bytes.Repeat([]byte("not an archive "), 4)))
	_, err := Open(ctx, store, "text.scn")
	assert.ErrorIs(t, err, ErrNotArchive)
	assert.Contains(t, err.Error(), "text.scn")

	require.NoError(t, store.Put(ctx, "tiny.scn", []byte("SCNA")))
	_, err = Open(ctx, store, "tiny.scn")
	assert.ErrorIs(t, err, ErrNotArchive)

	writeQuad(t, store, "v9.scn", 1)
	raw, err := blobstore.ReadAll(ctx, store, "v9.scn")
	require.NoError(t, err)
	raw[4] = 9
	require.NoError(t, store.Put(ctx, "v9.scn", raw))
	_, err = Open(ctx, store, "v9.scn")
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = Open(ctx, store, "missing.scn")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	_, err = Create(ctx, store, "bad.scn", WithFormatVersion(7))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestLegacyFormatVersion(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	writeQuad(t, store, "old.scn", 1, WithFormatVersion(FormatVersionLegacy), WithCodec(codec.JSON{}))

	r, err := Open(ctx, store, "old.scn")
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, FormatVersionLegacy, r.FormatVersion())
	assert.Equal(t, "json", r.Codec())
	mesh, ok := r.Find("/geo/quad")
	require.True(t, ok)
	assert.Equal(t, FormatVersionLegacy, mesh.FormatVersion())
}

func TestObject_Bounds(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	w, err := Create(ctx, store, "bounds.scn")
	require.NoError(t, err)
	for i, name := range []string{"a", "b"} {
		obj, err := w.Root().CreateChild(name, SchemaPoints)
		require.NoError(t, err)
		require.NoError(t, obj.SetTimeSampling(sampling.Uniform(0, 1, 2)))
		for s := range 2 {
			box := data.Box3d{Min: data.V3d{float64(i), 0, 0}, Max: data.V3d{float64(i + 1), float64(s + 1), 1}}
			bnds := PropertyValue{
				Header: PropertyHeader{Name: PropSelfBounds, Type: PropertyType{POD: PODFloat64, Extent: 6, Interpretation: InterpBox}, Scalar: true},
				Raw:    EncodeData(data.NewValue(box)),
				Count:  1,
			}
			require.NoError(t, obj.WriteSample(ctx, Sample{Properties: []PropertyValue{bnds}}))
		}
	}
	_, err = w.Root().CreateChild("empty", SchemaXform)
	require.NoError(t, err)
	require.NoError(t, w.Close(ctx))

	r, err := Open(ctx, store, "bounds.scn")
	require.NoError(t, err)
	defer r.Close()

	b, _ := r.Find("/b")
	box, err := b.Bounds(ctx, sampling.Time(0.9, sampling.Nearest))
	require.NoError(t, err)
	assert.Equal(t, data.Box3d{Min: data.V3d{1, 0, 0}, Max: data.V3d{2, 2, 1}}, box)

	all, err := r.Root().Bounds(ctx, sampling.Index(0))
	require.NoError(t, err)
	assert.Equal(t, data.Box3d{Min: data.V3d{0, 0, 0}, Max: data.V3d{2, 1, 1}}, all)
}

func TestReader_BlockCache(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	writeQuad(t, store, "cached.scn", 2)

	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20})
	c := cache.NewLRUBlockCache(1<<16, rc)
	r, err := Open(ctx, store, "cached.scn", WithBlockCache(c), WithResourceController(rc))
	require.NoError(t, err)

	mesh, _ := r.Find("/geo/quad")
	for range 3 {
		_, err := mesh.ReadProperty(ctx, PropPositions, 1)
		require.NoError(t, err)
	}
	hits, misses := c.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, r.Close())
	assert.Equal(t, 0, c.Len())
}

func TestReader_Walk(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	writeQuad(t, store, "walk.scn", 1)

	r, err := Open(ctx, store, "walk.scn")
	require.NoError(t, err)
	defer r.Close()

	var paths []string
	require.NoError(t, r.Walk(func(o *Object) error {
		paths = append(paths, o.Path())
		return nil
	}))
	assert.Equal(t, []string{"/", "/geo", "/geo/quad"}, paths)

	stop := errors.New("stop")
	assert.ErrorIs(t, r.Walk(func(*Object) error { return stop }), stop)

	_, ok := r.Find("/geo/missing")
	assert.False(t, ok)
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	_, err := OpenCurrent(ctx, store)
	assert.ErrorIs(t, err, ErrNothingPublished)

	writeQuad(t, store, "shot-v001.scn", 1)
	writeQuad(t, store, "shot-v002.scn", 2)
	require.NoError(t, Publish(ctx, store, "shot-v001.scn"))
	require.NoError(t, Publish(ctx, store, "shot-v002.scn"))

	r, err := OpenCurrent(ctx, store)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, "shot-v002.scn", r.Name())

	assert.Error(t, Publish(ctx, store, "missing.scn"))
	assert.Error(t, Publish(ctx, store, CurrentName))
	name, err := Current(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "shot-v002.scn", name)
}
