package convert

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/sampling"
	"github.com/hupe1980/sceneconv/scene"
	"github.com/hupe1980/sceneconv/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writerFor(t *testing.T, f *fixture, name string, typ scene.TypeID, opts ...Option) ObjectWriter {
	t.Helper()
	w, ok := NewWriter(f.target(name, typ), opts...)
	require.True(t, ok)
	return w
}

func TestMeshWriter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	quad := testutil.Quad()

	w := writerFor(t, f, "quad", scene.TypeMesh)
	assert.Equal(t, scene.TypeMesh, w.SupportedType())
	require.NoError(t, w.Convert(ctx, quad, 1))
	assert.Equal(t, []float64{1}, w.SampleTimes())

	r := f.open()
	obj, ok := r.Find("/quad")
	require.True(t, ok)
	assert.Equal(t, archive.SchemaPolyMesh, obj.Schema())

	// Stored with the archive's winding.
	ps, err := obj.ReadProperty(ctx, archive.PropFaceIndices, 0)
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 2, 1, 0}, decodeInt32s(t, ps))

	m := readFirst(t, readerFor(t, r, "/quad", scene.TypeMesh)).(*scene.Mesh)
	assert.Equal(t, quad.VertexIDs(), m.VertexIDs())
	assert.Equal(t, quad.VerticesPerFace(), m.VerticesPerFace())

	want, _ := quad.Variables().Get("uv")
	got, ok := m.Variables().Get("uv")
	require.True(t, ok)
	assert.True(t, want.Equal(got))

	p, _ := m.Variables().Get("P")
	wantP, _ := quad.Variables().Get("P")
	assert.True(t, wantP.Data.Equal(p.Data))

	// The source object is not modified.
	assert.Equal(t, []int32{0, 1, 2, 3}, quad.VertexIDs())
}

func TestMeshWriter_SubD(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cube := testutil.Cube(scene.SchemeCatmullClark)
	require.NoError(t, cube.SetCorners([]int32{0, 6}, []float32{2, 3}))
	require.NoError(t, cube.SetCreases([]int32{3}, []int32{0, 1, 2}, []float32{4}))

	require.NoError(t, writerFor(t, f, "cube", scene.TypeMesh).Convert(ctx, cube, 0))

	r := f.open()
	obj, ok := r.Find("/cube")
	require.True(t, ok)
	assert.Equal(t, archive.SchemaSubD, obj.Schema())
	ps, err := obj.ReadProperty(ctx, archive.PropScheme, 0)
	require.NoError(t, err)
	s, err := archive.DecodeStrings(ps.Raw, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"catmull-clark"}, s)

	m := readFirst(t, readerFor(t, r, "/cube", scene.TypeMesh)).(*scene.Mesh)
	assert.Equal(t, scene.SchemeCatmullClark, m.InterpolationScheme())
	assert.Equal(t, cube.VertexIDs(), m.VertexIDs())
	ids, sharp := m.Corners()
	assert.Equal(t, []int32{0, 6}, ids)
	assert.Equal(t, []float32{2, 3}, sharp)
	lengths, cids, csharp := m.Creases()
	assert.Equal(t, []int32{3}, lengths)
	assert.Equal(t, []int32{0, 1, 2}, cids)
	assert.Equal(t, []float32{4}, csharp)
}

func TestCurvesWriter_RoundTrip(t *testing.T) {
	f := newFixture(t)
	curves := testutil.TwoCurves()

	require.NoError(t, writerFor(t, f, "curves", scene.TypeCurves).Convert(context.Background(), curves, 1))

	c := readFirst(t, readerFor(t, f.open(), "/curves", scene.TypeCurves)).(*scene.Curves)
	assert.Equal(t, []int32{4, 3}, c.VerticesPerCurve())
	assert.Equal(t, scene.BasisBezier, c.Basis())
	assert.True(t, c.Periodic())

	want, _ := curves.Variables().Get("foo")
	got, ok := c.Variables().Get("foo")
	require.True(t, ok)
	assert.True(t, want.Equal(got))
}

func TestPointsWriter_RoundTrip(t *testing.T) {
	f := newFixture(t)
	pts := testutil.NewRNG(7).Points(10)

	require.NoError(t, writerFor(t, f, "pts", scene.TypePoints).Convert(context.Background(), pts, 1))

	p := readFirst(t, readerFor(t, f.open(), "/pts", scene.TypePoints)).(*scene.Points)
	assert.Equal(t, 10, p.NumPoints())
	for _, name := range []string{"P", "id", "width"} {
		want, _ := pts.Variables().Get(name)
		got, ok := p.Variables().Get(name)
		require.True(t, ok, name)
		assert.True(t, want.Equal(got), name)
	}
}

func TestPointsWriter_GeneratesIDs(t *testing.T) {
	f := newFixture(t)
	pts, err := scene.NewPoints(3, data.NewArray([]data.V3f{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}))
	require.NoError(t, err)

	require.NoError(t, writerFor(t, f, "pts", scene.TypePoints).Convert(context.Background(), pts, 1))

	p := readFirst(t, readerFor(t, f.open(), "/pts", scene.TypePoints)).(*scene.Points)
	id, ok := p.Variables().Get("id")
	require.True(t, ok)
	assert.True(t, id.Data.Equal(data.NewArray([]int64{0, 1, 2})))
}

func TestArbitraryRoundTrip_AllKinds(t *testing.T) {
	values := map[string]data.Data{
		"b":    data.NewValue(true),
		"u8":   data.NewValue(uint8(7)),
		"i":    data.NewValue(int32(-3)),
		"i64":  data.NewValue(int64(1 << 40)),
		"u64":  data.NewValue(uint64(1 << 63)),
		"f":    data.NewValue(float32(1.5)),
		"d":    data.NewValue(2.5),
		"s":    data.NewValue("hello"),
		"v2f":  data.NewValue(data.V2f{1, 2}).WithInterpretation(data.UV),
		"v2d":  data.NewValue(data.V2d{1, 2}),
		"v3f":  data.NewValue(data.V3f{1, 2, 3}).WithInterpretation(data.Normal),
		"v3d":  data.NewValue(data.V3d{1, 2, 3}).WithInterpretation(data.Vector),
		"c3":   data.NewValue(data.Color3f{1, 0, 0}),
		"c4":   data.NewValue(data.Color4f{1, 0, 0, 1}),
		"m44f": data.NewValue(data.M44f{0: 1, 5: 1, 10: 1, 15: 1}),
		"m44d": data.NewValue(data.M44d{0: 1, 5: 2, 10: 3, 15: 1}),
		"qf":   data.NewValue(data.Quatf{W: 1}),
		"qd":   data.NewValue(data.Quatd{W: 0.5, V: data.V3d{0, 1, 0}}),
		"b3f":  data.NewValue(data.Box3f{Min: data.V3f{-1, -1, -1}, Max: data.V3f{1, 1, 1}}),
		"b3d":  data.NewValue(data.Box3d{Min: data.V3d{-2, -2, -2}, Max: data.V3d{2, 2, 2}}),
	}

	pts := testutil.NewRNG(1).Points(2)
	for name, d := range values {
		require.NoError(t, pts.Variables().Set(name, scene.PrimitiveVariable{Interpolation: scene.Constant, Data: d}))

		arr, err := data.New(d.Kind(), true, 2)
		require.NoError(t, err)
		data.SetInterpretation(arr, d.Interpretation())
		require.NoError(t, pts.Variables().Set(name+"[]", scene.PrimitiveVariable{Interpolation: scene.Vertex, Data: arr}))
	}

	f := newFixture(t)
	rec := testutil.NewLogRecorder()
	require.NoError(t, writerFor(t, f, "pts", scene.TypePoints, WithLogger(rec.Logger())).Convert(context.Background(), pts, 1))
	assert.Empty(t, rec.Warnings())

	p := readFirst(t, readerFor(t, f.open(), "/pts", scene.TypePoints, WithLogger(rec.Logger()))).(*scene.Points)
	assert.Empty(t, rec.Warnings())
	for name, want := range pts.Variables().All() {
		got, ok := p.Variables().Get(name)
		require.True(t, ok, name)
		assert.True(t, want.Equal(got), name)
	}
}

func TestWriter_UnsupportedKindWarns(t *testing.T) {
	f := newFixture(t)
	quad := testutil.Quad()
	require.NoError(t, quad.Variables().Set("h", scene.PrimitiveVariable{Interpolation: scene.Constant, Data: data.NewValue(data.Half(0))}))
	rec := testutil.NewLogRecorder()

	require.NoError(t, writerFor(t, f, "quad", scene.TypeMesh, WithLogger(rec.Logger())).Convert(context.Background(), quad, 1))

	require.Len(t, rec.Warnings(), 1)
	assert.Equal(t, "h", rec.Warnings()[0].Attrs["field"])

	obj, ok := f.open().Find("/quad")
	require.True(t, ok)
	assert.Empty(t, obj.Arbitrary())
}

func TestWriter_Sequencing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	w := writerFor(t, f, "quad", scene.TypeMesh)
	quad := testutil.Quad()

	require.NoError(t, w.Convert(ctx, quad, 1))

	for _, time := range []float64{1, 0.5} {
		err := w.Convert(ctx, quad, time)
		require.ErrorIs(t, err, ErrSequencing)
		var se *SequencingError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "/quad", se.Path)
		assert.Equal(t, time, se.Time)
		assert.Equal(t, 1.0, se.Last)
	}
	assert.Equal(t, []float64{1}, w.SampleTimes())
	obj, ok := f.w.Root().Child("quad")
	require.True(t, ok)
	assert.Equal(t, 1, obj.NumSamples())

	require.NoError(t, w.Convert(ctx, quad, 2))
	assert.Equal(t, []float64{1, 2}, w.SampleTimes())

	rd := readerFor(t, f.open(), "/quad", scene.TypeMesh)
	assert.Equal(t, 2, rd.NumSamples())
	assert.Equal(t, []float64{1, 2}, rd.TimeSampling().Times())
}

func TestWriter_TypeMismatch(t *testing.T) {
	f := newFixture(t)
	w := writerFor(t, f, "c", scene.TypeCurves)

	err := w.Convert(context.Background(), testutil.Quad(), 1)
	require.ErrorIs(t, err, ErrTypeMismatch)
	var te *TypeMismatchError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, scene.TypeCurves, te.Want)
	assert.Equal(t, scene.TypeMesh, te.Got)

	assert.Empty(t, w.SampleTimes())
	_, ok := f.w.Root().Child("c")
	assert.False(t, ok)

	err = w.Convert(context.Background(), &scene.Camera{}, 1)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestWriter_LazyCreation(t *testing.T) {
	f := newFixture(t)
	w := writerFor(t, f, "pts", scene.TypePoints)

	_, ok := f.w.Root().Child("pts")
	assert.False(t, ok)

	require.NoError(t, w.Convert(context.Background(), testutil.NewRNG(3).Points(4), 1))
	obj, ok := f.w.Root().Child("pts")
	require.True(t, ok)
	assert.Equal(t, archive.SchemaPoints, obj.Schema())
}

func TestWriter_FailedWriteKeepsState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	w := writerFor(t, f, "pts", scene.TypePoints)
	rng := testutil.NewRNG(5)

	require.NoError(t, w.Convert(ctx, rng.Points(4), 1))

	// P changes from V3f to V3d, which the archive rejects.
	pts, err := scene.NewPoints(4, data.NewArray(make([]data.V3d, 4)))
	require.NoError(t, err)
	err = w.Convert(ctx, pts, 2)
	require.ErrorIs(t, err, archive.ErrPropertyMismatch)
	assert.Equal(t, []float64{1}, w.SampleTimes())

	require.NoError(t, w.Convert(ctx, rng.Points(4), 3))
	rd := readerFor(t, f.open(), "/pts", scene.TypePoints)
	assert.Equal(t, []float64{1, 3}, rd.TimeSampling().Times())
}

func TestWriter_Animated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	w := writerFor(t, f, "quad", scene.TypeMesh)

	for i := range 3 {
		m := testutil.Quad()
		p, _ := m.Variables().Get("P")
		v, _ := data.Values[data.V3f](p.Data)
		for j := range v {
			v[j][2] = float32(i)
		}
		require.NoError(t, w.Convert(ctx, m, float64(i)/24))
	}

	rd := readerFor(t, f.open(), "/quad", scene.TypeMesh)
	require.Equal(t, 3, rd.NumSamples())

	obj, err := rd.ReadSample(ctx, sampling.Time(2.0/24, sampling.Floor))
	require.NoError(t, err)
	p, _ := obj.(*scene.Mesh).Variables().Get("P")
	v, _ := data.Values[data.V3f](p.Data)
	assert.Equal(t, float32(2), v[0][2])

	b, err := rd.BoundsAt(ctx, sampling.Index(1))
	require.NoError(t, err)
	assert.Equal(t, 1.0, b.Min[2])
	assert.Equal(t, 1.0, b.Max[2])
}

func TestWriter_Canceled(t *testing.T) {
	f := newFixture(t)
	w := writerFor(t, f, "quad", scene.TypeMesh)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Convert(ctx, testutil.Quad(), 1)
	require.ErrorIs(t, err, ErrCanceled)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, w.SampleTimes())
}
