package particle

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sceneconv/blobstore"
	"github.com/hupe1980/sceneconv/convert"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/internal/f16"
	"github.com/hupe1980/sceneconv/scene"
	"github.com/hupe1980/sceneconv/testutil"
)

func pdcPoints(t *testing.T) *scene.Points {
	t.Helper()
	pts, err := scene.NewPoints(3, data.NewArray([]data.V3f{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}))
	require.NoError(t, err)
	set := func(name string, i scene.Interpolation, d data.Data) {
		require.NoError(t, pts.Variables().Set(name, scene.PrimitiveVariable{Interpolation: i, Data: d}))
	}
	set("id", scene.Vertex, data.NewArray([]int64{5, 6, 7}))
	set("mass", scene.Vertex, data.NewArray([]float32{0.5, 1, 2}))
	set("age", scene.Vertex, data.NewArray([]int32{1, 2, 3}))
	set("rgbPP", scene.Vertex, data.NewArray([]data.Color3f{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}))
	set("lifespan", scene.Constant, data.NewValue(float64(4)))
	set("seed", scene.Constant, data.NewValue(int32(11)))
	return pts
}

func TestPDC_RoundTrip(t *testing.T) {
	raw, err := EncodePDC(pdcPoints(t))
	require.NoError(t, err)

	p, err := DecodePDC(raw, "frame.pdc")
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.Version)
	assert.Equal(t, binary.BigEndian, p.ByteOrder)
	assert.Equal(t, 3, p.NumParticles)
	assert.Equal(t, convert.Descriptor{Format: convert.FormatPDC, Version: 1}, p.Descriptor())

	types := map[string]PDCType{}
	for _, a := range p.Attributes {
		types[a.Name] = a.Type
	}
	assert.Equal(t, map[string]PDCType{
		"position":   PDCVectorArray,
		"particleId": PDCDoubleArray,
		"mass":       PDCDoubleArray,
		"age":        PDCIntArray,
		"rgbPP":      PDCVectorArray,
		"lifespan":   PDCDouble,
		"seed":       PDCInt,
	}, types)

	ids, ok := p.IDs()
	require.True(t, ok)
	assert.Equal(t, []int64{5, 6, 7}, ids)

	pts, err := p.Points()
	require.NoError(t, err)
	assert.Equal(t, 3, pts.NumPoints())

	pos, _ := pts.Variables().Get("P")
	v, ok := data.Values[data.V3d](pos.Data)
	require.True(t, ok)
	assert.Equal(t, data.V3d{4, 5, 6}, v[1])

	id, ok := pts.Variables().Get("id")
	require.True(t, ok)
	gotIDs, _ := data.Values[int64](id.Data)
	assert.Equal(t, []int64{5, 6, 7}, gotIDs)

	mass, _ := pts.Variables().Get("mass")
	m, ok := data.Values[float64](mass.Data)
	require.True(t, ok)
	assert.Equal(t, []float64{0.5, 1, 2}, m)

	lifespan, ok := pts.Variables().Get("lifespan")
	require.True(t, ok)
	assert.Equal(t, scene.Constant, lifespan.Interpolation)
	assert.False(t, lifespan.Data.IsArray())

	_, ok = pts.Variables().Get("particleId")
	assert.False(t, ok)
}

func TestPDC_WriteAndRead(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, WritePDC(ctx, store, "frame.250.pdc", pdcPoints(t)))

	pts, err := ReadPDC(ctx, store, "frame.250.pdc", WithRealType(RealFloat))
	require.NoError(t, err)
	pos, _ := pts.Variables().Get("P")
	assert.Equal(t, data.KindV3f, pos.Data.Kind())
	lifespan, _ := pts.Variables().Get("lifespan")
	assert.Equal(t, data.KindFloat, lifespan.Data.Kind())
	age, _ := pts.Variables().Get("age")
	assert.Equal(t, data.KindInt, age.Data.Kind())

	_, err = ReadPDC(ctx, store, "missing.pdc")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

type pdcWriter struct {
	order binary.AppendByteOrder
	buf   []byte
}

func (w *pdcWriter) int32(v int32) { w.buf = w.order.AppendUint32(w.buf, uint32(v)) }
func (w *pdcWriter) double(v float64) {
	w.buf = w.order.AppendUint64(w.buf, math.Float64bits(v))
}
func (w *pdcWriter) name(s string) {
	w.int32(int32(len(s)))
	w.buf = append(w.buf, s...)
}

func TestPDC_LittleEndianWithGhostFrames(t *testing.T) {
	w := &pdcWriter{order: binary.LittleEndian, buf: []byte("PDC ")}
	for _, v := range []int32{1, 1, 0, 0, 2, 3} {
		w.int32(v)
	}
	w.name("ghostFrames")
	w.name("position")
	w.int32(int32(PDCVectorArray))
	for _, v := range []float64{1, 2, 3, 4, 5, 6} {
		w.double(v)
	}
	w.name("id")
	w.int32(int32(PDCIntArray))
	w.int32(8)
	w.int32(9)

	p, err := DecodePDC(w.buf, "le.pdc")
	require.NoError(t, err)
	assert.Equal(t, binary.LittleEndian, p.ByteOrder)
	require.Len(t, p.Attributes, 2)
	_, ok := p.Attribute("ghostFrames")
	assert.False(t, ok)

	ids, ok := p.IDs()
	require.True(t, ok)
	assert.Equal(t, []int64{8, 9}, ids)

	pts, err := p.Points()
	require.NoError(t, err)
	pos, _ := pts.Variables().Get("P")
	v, _ := data.Values[data.V3d](pos.Data)
	assert.Equal(t, []data.V3d{{1, 2, 3}, {4, 5, 6}}, v)
}

func TestPDC_Malformed(t *testing.T) {
	_, err := DecodePDC([]byte("NOPE0000000000000000"), "x.pdc")
	assert.ErrorIs(t, err, ErrNotPDC)

	_, err = DecodePDC([]byte("PDC \x00\x00"), "x.pdc")
	assert.ErrorIs(t, err, ErrMalformed)

	w := &pdcWriter{order: binary.BigEndian, buf: []byte("PDC ")}
	w.int32(1)
	w.int32(7)
	w.int32(0)
	w.int32(0)
	_, err = DecodePDC(w.buf, "x.pdc")
	assert.ErrorIs(t, err, ErrMalformed)

	w = &pdcWriter{order: binary.BigEndian, buf: []byte("PDC ")}
	for _, v := range []int32{1, 1, 0, 0, 4, 1} {
		w.int32(v)
	}
	w.name("mass")
	w.int32(int32(PDCDoubleArray))
	w.double(1)
	_, err = DecodePDC(w.buf, "x.pdc")
	assert.ErrorIs(t, err, ErrMalformed)
	assert.ErrorContains(t, err, "attribute mass")

	w = &pdcWriter{order: binary.BigEndian, buf: []byte("PDC ")}
	for _, v := range []int32{1, 1, 0, 0, 1, 1} {
		w.int32(v)
	}
	w.name("odd")
	w.int32(42)
	_, err = DecodePDC(w.buf, "x.pdc")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestPDC_FutureVersionWarns(t *testing.T) {
	rec := testutil.NewLogRecorder()
	w := &pdcWriter{order: binary.BigEndian, buf: []byte("PDC ")}
	for _, v := range []int32{3, 1, 0, 0, 0, 0} {
		w.int32(v)
	}
	p, err := DecodePDC(w.buf, "v3.pdc", WithLogger(rec.Logger()))
	require.NoError(t, err)
	assert.Equal(t, int32(3), p.Version)
	require.Len(t, rec.Warnings(), 1)
	assert.Equal(t, "3", rec.Warnings()[0].Attrs["version"])
}

func TestEncodePDC_SkipsUnsupported(t *testing.T) {
	rec := testutil.NewLogRecorder()
	pts, err := scene.NewPoints(2, data.NewArray([]data.V3f{{0, 0, 0}, {1, 1, 1}}))
	require.NoError(t, err)
	require.NoError(t, pts.Variables().Set("name", scene.PrimitiveVariable{
		Interpolation: scene.Constant,
		Data:          data.NewValue("spray"),
	}))
	require.NoError(t, pts.Variables().Set("uv", scene.PrimitiveVariable{
		Interpolation: scene.Vertex,
		Data:          data.NewArray([]data.V2f{{0, 0}, {1, 1}}),
	}))

	raw, err := EncodePDC(pts, WithLogger(rec.Logger()))
	require.NoError(t, err)
	p, err := DecodePDC(raw, "x.pdc")
	require.NoError(t, err)
	require.Len(t, p.Attributes, 1)
	assert.Equal(t, "position", p.Attributes[0].Name)

	warnings := rec.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, "name", warnings[0].Attrs["variable"])
	assert.Equal(t, "uv", warnings[1].Attrs["variable"])
}

func TestEncodePDC_IndexedVariable(t *testing.T) {
	pts, err := scene.NewPoints(3, nil)
	require.NoError(t, err)
	require.NoError(t, pts.Variables().Set("radius", scene.PrimitiveVariable{
		Interpolation: scene.Vertex,
		Data:          data.NewArray([]float64{0.1, 0.2}),
		Indices:       []int32{1, 0, 1},
	}))

	raw, err := EncodePDC(pts)
	require.NoError(t, err)
	p, err := DecodePDC(raw, "x.pdc")
	require.NoError(t, err)
	a, ok := p.Attribute("radius")
	require.True(t, ok)
	v, _ := data.Values[float64](a.Data)
	assert.Equal(t, []float64{0.2, 0.1, 0.2}, v)
}

func TestEncodePDC_WidensHalf(t *testing.T) {
	pts, err := scene.NewPoints(2, nil)
	require.NoError(t, err)
	require.NoError(t, pts.Variables().Set("opacity", scene.PrimitiveVariable{
		Interpolation: scene.Vertex,
		Data:          data.NewArray([]data.Half{f16.FromFloat32(0.25), f16.FromFloat32(1.5)}),
	}))
	require.NoError(t, pts.Variables().Set("scale", scene.PrimitiveVariable{
		Interpolation: scene.Constant,
		Data:          data.NewValue(f16.FromFloat32(-2)),
	}))

	raw, err := EncodePDC(pts)
	require.NoError(t, err)
	p, err := DecodePDC(raw, "x.pdc")
	require.NoError(t, err)

	a, ok := p.Attribute("opacity")
	require.True(t, ok)
	assert.Equal(t, PDCDoubleArray, a.Type)
	v, _ := data.Values[float64](a.Data)
	assert.Equal(t, []float64{0.25, 1.5}, v)

	a, ok = p.Attribute("scale")
	require.True(t, ok)
	assert.Equal(t, PDCDouble, a.Type)
	assert.True(t, data.NewValue(float64(-2)).Equal(a.Data))
}

func TestEncodeRecord_Vectors(t *testing.T) {
	want := []float64{1, 2, 3, -4, 0.5, 6}
	be := func(raw []byte) []float64 {
		out := make([]float64, len(raw)/8)
		for i := range out {
			out[i] = math.Float64frombits(binary.BigEndian.Uint64(raw[8*i:]))
		}
		return out
	}

	for name, d := range map[string]data.Data{
		"V3d":     data.NewArray([]data.V3d{{1, 2, 3}, {-4, 0.5, 6}}),
		"V3f":     data.NewArray([]data.V3f{{1, 2, 3}, {-4, 0.5, 6}}),
		"Color3f": data.NewArray([]data.Color3f{{1, 2, 3}, {-4, 0.5, 6}}),
	} {
		t.Run(name, func(t *testing.T) {
			typ, payload, ok := encodeRecord(d, true)
			require.True(t, ok)
			assert.Equal(t, PDCVectorArray, typ)
			assert.Equal(t, want, be(payload))
		})
	}
}

func TestPDC_Percentage(t *testing.T) {
	const n = 200
	pts, err := scene.NewPoints(n, nil)
	require.NoError(t, err)
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(i)
	}
	require.NoError(t, pts.Variables().Set("id", scene.PrimitiveVariable{Interpolation: scene.Vertex, Data: data.NewArray(ids)}))

	raw, err := EncodePDC(pts)
	require.NoError(t, err)
	p, err := DecodePDC(raw, "x.pdc", WithPercentage(10), WithSeed(1))
	require.NoError(t, err)
	got, err := p.Points()
	require.NoError(t, err)

	want := ApplyValues(Select(n, 10, 1, ids), ids)
	assert.Equal(t, len(want), got.NumPoints())
	id, _ := got.Variables().Get("id")
	v, _ := data.Values[int64](id.Data)
	assert.Equal(t, want, v)
}
