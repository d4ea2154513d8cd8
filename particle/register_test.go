package particle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sceneconv/convert"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/sampling"
	"github.com/hupe1980/sceneconv/scene"
	"github.com/hupe1980/sceneconv/testutil"
)

func newRegistry(t *testing.T) *convert.ReaderRegistry {
	t.Helper()
	reg := convert.NewRegistry[convert.Source, convert.ObjectReader]()
	require.NoError(t, Register(reg))
	return reg
}

func TestRegister_Idempotent(t *testing.T) {
	reg := newRegistry(t)
	require.NoError(t, Register(reg))
	assert.Equal(t, []string{"particle.ncache", "particle.hair", "particle.pdc"}, reg.Names())
}

func TestNCacheReader(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	c := openNCache(t, buildNCache(t, 250, 500, simpleFrame(250), simpleFrame(500)))

	r, ok := reg.Create(c, scene.TypePrimitive)
	require.True(t, ok)
	assert.Equal(t, 2, r.NumSamples())
	assert.InDeltaSlice(t, []float64{250.0 / TicksPerSecond, 500.0 / TicksPerSecond}, r.TimeSampling().Times(), 1e-12)

	obj, err := r.ReadSample(ctx, sampling.Time(0.08, sampling.Nearest))
	require.NoError(t, err)
	pts, ok := obj.(*scene.Points)
	require.True(t, ok)
	p, _ := pts.Variables().Get("P")
	v, _ := data.Values[data.V3f](p.Data)
	assert.Equal(t, data.V3f{0, 0, 2}, v[2])

	b, err := r.BoundsAt(ctx, sampling.Index(0))
	require.NoError(t, err)
	assert.Equal(t, data.Box3d{Min: data.V3d{0, 0, 0}, Max: data.V3d{1, 1, 1}}, b)

	_, err = r.ReadSample(ctx, sampling.Index(2))
	assert.ErrorIs(t, err, sampling.ErrIndexOutOfRange)
	assert.ErrorIs(t, err, convert.ErrMalformedSource)

	_, ok = reg.Create(c, scene.TypeCurves)
	assert.False(t, ok)
}

func TestHairReader(t *testing.T) {
	reg := newRegistry(t)
	h := openHair(t, buildHairCache(t, 2, map[int32][]testHair{250: twoHairs()}))

	r, ok := reg.Create(h, scene.TypeCurves)
	require.True(t, ok)
	assert.Equal(t, 1, r.NumSamples())

	obj, err := r.ReadSample(context.Background(), sampling.Index(0))
	require.NoError(t, err)
	assert.Equal(t, scene.TypeCurves, obj.TypeID())

	b, err := r.BoundsAt(context.Background(), sampling.Index(0))
	require.NoError(t, err)
	assert.Equal(t, data.V3d{1, 2, 0}, b.Max)
}

func TestPDCReader(t *testing.T) {
	reg := newRegistry(t)
	raw, err := EncodePDC(pdcPoints(t))
	require.NoError(t, err)
	p, err := DecodePDC(raw, "frame.pdc")
	require.NoError(t, err)

	r, ok := reg.Create(p, scene.TypePoints)
	require.True(t, ok)
	assert.Equal(t, 1, r.NumSamples())
	assert.Equal(t, []float64{0}, r.TimeSampling().Times())

	obj, err := r.ReadSample(context.Background(), sampling.Time(12, sampling.Floor))
	require.NoError(t, err)
	assert.Equal(t, 3, obj.(*scene.Points).NumPoints())

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.ReadSample(canceled, sampling.Index(0))
	assert.ErrorIs(t, err, convert.ErrCanceled)
}

func TestReaderAdoptsLogger(t *testing.T) {
	rec := testutil.NewLogRecorder()
	reg := newRegistry(t)
	frame := testFrame{time: 0, channels: []testChannel{
		{name: "s_mass", tag: tagDBLA, size: 1, values: []float64{1}},
	}}
	c := openNCache(t, buildNCache(t, 0, 0, frame))

	r, ok := reg.Create(c, scene.TypePoints, convert.WithLogger(rec.Logger()))
	require.True(t, ok)
	_, err := r.ReadSample(context.Background(), sampling.Index(0))
	require.NoError(t, err)
	assert.Len(t, rec.Warnings(), 1)

	// The default discard logger leaves the source's logger alone.
	rec2 := testutil.NewLogRecorder()
	c2 := openNCache(t, buildNCache(t, 0, 0, frame), WithLogger(rec2.Logger()))
	r2, ok := reg.Create(c2, scene.TypePoints)
	require.True(t, ok)
	_, err = r2.ReadSample(context.Background(), sampling.Index(0))
	require.NoError(t, err)
	assert.Len(t, rec2.Warnings(), 1)
}
