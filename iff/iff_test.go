package iff

import (
	"bytes"
	"context"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/hupe1980/sceneconv/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func header(tag string, n int) []byte {
	out := append([]byte(tag), 0, 0, 0, 0)
	binary.BigEndian.PutUint32(out[4:], uint32(n))
	return out
}

func open(t *testing.T, raw []byte) *File {
	t.Helper()
	f, err := New(bytes.NewReader(raw), int64(len(raw)), "test.iff")
	require.NoError(t, err)
	return f
}

func TestPadding(t *testing.T) {
	tests := []struct {
		n, q, want int64
	}{
		{5, 4, 3},
		{8, 4, 0},
		{0, 4, 0},
		{5, 2, 1},
		{6, 2, 0},
		{1, 8, 7},
		{16, 8, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Padding(tt.n, tt.q), "n=%d q=%d", tt.n, tt.q)
	}
}

func TestTag(t *testing.T) {
	assert.True(t, MakeTag("FOR4").IsGroup())
	assert.True(t, MakeTag("CAT ").IsGroup())
	assert.True(t, MakeTag("PRO8").IsGroup())
	assert.False(t, MakeTag("TIME").IsGroup())
	assert.Equal(t, int64(4), MakeTag("FOR4").Alignment())
	assert.Equal(t, int64(8), MakeTag("LIS8").Alignment())
	assert.Equal(t, int64(2), MakeTag("FORM").Alignment())
	assert.Panics(t, func() { MakeTag("FOR") })
}

func TestChildren_SkipsPadding(t *testing.T) {
	// FOR4 TEST { AAAA(5) pad(3) BBBB(8) }
	var body []byte
	body = append(body, "TEST"...)
	body = append(body, header("AAAA", 5)...)
	body = append(body, 1, 2, 3, 4, 5, 0, 0, 0)
	body = append(body, header("BBBB", 8)...)
	body = append(body, 0, 0, 0, 0, 0, 0, 0, 42)
	raw := append(header("FOR4", len(body)), body...)

	f := open(t, raw)
	top, err := f.Root().Children()
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, int64(0), top[0].Offset())
	assert.True(t, top[0].IsGroupOf(MakeTag("TEST")))

	kids, err := top[0].Children()
	require.NoError(t, err)
	require.Len(t, kids, 2)
	assert.Equal(t, MakeTag("AAAA"), kids[0].Tag())
	assert.Equal(t, int64(12), kids[0].Offset())
	assert.Equal(t, int64(5), kids[0].Len())
	assert.Equal(t, MakeTag("BBBB"), kids[1].Tag())
	assert.Equal(t, int64(12+8+5+3), kids[1].Offset())

	v, err := Read[uint64](kids[1])
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)

	leaf, err := kids[0].Children()
	require.NoError(t, err)
	assert.Empty(t, leaf)
}

func TestChildren_TwoByteAlignment(t *testing.T) {
	var body []byte
	body = append(body, "TEST"...)
	body = append(body, header("AAAA", 5)...)
	body = append(body, 1, 2, 3, 4, 5, 0)
	body = append(body, header("BBBB", 2)...)
	body = append(body, 0, 7)
	raw := append(header("FORM", len(body)), body...)

	top, err := open(t, raw).Root().Children()
	require.NoError(t, err)
	kids, err := top[0].Children()
	require.NoError(t, err)
	require.Len(t, kids, 2)
	assert.Equal(t, int64(12+8+5+1), kids[1].Offset())
}

func TestNew_NotGroup(t *testing.T) {
	raw := append(header("ABCD", 4), 0, 0, 0, 0)
	_, err := New(bytes.NewReader(raw), int64(len(raw)), "bad.mc")
	require.ErrorIs(t, err, ErrNotIFF)
	assert.Contains(t, err.Error(), "bad.mc")

	_, err = New(bytes.NewReader([]byte("FO")), 2, "short.mc")
	require.ErrorIs(t, err, ErrNotIFF)
	assert.Contains(t, err.Error(), "short.mc")
}

func TestChildren_Truncated(t *testing.T) {
	var body []byte
	body = append(body, "TEST"...)
	body = append(body, header("AAAA", 100)...)
	body = append(body, 1, 2, 3, 4)
	raw := append(header("FOR4", len(body)), body...)

	top, err := open(t, raw).Root().Children()
	require.NoError(t, err)
	_, err = top[0].Children()
	require.ErrorIs(t, err, ErrTruncated)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "test.iff", fe.Name)
	assert.Equal(t, int64(12), fe.Offset)

	// The failure is remembered.
	_, err2 := top[0].Children()
	assert.Equal(t, err, err2)
}

func buildCache(t *testing.T) []byte {
	t.Helper()
	raw, err := NewBuilder().
		Group(MakeTag("FOR4"), MakeTag("CACH")).
		String(MakeTag("VRSN"), "0.1").
		Value(MakeTag("STIM"), int32(250)).
		Value(MakeTag("ETIM"), int32(500)).
		End().
		Group(MakeTag("FOR4"), MakeTag("MYCH")).
		Value(MakeTag("TIME"), int32(250)).
		String(MakeTag("CHNM"), "shape_position").
		Value(MakeTag("SIZE"), uint32(2)).
		Value(MakeTag("FVCA"), [][3]float32{{1, 2, 3}, {4, 5, 6}}).
		String(MakeTag("CHNM"), "shape_mass").
		Value(MakeTag("SIZE"), uint32(2)).
		Value(MakeTag("DBLA"), []float64{0.5, 1.5}).
		End().
		Bytes()
	require.NoError(t, err)
	return raw
}

func TestBuilder_RoundTrip(t *testing.T) {
	f := open(t, buildCache(t))

	top, err := f.Root().Children()
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.True(t, top[0].IsGroupOf(MakeTag("CACH")))
	assert.True(t, top[1].IsGroupOf(MakeTag("MYCH")))

	vrsn, ok, err := top[0].Find(MakeTag("VRSN"))
	require.NoError(t, err)
	require.True(t, ok)
	s, err := vrsn.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "0.1", s)

	etim, ok, err := top[0].Find(MakeTag("ETIM"))
	require.NoError(t, err)
	require.True(t, ok)
	end, err := Read[int32](etim)
	require.NoError(t, err)
	assert.Equal(t, int32(500), end)

	kids, err := top[1].Children()
	require.NoError(t, err)
	require.Len(t, kids, 7)
	for _, k := range kids {
		assert.Zero(t, k.Offset()%4, k.String())
	}

	pos, err := ReadSlice[[3]float32](kids[3])
	require.NoError(t, err)
	assert.Equal(t, [][3]float32{{1, 2, 3}, {4, 5, 6}}, pos)

	mass, err := ReadSlice[float64](kids[6])
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1.5}, mass)

	_, ok, err = top[1].Find(MakeTag("NONE"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRead_ShortChunk(t *testing.T) {
	raw, err := NewBuilder().
		Group(MakeTag("FOR4"), MakeTag("TEST")).
		Value(MakeTag("TINY"), uint16(1)).
		End().
		Bytes()
	require.NoError(t, err)

	top, err := open(t, raw).Root().Children()
	require.NoError(t, err)
	kids, err := top[0].Children()
	require.NoError(t, err)

	_, err = Read[uint64](kids[0])
	require.ErrorIs(t, err, ErrShortChunk)

	v, err := ReadSlice[uint32](kids[0])
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestBuilder_Errors(t *testing.T) {
	_, err := NewBuilder().Group(MakeTag("TIME"), MakeTag("TEST")).Bytes()
	assert.Error(t, err)

	_, err = NewBuilder().End().Bytes()
	assert.Error(t, err)

	_, err = NewBuilder().Group(MakeTag("FOR4"), MakeTag("TEST")).Bytes()
	assert.Error(t, err)

	_, err = NewBuilder().Group(MakeTag("FOR4"), MakeTag("TEST")).Value(MakeTag("BAD "), "string").End().Bytes()
	assert.Error(t, err)
}

func TestOpen_Store(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "cache.mc", buildCache(t)))

	f, err := Open(ctx, store, "cache.mc")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "cache.mc", f.Name())

	top, err := f.Root().Children()
	require.NoError(t, err)
	assert.Len(t, top, 2)

	_, err = Open(ctx, store, "missing.mc")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
	assert.Contains(t, err.Error(), "missing.mc")
}

func TestChildren_Concurrent(t *testing.T) {
	f := open(t, buildCache(t))

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			top, err := f.Root().Children()
			if err == nil {
				results[i] = len(top)
			}
		}()
	}
	wg.Wait()
	for _, n := range results {
		assert.Equal(t, 2, n)
	}
}
