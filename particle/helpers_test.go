package particle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sceneconv/blobstore"
	"github.com/hupe1980/sceneconv/iff"
)

var tagFOR4 = iff.MakeTag("FOR4")

type testChannel struct {
	name   string
	tag    iff.Tag
	size   uint32
	values any
}

type testFrame struct {
	time     int32
	channels []testChannel
}

func buildNCache(t *testing.T, start, end int32, frames ...testFrame) []byte {
	t.Helper()
	b := iff.NewBuilder().
		Group(tagFOR4, tagCACH).
		String(tagVRSN, "0.1").
		Value(tagSTIM, start).
		Value(tagETIM, end).
		End()
	for _, fr := range frames {
		b.Group(tagFOR4, tagMYCH).Value(tagTIME, fr.time)
		for _, ch := range fr.channels {
			b.String(tagCHNM, ch.name).Value(tagSIZE, ch.size).Value(ch.tag, ch.values)
		}
		b.End()
	}
	raw, err := b.Bytes()
	require.NoError(t, err)
	return raw
}

type testHair struct {
	cvs int32
	pos [][3]float64
	vel [][3]float64
	// velCVs overrides NMCV before the velocity block when non-zero.
	velCVs int32
}

func buildHairCache(t *testing.T, numHairs int32, frames map[int32][]testHair) []byte {
	t.Helper()
	b := iff.NewBuilder().
		Group(tagFOR4, tagCACH).
		Value(tagSTIM, int32(250)).
		Value(tagETIM, int32(500)).
		Value(tagTYPE, int32(1)).
		Value(tagRATE, int32(250)).
		End()
	for time, hairs := range frames {
		b.Group(tagFOR4, tagHAIR).Value(tagTIME, time).Value(tagNMHA, numHairs)
		for _, h := range hairs {
			b.Value(tagNMCV, h.cvs).Value(tagPOSS, h.pos)
			if h.vel != nil {
				if h.velCVs != 0 {
					b.Value(tagNMCV, h.velCVs)
				}
				b.Value(tagVELS, h.vel)
			}
		}
		b.End()
	}
	raw, err := b.Bytes()
	require.NoError(t, err)
	return raw
}

func storeWith(t *testing.T, name string, raw []byte) *blobstore.MemoryStore {
	t.Helper()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), name, raw))
	return store
}
