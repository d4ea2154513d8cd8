package particle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hupe1980/sceneconv/blobstore"
	"github.com/hupe1980/sceneconv/convert"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/iff"
	"github.com/hupe1980/sceneconv/scene"
)

// HairHeader is the CACH group of a hair cache.
type HairHeader struct {
	Start int32
	End   int32
	Type  int32
	Rate  int32
}

// HairCache reads Maya hair system caches (.mchp).
type HairCache struct {
	f      *iff.File
	header HairHeader
	frames []frame
	opts   Options
}

// OpenHairCache opens the named hair cache in store.
func OpenHairCache(ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) (*HairCache, error) {
	f, err := iff.Open(ctx, store, name)
	if err != nil {
		return nil, err
	}
	h, err := NewHairCache(f, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return h, nil
}

// NewHairCache reads the header and frame index of an open chunk stream.
func NewHairCache(f *iff.File, opts ...Option) (*HairCache, error) {
	header, body, err := cacheHeader(f)
	if err != nil {
		return nil, err
	}

	h := &HairCache{f: f, opts: buildOptions(opts)}
	kids, err := header.Children()
	if err != nil {
		return nil, err
	}
	for _, k := range kids {
		switch k.Tag() {
		case tagSTIM:
			h.header.Start, err = iff.Read[int32](k)
		case tagETIM:
			h.header.End, err = iff.Read[int32](k)
		case tagTYPE:
			h.header.Type, err = iff.Read[int32](k)
		case tagRATE:
			h.header.Rate, err = iff.Read[int32](k)
		}
		if err != nil {
			return nil, err
		}
	}

	h.frames, err = scanFrames(body, tagHAIR, h.header.Start)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (h *HairCache) Descriptor() convert.Descriptor {
	return convert.Descriptor{Format: convert.FormatHair}
}

// Path returns the name of the cache file.
func (h *HairCache) Path() string { return h.f.Name() }

// Header returns the cache header.
func (h *HairCache) Header() HairHeader { return h.header }

// Frames returns the frame times in ticks, ascending.
func (h *HairCache) Frames() []int32 { return frameTimes(h.frames) }

// Close releases the underlying stream.
func (h *HairCache) Close() error { return h.f.Close() }

// NumHairs returns the hair count of frame i.
func (h *HairCache) NumHairs(i int) (int, error) {
	fr, err := frameAt(h.f.Name(), h.frames, i)
	if err != nil {
		return 0, err
	}
	c, ok, err := fr.chunk.Find(tagNMHA)
	if err != nil || !ok {
		return 0, err
	}
	n, err := iff.Read[int32](c)
	return int(n), err
}

// ReadFrame converts frame i to linear curves with P and, when the frame
// stores velocities, "velocity". A velocity block whose CV count differs
// from its hair is replaced by zeros.
func (h *HairCache) ReadFrame(ctx context.Context, i int) (*scene.Curves, error) {
	if err := canceled(ctx); err != nil {
		return nil, err
	}
	fr, err := frameAt(h.f.Name(), h.frames, i)
	if err != nil {
		return nil, err
	}
	kids, err := fr.chunk.Children()
	if err != nil {
		return nil, err
	}

	var (
		numHairs    int32
		numCVs      int32
		counts      []int32
		p, vel      []data.V3d
		hairStart   int
		hasPosition bool
		hasVelocity bool
	)
	for _, k := range kids {
		switch k.Tag() {
		case tagNMHA:
			numHairs, err = iff.Read[int32](k)
		case tagNMCV:
			numCVs, err = iff.Read[int32](k)
			if err == nil && numCVs < 0 {
				err = fmt.Errorf("particle %s: %w: %d CVs", h.f.Name(), ErrMalformed, numCVs)
			}
		case tagPOSS:
			var v []data.V3d
			if v, err = iff.ReadSlice[data.V3d](k); err != nil {
				break
			}
			hairStart = len(p)
			p = append(p, resize(v, int(numCVs))...)
			vel = append(vel, make([]data.V3d, numCVs)...)
			counts = append(counts, numCVs)
			hasPosition = true
		case tagVELS:
			if !hasPosition {
				h.opts.Logger.Warn("velocity without position",
					slog.String("cache", h.f.Name()),
					slog.Int("hair", len(counts)),
				)
				continue
			}
			hasPosition = false
			hasVelocity = true
			if cvs := counts[len(counts)-1]; cvs != numCVs {
				h.opts.Logger.Warn("velocity CV count mismatch, using zero velocity",
					slog.String("cache", h.f.Name()),
					slog.Int("hair", len(counts)-1),
					slog.Int("positions", int(cvs)),
					slog.Int("velocities", int(numCVs)),
				)
				continue
			}
			var v []data.V3d
			if v, err = iff.ReadSlice[data.V3d](k); err != nil {
				break
			}
			copy(vel[hairStart:], resize(v, int(numCVs)))
		}
		if err != nil {
			return nil, err
		}
	}

	if len(counts) != int(numHairs) {
		return nil, &convert.SourceError{
			Archive: h.f.Name(),
			Path:    "/",
			Field:   "POSS",
			Err:     fmt.Errorf("%w: %d hairs declared, %d have positions", ErrMalformed, numHairs, len(counts)),
		}
	}

	curves, err := scene.NewCurves(counts, scene.BasisLinear, false, h.vectors(p, data.Point))
	if err != nil {
		return nil, err
	}
	if hasVelocity {
		err := curves.Variables().Set("velocity", scene.PrimitiveVariable{
			Interpolation: scene.Vertex,
			Data:          h.vectors(vel, data.Vector),
		})
		if err != nil {
			return nil, err
		}
	}
	if err := scene.Validate(curves); err != nil {
		return nil, err
	}
	return curves, nil
}

func (h *HairCache) vectors(v []data.V3d, interp data.Interpretation) data.Data {
	var d data.Data = data.NewArray(v)
	if h.opts.RealType == RealFloat {
		d = data.NewArray(toV3f(v))
	}
	data.SetInterpretation(d, interp)
	return d
}
