package particle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hupe1980/sceneconv/blobstore"
	"github.com/hupe1980/sceneconv/convert"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/iff"
	"github.com/hupe1980/sceneconv/scene"
)

// NCacheHeader is the CACH group of an nParticle cache.
type NCacheHeader struct {
	Version string
	Start   int32
	End     int32
}

// Channel is one named array of a cache frame.
type Channel struct {
	Name string
	Size int
	Type iff.Tag

	data *iff.Chunk
}

// NCache reads Maya nParticle caches (.mc).
type NCache struct {
	f      *iff.File
	header NCacheHeader
	frames []frame
	opts   Options
}

// OpenNCache opens the named cache in store.
func OpenNCache(ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) (*NCache, error) {
	f, err := iff.Open(ctx, store, name)
	if err != nil {
		return nil, err
	}
	c, err := NewNCache(f, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return c, nil
}

// NewNCache reads the header and frame index of an open chunk stream.
func NewNCache(f *iff.File, opts ...Option) (*NCache, error) {
	header, body, err := cacheHeader(f)
	if err != nil {
		return nil, err
	}

	c := &NCache{f: f, opts: buildOptions(opts)}
	kids, err := header.Children()
	if err != nil {
		return nil, err
	}
	for _, k := range kids {
		switch k.Tag() {
		case tagVRSN:
			c.header.Version, err = k.ReadString()
		case tagSTIM:
			c.header.Start, err = iff.Read[int32](k)
		case tagETIM:
			c.header.End, err = iff.Read[int32](k)
		}
		if err != nil {
			return nil, err
		}
	}

	c.frames, err = scanFrames(body, tagMYCH, c.header.Start)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *NCache) Descriptor() convert.Descriptor {
	return convert.Descriptor{Format: convert.FormatNCache}
}

// Path returns the name of the cache file.
func (c *NCache) Path() string { return c.f.Name() }

// Header returns the cache header.
func (c *NCache) Header() NCacheHeader { return c.header }

// Frames returns the frame times in ticks, ascending.
func (c *NCache) Frames() []int32 { return frameTimes(c.frames) }

// Close releases the underlying stream.
func (c *NCache) Close() error { return c.f.Close() }

// Channels lists the channels of frame i in stream order. A CHNM not
// followed by SIZE and a data chunk is skipped with a warning.
func (c *NCache) Channels(i int) ([]Channel, error) {
	fr, err := frameAt(c.f.Name(), c.frames, i)
	if err != nil {
		return nil, err
	}
	kids, err := fr.chunk.Children()
	if err != nil {
		return nil, err
	}

	var out []Channel
	for j, k := range kids {
		if k.Tag() != tagCHNM {
			continue
		}
		name, err := k.ReadString()
		if err != nil {
			return nil, err
		}
		if j+2 >= len(kids) || kids[j+1].Tag() != tagSIZE || !isChannelData(kids[j+2].Tag()) {
			c.opts.Logger.Warn("skipping channel",
				slog.String("cache", c.f.Name()),
				slog.String("channel", name),
				slog.String("reason", "CHNM is not followed by SIZE and channel data"),
			)
			continue
		}
		size, err := iff.Read[int32](kids[j+1])
		if err != nil {
			return nil, err
		}
		out = append(out, Channel{Name: name, Size: int(size), Type: kids[j+2].Tag(), data: kids[j+2]})
	}
	return out, nil
}

func isChannelData(t iff.Tag) bool {
	return t == tagDBLA || t == tagDVCA || t == tagFVCA
}

// NumParticles returns the particle count of frame i.
func (c *NCache) NumParticles(i int) (int, error) {
	fr, err := frameAt(c.f.Name(), c.frames, i)
	if err != nil {
		return 0, err
	}
	sc, ok, err := fr.chunk.Find(tagSIZE)
	if err != nil || !ok {
		return 0, err
	}
	n, err := iff.Read[int32](sc)
	return int(n), err
}

// ReadChannel decodes a channel of frame i without filtering.
func (c *NCache) ReadChannel(i int, name string) (data.Data, error) {
	channels, err := c.Channels(i)
	if err != nil {
		return nil, err
	}
	for _, ch := range channels {
		if ch.Name == name {
			return decodeChannel(ch, c.opts.RealType)
		}
	}
	return nil, fmt.Errorf("particle %s: no channel %q in frame %d", c.f.Name(), name, i)
}

// ReadFrame converts frame i to points. The channel ending in "_position"
// becomes P and the one ending in "_id" becomes the int64 variable "id".
// Every other channel keeps its name.
func (c *NCache) ReadFrame(ctx context.Context, i int) (*scene.Points, error) {
	if err := canceled(ctx); err != nil {
		return nil, err
	}
	channels, err := c.Channels(i)
	if err != nil {
		return nil, err
	}
	n, err := c.NumParticles(i)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("particle %s: %w: %d particles", c.f.Name(), ErrMalformed, n)
	}

	var ids []int64
	for _, ch := range channels {
		if strings.HasSuffix(ch.Name, "_id") && ch.Type == tagDBLA {
			v, err := iff.ReadSlice[float64](ch.data)
			if err != nil {
				return nil, err
			}
			ids = make([]int64, n)
			for j := range min(n, len(v)) {
				ids[j] = int64(v[j])
			}
			break
		}
	}
	if ids == nil && c.opts.Percentage < 100 {
		c.opts.Logger.Warn("percentage filtering without particle ids",
			slog.String("cache", c.f.Name()),
		)
	}
	sel := Select(n, c.opts.Percentage, c.opts.Seed, ids)

	var (
		positions data.Data
		vars      []namedVariable
	)
	for _, ch := range channels {
		if err := canceled(ctx); err != nil {
			return nil, err
		}
		if ch.Size != n {
			c.opts.Logger.Warn("skipping channel",
				slog.String("cache", c.f.Name()),
				slog.String("channel", ch.Name),
				slog.String("reason", fmt.Sprintf("%d elements for %d particles", ch.Size, n)),
			)
			continue
		}

		var d data.Data
		name := ch.Name
		switch {
		case strings.HasSuffix(name, "_id") && ids != nil:
			name = "id"
			d = data.NewArray(ids)
		default:
			if d, err = decodeChannel(ch, c.opts.RealType); err != nil {
				return nil, err
			}
		}
		if d, err = sel.Apply(d); err != nil {
			return nil, err
		}
		if strings.HasSuffix(ch.Name, "_position") && positions == nil {
			positions = d
			continue
		}
		vars = append(vars, namedVariable{name: name, pv: scene.PrimitiveVariable{Interpolation: scene.Vertex, Data: d}})
	}

	if positions == nil {
		c.opts.Logger.Warn("no position channel",
			slog.String("cache", c.f.Name()),
		)
	}
	return buildPoints(sel.Len(n), positions, vars)
}

type namedVariable struct {
	name string
	pv   scene.PrimitiveVariable
}

func buildPoints(n int, positions data.Data, vars []namedVariable) (*scene.Points, error) {
	pts, err := scene.NewPoints(n, positions)
	if err != nil {
		return nil, err
	}
	for _, v := range vars {
		if err := pts.Variables().Set(v.name, v.pv); err != nil {
			return nil, err
		}
	}
	if err := scene.Validate(pts); err != nil {
		return nil, err
	}
	return pts, nil
}

// decodeChannel reads a channel, padding or truncating it to its declared
// size.
func decodeChannel(ch Channel, rt RealType) (data.Data, error) {
	if ch.Size < 0 {
		return nil, fmt.Errorf("%w: channel %s has %d elements", ErrMalformed, ch.Name, ch.Size)
	}
	switch ch.Type {
	case tagDBLA:
		v, err := iff.ReadSlice[float64](ch.data)
		if err != nil {
			return nil, err
		}
		v = resize(v, ch.Size)
		if rt == RealFloat {
			return data.NewArray(toFloat32(v)), nil
		}
		return data.NewArray(v), nil
	case tagDVCA:
		v, err := iff.ReadSlice[data.V3d](ch.data)
		if err != nil {
			return nil, err
		}
		v = resize(v, ch.Size)
		if rt == RealFloat {
			return data.NewArray(toV3f(v)), nil
		}
		return data.NewArray(v), nil
	case tagFVCA:
		v, err := iff.ReadSlice[data.V3f](ch.data)
		if err != nil {
			return nil, err
		}
		v = resize(v, ch.Size)
		if rt == RealDouble {
			return data.NewArray(toV3d(v)), nil
		}
		return data.NewArray(v), nil
	default:
		return nil, fmt.Errorf("%w: channel %s has type %s", ErrMalformed, ch.Name, ch.Type)
	}
}

func resize[T any](v []T, n int) []T {
	if len(v) >= n {
		return v[:n]
	}
	return append(v, make([]T, n-len(v))...)
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func toV3f(v []data.V3d) []data.V3f {
	out := make([]data.V3f, len(v))
	for i, x := range v {
		out[i] = data.V3f{float32(x[0]), float32(x[1]), float32(x[2])}
	}
	return out
}

func toV3d(v []data.V3f) []data.V3d {
	out := make([]data.V3d, len(v))
	for i, x := range v {
		out[i] = data.V3d{float64(x[0]), float64(x[1]), float64(x[2])}
	}
	return out
}
