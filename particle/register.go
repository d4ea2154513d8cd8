package particle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hupe1980/sceneconv/convert"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/sampling"
	"github.com/hupe1980/sceneconv/scene"
)

// Register adds readers for nCache, hair cache and PDC sources to reg.
// Registering twice is harmless.
func Register(reg *convert.ReaderRegistry) error {
	var errs []error
	add := func(name, format string, produces scene.TypeID, ctor func(convert.Source, convert.Options) convert.ObjectReader) {
		err := reg.Register(name, func(d convert.Descriptor) bool { return d.Format == format }, produces, ctor)
		if err != nil && !errors.Is(err, convert.ErrAlreadyRegistered) {
			errs = append(errs, err)
		}
	}
	add("particle.ncache", convert.FormatNCache, scene.TypePoints, newNCacheReader)
	add("particle.hair", convert.FormatHair, scene.TypeCurves, newHairReader)
	add("particle.pdc", convert.FormatPDC, scene.TypePoints, newPDCReader)
	return errors.Join(errs...)
}

// adoptLogger replaces the source's logger unless l discards everything.
func adoptLogger(o *Options, l *slog.Logger) {
	if l != nil && l.Handler() != slog.DiscardHandler {
		o.Logger = l
	}
}

// frameSampling converts frame ticks to seconds.
func frameSampling(frames []frame) sampling.TimeSampling {
	times := make([]float64, len(frames))
	for i, f := range frames {
		times[i] = float64(f.time) / TicksPerSecond
	}
	// Frames are sorted and unique.
	ts, _ := sampling.New(times...)
	return ts
}

func resolve(path string, ts sampling.TimeSampling, sel sampling.Selector) (int, error) {
	i, err := ts.Resolve(sel)
	if err != nil {
		return 0, &convert.SourceError{Archive: path, Path: "/", Err: err}
	}
	return i, nil
}

func bounds(p scene.Primitive, err error) (data.Box3d, error) {
	if err != nil {
		return data.EmptyBox3d(), err
	}
	return scene.Bound(p), nil
}

type ncacheReader struct {
	c  *NCache
	ts sampling.TimeSampling
}

func newNCacheReader(src convert.Source, o convert.Options) convert.ObjectReader {
	c, ok := src.(*NCache)
	if !ok {
		panic(fmt.Sprintf("particle: ncache reader needs *NCache, got %T", src))
	}
	adoptLogger(&c.opts, o.Logger)
	return &ncacheReader{c: c, ts: frameSampling(c.frames)}
}

func (r *ncacheReader) NumSamples() int                     { return r.ts.Len() }
func (r *ncacheReader) TimeSampling() sampling.TimeSampling { return r.ts }

func (r *ncacheReader) BoundsAt(ctx context.Context, sel sampling.Selector) (data.Box3d, error) {
	return bounds(r.read(ctx, sel))
}

func (r *ncacheReader) ReadSample(ctx context.Context, sel sampling.Selector) (scene.Object, error) {
	obj, err := r.read(ctx, sel)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (r *ncacheReader) read(ctx context.Context, sel sampling.Selector) (*scene.Points, error) {
	i, err := resolve(r.c.Path(), r.ts, sel)
	if err != nil {
		return nil, err
	}
	return r.c.ReadFrame(ctx, i)
}

type hairReader struct {
	h  *HairCache
	ts sampling.TimeSampling
}

func newHairReader(src convert.Source, o convert.Options) convert.ObjectReader {
	h, ok := src.(*HairCache)
	if !ok {
		panic(fmt.Sprintf("particle: hair reader needs *HairCache, got %T", src))
	}
	adoptLogger(&h.opts, o.Logger)
	return &hairReader{h: h, ts: frameSampling(h.frames)}
}

func (r *hairReader) NumSamples() int                     { return r.ts.Len() }
func (r *hairReader) TimeSampling() sampling.TimeSampling { return r.ts }

func (r *hairReader) BoundsAt(ctx context.Context, sel sampling.Selector) (data.Box3d, error) {
	return bounds(r.read(ctx, sel))
}

func (r *hairReader) ReadSample(ctx context.Context, sel sampling.Selector) (scene.Object, error) {
	obj, err := r.read(ctx, sel)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (r *hairReader) read(ctx context.Context, sel sampling.Selector) (*scene.Curves, error) {
	i, err := resolve(r.h.Path(), r.ts, sel)
	if err != nil {
		return nil, err
	}
	return r.h.ReadFrame(ctx, i)
}

// pdcReader serves a PDC file as a single sample at time zero.
type pdcReader struct {
	p  *PDC
	ts sampling.TimeSampling
}

func newPDCReader(src convert.Source, o convert.Options) convert.ObjectReader {
	p, ok := src.(*PDC)
	if !ok {
		panic(fmt.Sprintf("particle: pdc reader needs *PDC, got %T", src))
	}
	adoptLogger(&p.opts, o.Logger)
	return &pdcReader{p: p, ts: sampling.Uniform(0, 1, 1)}
}

func (r *pdcReader) NumSamples() int                     { return 1 }
func (r *pdcReader) TimeSampling() sampling.TimeSampling { return r.ts }

func (r *pdcReader) BoundsAt(ctx context.Context, sel sampling.Selector) (data.Box3d, error) {
	return bounds(r.read(ctx, sel))
}

func (r *pdcReader) ReadSample(ctx context.Context, sel sampling.Selector) (scene.Object, error) {
	obj, err := r.read(ctx, sel)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (r *pdcReader) read(ctx context.Context, sel sampling.Selector) (*scene.Points, error) {
	if err := canceled(ctx); err != nil {
		return nil, err
	}
	if _, err := resolve(r.p.Path(), r.ts, sel); err != nil {
		return nil, err
	}
	return r.p.Points()
}
