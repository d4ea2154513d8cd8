package sceneconv

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/blobstore"
	"github.com/hupe1980/sceneconv/convert"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/internal/cache"
	"github.com/hupe1980/sceneconv/internal/resource"
	"github.com/hupe1980/sceneconv/particle"
	"github.com/hupe1980/sceneconv/sampling"
	"github.com/hupe1980/sceneconv/scene"
)

var registerOnce sync.Once

// registerDefaults fills the process-wide registries with the archive and
// particle converters.
func registerDefaults() {
	registerOnce.Do(func() {
		convert.RegisterDefaults()
		_ = particle.Register(convert.Readers())
	})
}

// Scene is a read-only view of an archive.
//
// A Scene is safe for concurrent use.
type Scene struct {
	r     *archive.Reader
	opts  options
	cache cache.BlockCache

	mu      sync.Mutex
	readers map[string]convert.ObjectReader
	closed  bool
}

// Open opens the named archive in store.
func Open(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Scene, error) {
	o := applyOptions(optFns)
	ropts, bc := o.readerOptions(o.controller())

	r, err := archive.Open(ctx, store, name, ropts...)
	if err != nil {
		o.logger.LogArchiveOpened(ctx, name, 0, err)
		closeCache(bc)
		return nil, translateError(err)
	}
	o.logger.LogArchiveOpened(ctx, name, r.FormatVersion(), nil)
	return newScene(r, o, bc), nil
}

// OpenCurrent opens the archive last published in store.
func OpenCurrent(ctx context.Context, store blobstore.BlobStore, optFns ...Option) (*Scene, error) {
	o := applyOptions(optFns)
	ropts, bc := o.readerOptions(o.controller())

	r, err := archive.OpenCurrent(ctx, store, ropts...)
	if err != nil {
		o.logger.LogArchiveOpened(ctx, "CURRENT", 0, err)
		closeCache(bc)
		return nil, translateError(err)
	}
	o.logger.LogArchiveOpened(ctx, r.Name(), r.FormatVersion(), nil)
	return newScene(r, o, bc), nil
}

func newScene(r *archive.Reader, o options, bc cache.BlockCache) *Scene {
	registerDefaults()
	o.logger = o.logger.WithArchive(r.Name())
	return &Scene{r: r, opts: o, cache: bc, readers: make(map[string]convert.ObjectReader)}
}

func closeCache(bc cache.BlockCache) {
	if bc != nil {
		_ = bc.Close()
	}
}

// Name returns the blob name of the archive.
func (s *Scene) Name() string { return s.r.Name() }

// ArchiveID returns the identity stamped into the archive when it was written.
func (s *Scene) ArchiveID() string { return s.r.ArchiveID() }

// FormatVersion returns the format version of the archive.
func (s *Scene) FormatVersion() int { return s.r.FormatVersion() }

// Paths returns the path of every object below the root, depth first.
func (s *Scene) Paths() []string {
	var out []string
	_ = s.r.Walk(func(o *archive.Object) error {
		if o.Parent() != nil {
			out = append(out, o.Path())
		}
		return nil
	})
	return out
}

// Children returns the names of the children of the object at p.
func (s *Scene) Children(p string) ([]string, error) {
	obj, err := s.find(p)
	if err != nil {
		return nil, err
	}
	kids := obj.Children()
	names := make([]string, len(kids))
	for i, k := range kids {
		names[i] = k.Name()
	}
	return names, nil
}

// Object returns the archive object at p.
func (s *Scene) Object(p string) (*archive.Object, error) {
	return s.find(p)
}

func (s *Scene) find(p string) (*archive.Object, error) {
	obj, ok := s.r.Find(p)
	if !ok {
		return nil, fmt.Errorf("%w: object %s in %s", ErrNotFound, p, s.r.Name())
	}
	return obj, nil
}

// Reader returns the converter that reads the object at p. Readers are
// created on first use and reused.
func (s *Scene) Reader(p string) (convert.ObjectReader, error) {
	obj, err := s.find(p)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if r, ok := s.readers[obj.Path()]; ok {
		return r, nil
	}
	r, ok := convert.NewReader(convert.FromArchive(obj), scene.TypeObject,
		convert.WithLogger(s.opts.logger.WithPath(obj.Path()).Logger))
	if !ok {
		return nil, fmt.Errorf("%w: %s has schema %q", ErrUnsupported, obj.Path(), obj.Schema())
	}
	s.readers[obj.Path()] = r
	return r, nil
}

// Read converts the sample of the object at p chosen by sel.
func (s *Scene) Read(ctx context.Context, p string, sel sampling.Selector) (scene.Object, error) {
	r, err := s.Reader(p)
	if err != nil {
		return nil, err
	}
	schema := ""
	if obj, ok := s.r.Find(p); ok {
		schema = obj.Schema()
	}

	start := time.Now()
	out, err := r.ReadSample(ctx, sel)
	s.opts.metricsCollector.RecordRead(schema, time.Since(start), err)
	if err != nil {
		return nil, translateError(err)
	}
	return out, nil
}

// ReadAt converts the sample of the object at p nearest to t.
func (s *Scene) ReadAt(ctx context.Context, p string, t float64) (scene.Object, error) {
	obj, err := s.Read(ctx, p, sampling.Time(t, sampling.Nearest))
	s.opts.logger.LogSampleRead(ctx, p, t, err)
	return obj, err
}

// Bounds returns the bounds of the object at p and its descendants.
func (s *Scene) Bounds(ctx context.Context, p string, sel sampling.Selector) (data.Box3d, error) {
	obj, err := s.find(p)
	if err != nil {
		return data.EmptyBox3d(), err
	}
	b, err := obj.Bounds(ctx, sel)
	if err != nil {
		return data.EmptyBox3d(), translateError(err)
	}
	return b, nil
}

// SampleTimes returns the sample times of the object at p.
func (s *Scene) SampleTimes(p string) ([]float64, error) {
	obj, err := s.find(p)
	if err != nil {
		return nil, err
	}
	return obj.TimeSampling().Times(), nil
}

// SampleInterval returns the samples of the object at p bracketing t and
// the interpolation factor between them.
func (s *Scene) SampleInterval(p string, t float64) (floor, ceil int, lerp float64, err error) {
	obj, err := s.find(p)
	if err != nil {
		return 0, 0, 0, err
	}
	return obj.TimeSampling().SampleInterval(t)
}

// Walk reads every readable object at the sample nearest to t and calls fn
// in depth-first order. Objects without samples are passed over silently,
// objects with samples but no reader are skipped with a warning. Returning
// an error from fn stops the walk.
func (s *Scene) Walk(ctx context.Context, t float64, fn func(p string, obj scene.Object) error) error {
	return s.r.Walk(func(o *archive.Object) error {
		if err := ctx.Err(); err != nil {
			return translateError(err)
		}
		if o.NumSamples() == 0 {
			return nil
		}
		if _, err := s.Reader(o.Path()); err != nil {
			if !errors.Is(err, ErrUnsupported) {
				return err
			}
			s.opts.logger.LogObjectSkipped(ctx, o.Path(), o.Schema())
			s.opts.metricsCollector.RecordSkip(o.Path(), o.Schema())
			return nil
		}
		obj, err := s.ReadAt(ctx, o.Path(), t)
		if err != nil {
			return err
		}
		return fn(o.Path(), obj)
	})
}

// Close releases the archive and its block cache.
func (s *Scene) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.readers = nil

	var firstErr error
	if err := s.r.Close(); err != nil {
		firstErr = err
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewReader returns a reader for a source outside an archive, such as a
// particle cache.
func NewReader(src convert.Source, desired scene.TypeID, optFns ...Option) (convert.ObjectReader, error) {
	registerDefaults()
	o := applyOptions(optFns)
	r, ok := convert.NewReader(src, desired, convert.WithLogger(o.logger.WithSource(src.Path()).Logger))
	if !ok {
		d := src.Descriptor()
		return nil, fmt.Errorf("%w: no %s reader for %s source %s", ErrUnsupported, desired, d.Format, src.Path())
	}
	return r, nil
}

// Writer writes scene objects into a new archive. The converter for a path
// is created on the first write to it and fixes the type stored there.
//
// A Writer is safe for concurrent use. Samples of one path must still be
// written in increasing time order.
type Writer struct {
	w    *archive.Writer
	opts options
	rc   *resource.Controller

	mu         sync.Mutex
	converters map[string]convert.ObjectWriter
	closed     bool
}

// Create starts a new archive named name in store.
func Create(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Writer, error) {
	registerDefaults()
	o := applyOptions(optFns)
	rc := o.controller()

	w, err := archive.Create(ctx, store, name, o.writerOptions(rc)...)
	if err != nil {
		o.logger.LogArchiveOpened(ctx, name, 0, err)
		return nil, translateError(err)
	}
	o.logger = o.logger.WithArchive(name)
	return &Writer{w: w, opts: o, rc: rc, converters: make(map[string]convert.ObjectWriter)}, nil
}

// Name returns the blob name of the archive.
func (w *Writer) Name() string { return w.w.Name() }

// ArchiveID returns the identity stamped into the archive.
func (w *Writer) ArchiveID() string { return w.w.ArchiveID().String() }

// Write appends obj as the sample at time t of the object at p. Missing
// parents are created as transforms.
func (w *Writer) Write(ctx context.Context, p string, obj scene.Object, t float64) error {
	if obj == nil {
		return fmt.Errorf("%w: nil object for %s", ErrInvalidObject, p)
	}
	p = path.Clean("/" + p)
	if p == "/" {
		return fmt.Errorf("%w: cannot write to the root", ErrInvalidPath)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}

	conv, ok := w.converters[p]
	if !ok {
		var err error
		if conv, err = w.converter(p, obj.TypeID()); err != nil {
			return err
		}
	}

	start := time.Now()
	err := conv.Convert(ctx, obj, t)
	w.opts.metricsCollector.RecordWrite(obj.TypeID().String(), time.Since(start), err)
	w.opts.logger.LogSampleWritten(ctx, p, t, err)
	return translateError(err)
}

// converter creates the parents of p and the converter for its leaf.
// Callers hold w.mu.
func (w *Writer) converter(p string, typ scene.TypeID) (convert.ObjectWriter, error) {
	dir, leaf := path.Split(p)
	parent := w.w.Root()
	for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
		if part == "" {
			continue
		}
		if c, ok := parent.Child(part); ok {
			parent = c
			continue
		}
		c, err := parent.CreateChild(part, archive.SchemaXform)
		if err != nil {
			return nil, translateError(err)
		}
		parent = c
	}

	conv, ok := convert.NewWriter(convert.WriteTarget{Parent: parent, Name: leaf, Type: typ},
		convert.WithLogger(w.opts.logger.WithPath(p).Logger))
	if !ok {
		return nil, fmt.Errorf("%w: no writer for %s at %s", ErrUnsupported, typ, p)
	}
	w.converters[p] = conv
	return conv, nil
}

// SampleTimes returns the times written to p so far.
func (w *Writer) SampleTimes(p string) []float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if conv, ok := w.converters[path.Clean("/"+p)]; ok {
		return conv.SampleTimes()
	}
	return nil
}

// Close finishes the archive. A Writer that is not closed leaves no
// readable archive behind.
func (w *Writer) Close(ctx context.Context) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	w.converters = nil

	return translateError(w.w.Close(ctx))
}

// Publish points the CURRENT marker of store at the archive name.
func Publish(ctx context.Context, store blobstore.BlobStore, name string) error {
	return translateError(archive.Publish(ctx, store, name))
}
