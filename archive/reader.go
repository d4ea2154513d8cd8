package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/sceneconv/blobstore"
	"github.com/hupe1980/sceneconv/codec"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/internal/cache"
	"github.com/hupe1980/sceneconv/internal/hash"
	"github.com/hupe1980/sceneconv/sampling"
)

// Reader gives read access to an archive. It is safe for concurrent use.
type Reader struct {
	name      string
	blob      blobstore.Blob
	hdr       header
	archiveID string
	createdAt time.Time
	cacheID   uint64
	opts      readerOptions
	root      *Object

	closeOnce sync.Once
	closeErr  error
}

// Open opens the archive called name in store.
func Open(ctx context.Context, store blobstore.BlobStore, name string, opts ...ReaderOption) (*Reader, error) {
	o := defaultReaderOptions()
	for _, fn := range opts {
		fn(&o)
	}

	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", name, err)
	}

	r := &Reader{name: name, blob: blob, opts: o}
	if err := r.load(ctx); err != nil {
		_ = blob.Close()
		return nil, err
	}

	o.logger.Debug("archive opened",
		"archive", name,
		"id", r.archiveID,
		"version", r.hdr.Version,
		"codec", r.hdr.Codec,
		"compression", r.hdr.Compression.String(),
	)
	return r, nil
}

func (r *Reader) readFull(ctx context.Context, off, n int64) ([]byte, error) {
	buf := make([]byte, n)
	got, err := r.blob.ReadAt(ctx, buf, off)
	if err != nil && !(errors.Is(err, io.EOF) && int64(got) == n) {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s: short read at %d", ErrCorrupt, r.name, off)
		}
		return nil, fmt.Errorf("archive: read %s at %d: %w", r.name, off, err)
	}
	return buf, nil
}

func (r *Reader) load(ctx context.Context) error {
	size := r.blob.Size()
	if size < int64(headerPrefixSize+footerSize) {
		return fmt.Errorf("%w: %s", ErrNotArchive, r.name)
	}

	prefix, err := r.readFull(ctx, 0, min(size, int64(headerPrefixSize+255)))
	if err != nil {
		return err
	}
	hdr, _, err := decodeHeader(r.name, prefix)
	if err != nil {
		return err
	}
	r.hdr = hdr

	foot, err := r.readFull(ctx, size-footerSize, footerSize)
	if err != nil {
		return err
	}
	ref, err := decodeFooter(r.name, foot, size)
	if err != nil {
		return err
	}
	block, err := r.readFull(ctx, ref.Offset, ref.Length)
	if err != nil {
		return err
	}
	raw, err := decodeBlock(r.name, ref.Offset, block, hdr.Compression)
	if err != nil {
		return err
	}

	c, _ := codec.ByName(hdr.Codec)
	var m manifest
	if err := c.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("%w: %s: manifest: %w", ErrCorrupt, r.name, err)
	}
	r.archiveID = m.ArchiveID
	r.createdAt = m.CreatedAt
	r.cacheID = hash.Sum64String(m.ArchiveID)

	root, err := r.build(nil, &m.Root)
	if err != nil {
		return err
	}
	r.root = root
	return nil
}

func (r *Reader) build(parent *Object, info *objectInfo) (*Object, error) {
	ts, err := sampling.New(info.Times...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: object %q: %w", ErrCorrupt, r.name, info.Name, err)
	}
	obj := &Object{
		r:      r,
		parent: parent,
		info:   info,
		ts:     ts,
		props:  indexProperties(info.Properties),
		arb:    indexProperties(info.Arbitrary),
		byName: make(map[string]*Object, len(info.Children)),
	}
	switch {
	case parent == nil:
		obj.path = "/"
	case parent.parent == nil:
		obj.path = "/" + info.Name
	default:
		obj.path = parent.path + "/" + info.Name
	}
	if parent != nil && info.Samples != ts.Len() {
		return nil, fmt.Errorf("%w: %s: %s has %d samples and %d times", ErrCorrupt, r.name, obj.path, info.Samples, ts.Len())
	}
	for i := range info.Children {
		c, err := r.build(obj, &info.Children[i])
		if err != nil {
			return nil, err
		}
		obj.children = append(obj.children, c)
		obj.byName[c.Name()] = c
	}
	return obj, nil
}

func indexProperties(infos []propertyInfo) map[string]*propertyInfo {
	m := make(map[string]*propertyInfo, len(infos))
	for i := range infos {
		m[infos[i].Header.Name] = &infos[i]
	}
	return m
}

// Name returns the blob name of the archive.
func (r *Reader) Name() string { return r.name }

// FormatVersion returns the archive format version.
func (r *Reader) FormatVersion() int { return r.hdr.Version }

// Compression returns the block compression of the archive.
func (r *Reader) Compression() Compression { return r.hdr.Compression }

// Codec returns the name of the manifest codec.
func (r *Reader) Codec() string { return r.hdr.Codec }

// ArchiveID returns the identifier stamped in by the writer.
func (r *Reader) ArchiveID() string { return r.archiveID }

// CreatedAt returns the time the archive was closed by its writer.
func (r *Reader) CreatedAt() time.Time { return r.createdAt }

// Root returns the root object.
func (r *Reader) Root() *Object { return r.root }

// Find returns the object at path ("/a/b"). "/" and "" name the root.
func (r *Reader) Find(path string) (*Object, bool) {
	obj := r.root
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" {
			continue
		}
		c, ok := obj.byName[part]
		if !ok {
			return nil, false
		}
		obj = c
	}
	return obj, true
}

// Walk calls fn for every object in depth-first order, root first.
// Returning an error from fn stops the walk.
func (r *Reader) Walk(fn func(*Object) error) error {
	var walk func(o *Object) error
	walk = func(o *Object) error {
		if err := fn(o); err != nil {
			return err
		}
		for _, c := range o.children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(r.root)
}

// Close releases the blob and drops cached blocks of the archive.
func (r *Reader) Close() error {
	r.closeOnce.Do(func() {
		if r.opts.cache != nil {
			id := r.cacheID
			r.opts.cache.Invalidate(func(k cache.CacheKey) bool {
				return k.Kind == cache.CacheKindSample && k.Path == r.name && k.Archive == id
			})
		}
		r.closeErr = r.blob.Close()
	})
	return r.closeErr
}

func (r *Reader) readBlock(ctx context.Context, ref blockRef) ([]byte, error) {
	key := cache.CacheKey{Kind: cache.CacheKindSample, Path: r.name, Archive: r.cacheID, Offset: uint64(ref.Offset)}
	if r.opts.cache != nil {
		if b, ok := r.opts.cache.Get(ctx, key); ok {
			return b, nil
		}
	}

	if ref.Offset < 0 || ref.Length < blockHeaderSize {
		return nil, fmt.Errorf("%w: %s: block at %d+%d", ErrCorrupt, r.name, ref.Offset, ref.Length)
	}
	if err := r.opts.rc.AcquireIO(ctx, int(ref.Length)); err != nil {
		return nil, err
	}
	block, err := r.readFull(ctx, ref.Offset, ref.Length)
	if err != nil {
		return nil, err
	}

	size, _, err := blockSizes(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, r.name, err)
	}
	if r.opts.rc != nil {
		if err := r.opts.rc.AcquireMemory(int64(size)); err != nil {
			return nil, fmt.Errorf("archive: decode block of %d bytes: %w", size, err)
		}
		defer r.opts.rc.ReleaseMemory(int64(size))
	}

	out, err := decodeBlock(r.name, ref.Offset, block, r.hdr.Compression)
	if err != nil {
		return nil, err
	}
	if r.opts.cache != nil {
		r.opts.cache.Set(ctx, key, out)
	}
	return out, nil
}

// Object is an object of an open archive.
type Object struct {
	r        *Reader
	parent   *Object
	info     *objectInfo
	path     string
	ts       sampling.TimeSampling
	props    map[string]*propertyInfo
	arb      map[string]*propertyInfo
	children []*Object
	byName   map[string]*Object
}

// Name returns the object name. The root has an empty name.
func (o *Object) Name() string { return o.info.Name }

// Path returns the slash-separated object path.
func (o *Object) Path() string { return o.path }

// Schema returns the object schema.
func (o *Object) Schema() string { return o.info.Schema }

// Archive returns the blob name of the archive.
func (o *Object) Archive() string { return o.r.name }

// FormatVersion returns the format version of the archive.
func (o *Object) FormatVersion() int { return o.r.hdr.Version }

// TimeSampling returns the sample times of the object.
func (o *Object) TimeSampling() sampling.TimeSampling { return o.ts }

// NumSamples returns the number of samples.
func (o *Object) NumSamples() int { return o.info.Samples }

// Parent returns the parent object, nil for the root.
func (o *Object) Parent() *Object { return o.parent }

// Children returns the child objects in creation order.
func (o *Object) Children() []*Object { return o.children }

// Child returns the named child.
func (o *Object) Child(name string) (*Object, bool) {
	c, ok := o.byName[name]
	return c, ok
}

// Properties returns the headers of the schema properties in declaration
// order.
func (o *Object) Properties() []PropertyHeader { return headers(o.info.Properties) }

// Arbitrary returns the headers of the arbitrary parameters in declaration
// order.
func (o *Object) Arbitrary() []PropertyHeader { return headers(o.info.Arbitrary) }

func headers(infos []propertyInfo) []PropertyHeader {
	out := make([]PropertyHeader, len(infos))
	for i := range infos {
		out[i] = infos[i].Header
	}
	return out
}

// Property returns the header of a schema property.
func (o *Object) Property(name string) (PropertyHeader, bool) {
	pi, ok := o.props[name]
	if !ok {
		return PropertyHeader{}, false
	}
	return pi.Header, true
}

// HasProperty reports whether the schema property exists at sample index.
func (o *Object) HasProperty(name string, index int) bool {
	pi, ok := o.props[name]
	return ok && index >= pi.FirstSample
}

// HasArbitrary reports whether the arbitrary parameter exists at sample
// index.
func (o *Object) HasArbitrary(name string, index int) bool {
	pi, ok := o.arb[name]
	return ok && index >= pi.FirstSample
}

// ReadProperty reads a schema property at a sample index.
func (o *Object) ReadProperty(ctx context.Context, name string, index int) (PropertySample, error) {
	return o.read(ctx, o.props[name], name, index)
}

// ReadArbitrary reads an arbitrary parameter at a sample index.
func (o *Object) ReadArbitrary(ctx context.Context, name string, index int) (PropertySample, error) {
	return o.read(ctx, o.arb[name], name, index)
}

func (o *Object) read(ctx context.Context, pi *propertyInfo, name string, index int) (PropertySample, error) {
	if err := ctx.Err(); err != nil {
		return PropertySample{}, err
	}
	if index < 0 || index >= o.info.Samples {
		return PropertySample{}, fmt.Errorf("%w: %s sample %d of %d", ErrSampleOutOfRange, o.path, index, o.info.Samples)
	}
	if pi == nil || index < pi.FirstSample || len(pi.Samples) == 0 {
		return PropertySample{}, fmt.Errorf("%w: %s.%s at sample %d", ErrPropertyNotFound, o.path, name, index)
	}
	i := min(index-pi.FirstSample, len(pi.Samples)-1)
	ref := pi.Samples[i]

	raw, err := o.r.readBlock(ctx, ref.Data)
	if err != nil {
		return PropertySample{}, fmt.Errorf("%s.%s: %w", o.path, name, err)
	}
	ps := PropertySample{Header: pi.Header, Raw: raw, Count: ref.Count}
	if ref.Indices != nil {
		iraw, err := o.r.readBlock(ctx, *ref.Indices)
		if err != nil {
			return PropertySample{}, fmt.Errorf("%s.%s indices: %w", o.path, name, err)
		}
		if ps.Indices, err = decodeIndices(iraw); err != nil {
			return PropertySample{}, fmt.Errorf("%s.%s: %w", o.path, name, err)
		}
	}
	return ps, nil
}

// Bounds returns the bounds at sel: the object's own .selfBnds when it has
// them, otherwise the union of its children's bounds. Objects without either
// return an empty box.
func (o *Object) Bounds(ctx context.Context, sel sampling.Selector) (data.Box3d, error) {
	if _, ok := o.props[PropSelfBounds]; ok && o.ts.Len() > 0 {
		index, err := o.ts.Resolve(sel)
		if err != nil {
			return data.Box3d{}, fmt.Errorf("%s: %w", o.path, err)
		}
		return o.SelfBounds(ctx, index)
	}

	box := data.EmptyBox3d()
	for _, c := range o.children {
		cb, err := c.Bounds(ctx, sel)
		if errors.Is(err, sampling.ErrEmpty) {
			continue
		}
		if err != nil {
			return data.Box3d{}, err
		}
		box = box.Union(cb)
	}
	return box, nil
}

// SelfBounds reads .selfBnds at a sample index.
func (o *Object) SelfBounds(ctx context.Context, index int) (data.Box3d, error) {
	ps, err := o.ReadProperty(ctx, PropSelfBounds, index)
	if err != nil {
		return data.Box3d{}, err
	}
	d, err := DecodeData(data.KindBox3d, false, ps.Raw, 1)
	if err != nil || ps.Header.Type.POD != PODFloat64 || ps.Header.Type.Extent != 6 {
		return data.Box3d{}, fmt.Errorf("%w: %s.%s is %s", ErrCorrupt, o.path, PropSelfBounds, ps.Header.Type)
	}
	return d.Any().(data.Box3d), nil
}
