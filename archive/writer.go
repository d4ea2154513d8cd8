package archive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/sceneconv/blobstore"
	"github.com/hupe1980/sceneconv/internal/hash"
	"github.com/hupe1980/sceneconv/internal/resource"
	"github.com/hupe1980/sceneconv/sampling"
)

// Writer creates an archive. Objects are added through Root and its
// descendants; the archive becomes readable when Close returns.
// A Writer is safe for concurrent use, but samples of a single object must be
// written in order.
type Writer struct {
	mu     sync.Mutex
	name   string
	blob   blobstore.WritableBlob
	out    io.Writer
	opts   writerOptions
	id     uuid.UUID
	offset int64
	dedup  map[blockKey]blockRef
	root   *OObject
	closed bool

	blocks    int
	dedupHits int
}

type blockKey struct {
	sum    uint64
	crc    uint32
	length int
}

// Create starts a new archive called name in store.
func Create(ctx context.Context, store blobstore.BlobStore, name string, opts ...WriterOption) (*Writer, error) {
	o := defaultWriterOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if o.formatVersion != FormatVersionLegacy && o.formatVersion != FormatVersionCurrent {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, o.formatVersion)
	}
	if o.compression > CompressionZSTD {
		return nil, fmt.Errorf("archive: unknown compression %d", o.compression)
	}
	if len(o.codec.Name()) > 255 {
		return nil, fmt.Errorf("archive: codec name %q too long", o.codec.Name())
	}

	blob, err := store.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("archive: create %s: %w", name, err)
	}

	w := &Writer{
		name:  name,
		blob:  blob,
		out:   blob,
		opts:  o,
		id:    uuid.New(),
		dedup: make(map[blockKey]blockRef),
	}
	if o.rc != nil {
		w.out = resource.NewRateLimitedWriter(ctx, blob, o.rc)
	}
	w.root = newOObject(w, nil, "", SchemaXform)

	h := header{Version: o.formatVersion, Compression: o.compression, Codec: o.codec.Name()}
	if err := w.write(h.encode()); err != nil {
		_ = blob.Close()
		return nil, err
	}
	return w, nil
}

// Name returns the blob name of the archive.
func (w *Writer) Name() string { return w.name }

// ArchiveID returns the identifier stamped into the manifest.
func (w *Writer) ArchiveID() uuid.UUID { return w.id }

// Root returns the root object. The root has no samples of its own.
func (w *Writer) Root() *OObject { return w.root }

func (w *Writer) write(p []byte) error {
	n, err := w.out.Write(p)
	w.offset += int64(n)
	if err != nil {
		return fmt.Errorf("archive: write %s: %w", w.name, err)
	}
	return nil
}

// writeBlock stores payload as a block, reusing an identical earlier block.
func (w *Writer) writeBlock(payload []byte) (blockRef, error) {
	key := blockKey{sum: hash.Sum64(payload), crc: hash.CRC32C(payload), length: len(payload)}
	if ref, ok := w.dedup[key]; ok {
		w.dedupHits++
		return ref, nil
	}
	block, err := encodeBlock(payload, w.opts.compression)
	if err != nil {
		return blockRef{}, err
	}
	ref := blockRef{Offset: w.offset, Length: int64(len(block))}
	if err := w.write(block); err != nil {
		return blockRef{}, err
	}
	w.dedup[key] = ref
	w.blocks++
	return ref, nil
}

// Close writes the manifest and footer and closes the blob.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	w.closed = true

	if err := ctx.Err(); err != nil {
		_ = w.blob.Close()
		return err
	}

	m := manifest{
		ArchiveID: w.id.String(),
		CreatedAt: time.Now().UTC(),
		Root:      w.root.info(),
	}
	raw, err := w.opts.codec.Marshal(m)
	if err != nil {
		_ = w.blob.Close()
		return fmt.Errorf("archive: encode manifest: %w", err)
	}
	block, err := encodeBlock(raw, w.opts.compression)
	if err != nil {
		_ = w.blob.Close()
		return err
	}
	ref := blockRef{Offset: w.offset, Length: int64(len(block))}
	if err := w.write(block); err != nil {
		_ = w.blob.Close()
		return err
	}
	if err := w.write(encodeFooter(ref)); err != nil {
		_ = w.blob.Close()
		return err
	}
	if err := w.blob.Sync(); err != nil {
		_ = w.blob.Close()
		return fmt.Errorf("archive: sync %s: %w", w.name, err)
	}
	if err := w.blob.Close(); err != nil {
		return fmt.Errorf("archive: close %s: %w", w.name, err)
	}

	w.opts.logger.Debug("archive written",
		"archive", w.name,
		"id", w.id.String(),
		"bytes", w.offset,
		"blocks", w.blocks,
		"dedup_hits", w.dedupHits,
		"compression", w.opts.compression.String(),
	)
	return nil
}

// OObject is an object being written.
type OObject struct {
	w        *Writer
	parent   *OObject
	name     string
	schema   string
	ts       sampling.TimeSampling
	samples  int
	props    propertySet
	arb      propertySet
	children []*OObject
	byName   map[string]*OObject
}

func newOObject(w *Writer, parent *OObject, name, schema string) *OObject {
	return &OObject{
		w:      w,
		parent: parent,
		name:   name,
		schema: schema,
		byName: make(map[string]*OObject),
	}
}

// Name returns the object name.
func (o *OObject) Name() string { return o.name }

// Schema returns the object schema.
func (o *OObject) Schema() string { return o.schema }

// Path returns the slash-separated path of the object. The root is "/".
func (o *OObject) Path() string {
	if o.parent == nil {
		return "/"
	}
	if o.parent.parent == nil {
		return "/" + o.name
	}
	return o.parent.Path() + "/" + o.name
}

// Archive returns the name of the archive the object belongs to.
func (o *OObject) Archive() string { return o.w.name }

// NumSamples returns the number of samples written so far.
func (o *OObject) NumSamples() int {
	o.w.mu.Lock()
	defer o.w.mu.Unlock()
	return o.samples
}

// TimeSampling returns the current time sampling.
func (o *OObject) TimeSampling() sampling.TimeSampling {
	o.w.mu.Lock()
	defer o.w.mu.Unlock()
	return o.ts
}

// CreateChild adds a child object.
func (o *OObject) CreateChild(name, schema string) (*OObject, error) {
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("archive: invalid object name %q", name)
	}

	o.w.mu.Lock()
	defer o.w.mu.Unlock()

	if o.w.closed {
		return nil, ErrClosed
	}
	if _, ok := o.byName[name]; ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrObjectExists, strings.TrimSuffix(o.Path(), "/"), name)
	}
	c := newOObject(o.w, o, name, schema)
	o.children = append(o.children, c)
	o.byName[name] = c
	return c, nil
}

// Child returns a previously created child.
func (o *OObject) Child(name string) (*OObject, bool) {
	o.w.mu.Lock()
	defer o.w.mu.Unlock()
	c, ok := o.byName[name]
	return c, ok
}

// SetTimeSampling replaces the time sampling. The new table must keep the
// times of samples already written.
func (o *OObject) SetTimeSampling(ts sampling.TimeSampling) error {
	o.w.mu.Lock()
	defer o.w.mu.Unlock()

	if o.w.closed {
		return ErrClosed
	}
	if ts.Len() < o.samples {
		return fmt.Errorf("%w: %d times for %d written samples of %s", ErrTimeSampling, ts.Len(), o.samples, o.Path())
	}
	for i := range o.samples {
		if ts.At(i) != o.ts.At(i) {
			return fmt.Errorf("%w: sample %d of %s moved from %g to %g", ErrTimeSampling, i, o.Path(), o.ts.At(i), ts.At(i))
		}
	}
	o.ts = ts
	return nil
}

// WriteSample appends a sample. Properties written earlier but missing from
// s keep their previous value. Nothing is recorded when validation fails.
func (o *OObject) WriteSample(ctx context.Context, s Sample) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	o.w.mu.Lock()
	defer o.w.mu.Unlock()

	if o.w.closed {
		return ErrClosed
	}
	if o.parent == nil {
		return fmt.Errorf("archive: the root object has no samples")
	}
	if o.samples >= o.ts.Len() {
		return fmt.Errorf("%w: sample %d of %s has no time (%d times)", ErrTimeSampling, o.samples, o.Path(), o.ts.Len())
	}
	if err := o.props.validate(o.Path(), s.Properties); err != nil {
		return err
	}
	if err := o.arb.validate(o.Path(), s.Arbitrary); err != nil {
		return err
	}

	props, err := o.writeValues(s.Properties)
	if err != nil {
		return err
	}
	arb, err := o.writeValues(s.Arbitrary)
	if err != nil {
		return err
	}

	o.props.append(o.samples, s.Properties, props)
	o.arb.append(o.samples, s.Arbitrary, arb)
	o.samples++
	return nil
}

func (o *OObject) writeValues(values []PropertyValue) ([]sampleRef, error) {
	refs := make([]sampleRef, len(values))
	for i, v := range values {
		ref, err := o.w.writeBlock(v.Raw)
		if err != nil {
			return nil, err
		}
		refs[i] = sampleRef{Data: ref, Count: v.Count}
		if v.Header.Indexed {
			iref, err := o.w.writeBlock(encodeIndices(v.Indices))
			if err != nil {
				return nil, err
			}
			refs[i].Indices = &iref
		}
	}
	return refs, nil
}

func (o *OObject) info() objectInfo {
	oi := objectInfo{
		Name:       o.name,
		Schema:     o.schema,
		Times:      o.ts.Times()[:o.samples],
		Samples:    o.samples,
		Properties: o.props.infos,
		Arbitrary:  o.arb.infos,
	}
	for _, c := range o.children {
		oi.Children = append(oi.Children, c.info())
	}
	return oi
}

// propertySet tracks the properties of one object in declaration order.
type propertySet struct {
	infos []propertyInfo
	index map[string]int
}

func (ps *propertySet) validate(path string, values []PropertyValue) error {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		h := v.Header
		if _, dup := seen[h.Name]; dup {
			return fmt.Errorf("%w: %s.%s given twice", ErrInvalidValue, path, h.Name)
		}
		seen[h.Name] = struct{}{}

		if err := validateValue(v); err != nil {
			return fmt.Errorf("%s.%s: %w", path, h.Name, err)
		}
		if i, ok := ps.index[h.Name]; ok && !ps.infos[i].Header.sameLayout(h) {
			return fmt.Errorf("%w: %s.%s was %s, now %s", ErrPropertyMismatch, path, h.Name, ps.infos[i].Header.Type, h.Type)
		}
	}
	return nil
}

func validateValue(v PropertyValue) error {
	h := v.Header
	if h.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidValue)
	}
	if h.Type.POD == PODUnknown || h.Type.POD > PODString || h.Type.Extent < 1 {
		return fmt.Errorf("%w: type %s", ErrInvalidValue, h.Type)
	}
	if v.Count < 0 || (h.Scalar && v.Count != 1) {
		return fmt.Errorf("%w: %d elements", ErrInvalidValue, v.Count)
	}
	if h.Type.POD == PODString {
		if _, err := DecodeStrings(v.Raw, v.Count*h.Type.Extent); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
	} else if want := v.Count * h.Type.ElementSize(); len(v.Raw) != want {
		return fmt.Errorf("%w: %d bytes for %d x %s", ErrInvalidValue, len(v.Raw), v.Count, h.Type)
	}
	if !h.Indexed {
		if v.Indices != nil {
			return fmt.Errorf("%w: indices on a non-indexed property", ErrInvalidValue)
		}
		return nil
	}
	for i, idx := range v.Indices {
		if idx < 0 || int(idx) >= v.Count {
			return fmt.Errorf("%w: index %d at %d out of range [0, %d)", ErrInvalidValue, idx, i, v.Count)
		}
	}
	return nil
}

func (ps *propertySet) append(sample int, values []PropertyValue, refs []sampleRef) {
	if ps.index == nil {
		ps.index = make(map[string]int)
	}
	written := make(map[int]struct{}, len(values))
	for i, v := range values {
		j, ok := ps.index[v.Header.Name]
		if !ok {
			j = len(ps.infos)
			ps.index[v.Header.Name] = j
			ps.infos = append(ps.infos, propertyInfo{Header: v.Header, FirstSample: sample})
		}
		ps.infos[j].Samples = append(ps.infos[j].Samples, refs[i])
		written[j] = struct{}{}
	}
	for j := range ps.infos {
		if _, ok := written[j]; ok {
			continue
		}
		last := ps.infos[j].Samples[len(ps.infos[j].Samples)-1]
		ps.infos[j].Samples = append(ps.infos[j].Samples, last)
	}
}
