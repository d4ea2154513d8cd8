package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/sampling"
	"github.com/hupe1980/sceneconv/scene"
)

var (
	errMissing     = errors.New("required property missing")
	errInvalidLens = errors.New("focal length and apertures must be positive")
)

// archiveReader holds what every archive-backed reader shares.
type archiveReader struct {
	obj    *archive.Object
	logger *slog.Logger
}

func newArchiveReader(src Source, o Options) archiveReader {
	as, ok := src.(interface{ Object() *archive.Object })
	if !ok {
		panic(fmt.Sprintf("convert: archive reader constructed for %T", src))
	}
	return archiveReader{obj: as.Object(), logger: o.Logger}
}

func (r archiveReader) NumSamples() int { return r.obj.NumSamples() }

func (r archiveReader) TimeSampling() sampling.TimeSampling { return r.obj.TimeSampling() }

func (r archiveReader) resolve(sel sampling.Selector) (int, error) {
	index, err := r.obj.TimeSampling().Resolve(sel)
	if err != nil {
		return 0, r.fail("", err)
	}
	return index, nil
}

// fail wraps err as a SourceError for field, or as ErrCanceled when err
// came from the context.
func (r archiveReader) fail(field string, err error) error {
	if errors.Is(err, ErrCanceled) {
		return err
	}
	if isContextErr(err) {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	return &SourceError{Archive: r.obj.Archive(), Path: r.obj.Path(), Field: field, Err: err}
}

func (r archiveReader) warnSkip(field, reason string) {
	r.logger.Warn("skipping field",
		slog.String("archive", r.obj.Archive()),
		slog.String("object", r.obj.Path()),
		slog.String("field", field),
		slog.String("reason", reason),
	)
}

// primitiveBounds returns .selfBnds when present and the bound of the
// primitive read at sel otherwise.
func (r archiveReader) primitiveBounds(ctx context.Context, sel sampling.Selector, read func(context.Context, sampling.Selector) (scene.Object, error)) (data.Box3d, error) {
	index, err := r.resolve(sel)
	if err != nil {
		return data.Box3d{}, err
	}
	if r.obj.HasProperty(archive.PropSelfBounds, index) {
		b, err := r.obj.SelfBounds(ctx, index)
		if err != nil {
			return data.Box3d{}, r.fail(archive.PropSelfBounds, err)
		}
		return b, nil
	}
	obj, err := read(ctx, sampling.Index(index))
	if err != nil {
		return data.Box3d{}, err
	}
	return scene.Bound(obj.(scene.Primitive)), nil
}

// decodeSample turns a property sample into a container.
func decodeSample(ps archive.PropertySample) (data.Data, error) {
	tr, ok := LookupField(ps.Header.Type)
	if !ok {
		return nil, fmt.Errorf("field type %s is not supported", ps.Header.Type)
	}
	d, err := archive.DecodeData(tr.Kind, !ps.Header.Scalar, ps.Raw, ps.Count)
	if err != nil {
		return nil, err
	}
	data.SetInterpretation(d, tr.Interpretation)
	return d, nil
}

// readData reads and decodes a required schema property.
func (r archiveReader) readData(ctx context.Context, name string, index int) (data.Data, error) {
	if err := canceled(ctx); err != nil {
		return nil, err
	}
	if !r.obj.HasProperty(name, index) {
		return nil, r.fail(name, errMissing)
	}
	ps, err := r.obj.ReadProperty(ctx, name, index)
	if err != nil {
		return nil, r.fail(name, err)
	}
	d, err := decodeSample(ps)
	if err != nil {
		return nil, r.fail(name, err)
	}
	return d, nil
}

// readValues reads a required schema property as a slice of T.
func readValues[T data.Element](ctx context.Context, r archiveReader, name string, index int) ([]T, error) {
	d, err := r.readData(ctx, name, index)
	if err != nil {
		return nil, err
	}
	v, ok := data.Values[T](d)
	if !ok {
		return nil, r.fail(name, fmt.Errorf("holds %s, want %s", d.TypeName(), data.KindOf[T]()))
	}
	return v, nil
}

// readOptionalValues is readValues returning nil when the property is absent.
func readOptionalValues[T data.Element](ctx context.Context, r archiveReader, name string, index int) ([]T, error) {
	if !r.obj.HasProperty(name, index) {
		return nil, nil
	}
	return readValues[T](ctx, r, name, index)
}

// readScalar reads a single-valued property, returning def when it is absent.
func readScalar[T data.Element](ctx context.Context, r archiveReader, name string, index int, def T) (T, error) {
	if !r.obj.HasProperty(name, index) {
		return def, nil
	}
	v, err := readValues[T](ctx, r, name, index)
	if err != nil {
		return def, err
	}
	if len(v) != 1 {
		return def, r.fail(name, fmt.Errorf("holds %d values, want 1", len(v)))
	}
	return v[0], nil
}

// readPositions reads P as a V3f or V3d array.
func (r archiveReader) readPositions(ctx context.Context, index int) (data.Data, error) {
	d, err := r.readData(ctx, archive.PropPositions, index)
	if err != nil {
		return nil, err
	}
	if !d.IsArray() || (d.Kind() != data.KindV3f && d.Kind() != data.KindV3d) {
		return nil, r.fail(archive.PropPositions, fmt.Errorf("holds %s, want V3fArray", d.TypeName()))
	}
	return d, nil
}

// variableFromSample converts a property sample into a primitive variable.
// A non-empty reason means the field cannot be represented.
func variableFromSample(ps archive.PropertySample) (scene.PrimitiveVariable, string, error) {
	h := ps.Header
	if h.Extent() > 1 {
		return scene.PrimitiveVariable{}, fmt.Sprintf("array extent %d is not supported", h.Extent()), nil
	}
	if _, ok := LookupField(h.Type); !ok {
		return scene.PrimitiveVariable{}, fmt.Sprintf("field type %s is not supported", h.Type), nil
	}
	interp := ScopeToInterpolation(h.Scope)
	if interp == scene.Invalid {
		return scene.PrimitiveVariable{}, fmt.Sprintf("scope %s is not supported", h.Scope), nil
	}
	d, err := decodeSample(ps)
	if err != nil {
		return scene.PrimitiveVariable{}, "", err
	}
	pv := scene.PrimitiveVariable{Interpolation: interp, Data: d}
	if h.Indexed {
		pv.Indices = ps.Indices
	}
	return pv, "", nil
}

// readVariable reads an optional schema property into variable name of prim.
// Fields that cannot be represented or do not fit the topology are skipped
// with a warning. expand replaces indexed data by its expansion.
func (r archiveReader) readVariable(ctx context.Context, prim scene.Primitive, index int, prop, name string, expand bool) error {
	if err := canceled(ctx); err != nil {
		return err
	}
	if !r.obj.HasProperty(prop, index) {
		return nil
	}
	ps, err := r.obj.ReadProperty(ctx, prop, index)
	if err != nil {
		return r.fail(prop, err)
	}
	return r.setVariable(prim, prop, name, ps, expand)
}

func (r archiveReader) setVariable(prim scene.Primitive, field, name string, ps archive.PropertySample, expand bool) error {
	pv, reason, err := variableFromSample(ps)
	if err != nil {
		return r.fail(field, err)
	}
	if reason != "" {
		r.warnSkip(field, reason)
		return nil
	}
	if expand && pv.Indices != nil {
		d, err := pv.Expanded()
		if err != nil {
			r.warnSkip(field, err.Error())
			return nil
		}
		pv = scene.PrimitiveVariable{Interpolation: pv.Interpolation, Data: d}
	}
	if err := scene.ValidateVariable(prim, name, pv); err != nil {
		r.warnSkip(field, err.Error())
		return nil
	}
	return prim.Variables().Set(name, pv)
}

// finish runs the arbitrary parameter pass and validates the result.
func (r archiveReader) finish(ctx context.Context, prim scene.Primitive, index int) error {
	if err := ReadArbitrary(ctx, r.obj, index, prim, r.logger); err != nil {
		return err
	}
	return r.validate(prim)
}

func (r archiveReader) validate(prim scene.Primitive) error {
	if err := scene.Validate(prim); err != nil {
		return r.fail("", err)
	}
	return nil
}
