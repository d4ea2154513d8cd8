package convert

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"slices"

	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/sampling"
	"github.com/hupe1980/sceneconv/scene"
)

// archiveWriter holds the state every archive writer shares: the target,
// the lazily created object and the times written so far.
type archiveWriter struct {
	target    WriteTarget
	logger    *slog.Logger
	supported scene.TypeID

	obj   *archive.OObject
	times []float64
}

func newArchiveWriter(t WriteTarget, o Options, supported scene.TypeID) archiveWriter {
	return archiveWriter{target: t, logger: o.Logger, supported: supported}
}

func (w *archiveWriter) SupportedType() scene.TypeID { return w.supported }

func (w *archiveWriter) SampleTimes() []float64 { return slices.Clone(w.times) }

func (w *archiveWriter) path() string {
	if w.target.Parent == nil {
		return "/" + w.target.Name
	}
	return path.Join(w.target.Parent.Path(), w.target.Name)
}

// check validates a sample before anything is mutated.
func (w *archiveWriter) check(ctx context.Context, obj scene.Object, time float64) error {
	if err := canceled(ctx); err != nil {
		return err
	}
	if n := len(w.times); n > 0 && !(time > w.times[n-1]) {
		return &SequencingError{Path: w.path(), Time: time, Last: w.times[n-1]}
	}
	if obj == nil {
		return &TypeMismatchError{Path: w.path(), Want: w.supported, Got: scene.TypeObject}
	}
	if !obj.TypeID().IsA(w.supported) {
		return &TypeMismatchError{Path: w.path(), Want: w.supported, Got: obj.TypeID()}
	}
	return nil
}

func (w *archiveWriter) mismatch(obj scene.Object) error {
	return &TypeMismatchError{Path: w.path(), Want: w.supported, Got: obj.TypeID()}
}

// commit creates the object on first use, extends its time sampling and
// appends s. The recorded times only change when the sample was written.
func (w *archiveWriter) commit(ctx context.Context, schema string, s archive.Sample, time float64) error {
	if w.target.Parent == nil {
		return fmt.Errorf("convert: %s: write target has no parent", w.path())
	}
	if w.obj == nil {
		obj, err := w.target.Parent.CreateChild(w.target.Name, schema)
		if err != nil {
			return err
		}
		w.obj = obj
	}
	ts, err := sampling.New(append(slices.Clone(w.times), time)...)
	if err != nil {
		return err
	}
	if err := w.obj.SetTimeSampling(ts); err != nil {
		return err
	}
	if err := w.obj.WriteSample(ctx, s); err != nil {
		if isContextErr(err) {
			return fmt.Errorf("%w: %w", ErrCanceled, err)
		}
		return err
	}
	w.times = append(w.times, time)
	w.logger.Debug("sample written",
		slog.String("object", w.obj.Path()),
		slog.Float64("time", time),
		slog.Int("samples", len(w.times)),
	)
	return nil
}

// schema returns the schema of the created object, or def before the first
// sample.
func (w *archiveWriter) schema(def string) string {
	if w.obj != nil {
		return w.obj.Schema()
	}
	return def
}

func (w *archiveWriter) warnSkip(field, reason string) {
	w.logger.Warn("skipping field",
		slog.String("object", w.path()),
		slog.String("field", field),
		slog.String("reason", reason),
	)
}

// variable appends the variable name of prim as property prop when present.
func (w *archiveWriter) variable(props []archive.PropertyValue, prim scene.Primitive, name, prop string) []archive.PropertyValue {
	pv, ok := prim.Variables().Get(name)
	if !ok {
		return props
	}
	v, reason := propertyValue(prop, pv)
	if reason != "" {
		w.warnSkip(name, reason)
		return props
	}
	return append(props, v)
}

// arbitrary encodes every variable of prim outside standard.
func (w *archiveWriter) arbitrary(prim scene.Primitive, standard ...string) []archive.PropertyValue {
	var out []archive.PropertyValue
	for name, pv := range prim.Variables().All() {
		if slices.Contains(standard, name) {
			continue
		}
		v, reason := propertyValue(name, pv)
		if reason != "" {
			w.warnSkip(name, reason)
			continue
		}
		out = append(out, v)
	}
	return out
}

// value encodes d as a Constant property.
func value(name string, d data.Data) archive.PropertyValue {
	v, _ := propertyValue(name, scene.PrimitiveVariable{Interpolation: scene.Constant, Data: d})
	return v
}

func boundsValue(prim scene.Primitive) archive.PropertyValue {
	return value(archive.PropSelfBounds, data.NewValue(scene.Bound(prim)))
}
