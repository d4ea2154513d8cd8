package convert

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/scene"
)

// ReadArbitrary adds the arbitrary parameters of obj at sample index to
// prim as variables. Parameters with an array extent above 1, a field type
// without a container, an unknown scope or a size that does not fit the
// topology are skipped, each with one warning on logger. Only decoding
// failures and cancellation are returned as errors.
func ReadArbitrary(ctx context.Context, obj *archive.Object, index int, prim scene.Primitive, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := archiveReader{obj: obj, logger: logger}

	for _, h := range obj.Arbitrary() {
		if err := canceled(ctx); err != nil {
			return err
		}
		if !obj.HasArbitrary(h.Name, index) {
			continue
		}
		// Checked on the header so unsupported fields are never read.
		if _, reason, _ := variableFromSample(archive.PropertySample{Header: h}); reason != "" {
			r.warnSkip(h.Name, reason)
			continue
		}
		ps, err := obj.ReadArbitrary(ctx, h.Name, index)
		if err != nil {
			return r.fail(h.Name, err)
		}
		if err := r.setVariable(prim, h.Name, h.Name, ps, false); err != nil {
			return err
		}
	}
	return nil
}

// propertyValue encodes a primitive variable as a property value named
// name. A non-empty reason means the variable has no field representation.
func propertyValue(name string, pv scene.PrimitiveVariable) (archive.PropertyValue, string) {
	if pv.Data == nil {
		return archive.PropertyValue{}, "no data"
	}
	t, ok := FieldForData(pv.Data)
	if !ok {
		return archive.PropertyValue{}, fmt.Sprintf("kind %s has no field type", pv.Data.Kind())
	}
	scope, ok := InterpolationToScope(pv.Interpolation)
	if !ok {
		return archive.PropertyValue{}, fmt.Sprintf("interpolation %s has no scope", pv.Interpolation)
	}
	return archive.PropertyValue{
		Header: archive.PropertyHeader{
			Name:    name,
			Type:    t,
			Scope:   scope,
			Scalar:  !pv.Data.IsArray(),
			Indexed: pv.Indices != nil,
		},
		Raw:     archive.EncodeData(pv.Data),
		Count:   pv.Data.Len(),
		Indices: pv.Indices,
	}, ""
}
