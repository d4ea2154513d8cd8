package convert

import (
	"context"

	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/scene"
)

type curvesWriter struct {
	archiveWriter
}

func newCurvesWriter(t WriteTarget, o Options) ObjectWriter {
	return &curvesWriter{archiveWriter: newArchiveWriter(t, o, scene.TypeCurves)}
}

func (w *curvesWriter) Convert(ctx context.Context, obj scene.Object, time float64) error {
	if err := w.check(ctx, obj, time); err != nil {
		return err
	}
	c, ok := obj.(*scene.Curves)
	if !ok {
		return w.mismatch(obj)
	}
	if err := scene.Validate(c); err != nil {
		return &SourceError{Path: w.path(), Err: err}
	}

	curveType, basis := storedBasis(c.Basis())
	wrap := archive.WrapNonPeriodic
	if c.Periodic() {
		wrap = archive.WrapPeriodic
	}

	props := []archive.PropertyValue{
		value(archive.PropNumVertices, data.NewArray(c.VerticesPerCurve())),
		value(archive.PropCurveType, data.NewValue(curveType)),
		value(archive.PropWrap, data.NewValue(wrap)),
		value(archive.PropBasis, data.NewValue(basis)),
	}
	props = w.variable(props, c, "P", archive.PropPositions)
	props = w.variable(props, c, "width", archive.PropWidths)
	props = w.variable(props, c, "N", archive.PropNormals)
	props = w.variable(props, c, "uv", archive.PropUV)
	props = w.variable(props, c, "velocity", archive.PropVelocities)
	props = append(props, boundsValue(c))

	s := archive.Sample{
		Properties: props,
		Arbitrary:  w.arbitrary(c, "P", "width", "N", "uv", "velocity"),
	}
	return w.commit(ctx, archive.SchemaCurves, s, time)
}
