package convert

import (
	"context"
	"fmt"

	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/scene"
)

// pointsWriter writes points. Points without an "id" variable get ids
// 0..n-1 so the result can be read back.
type pointsWriter struct {
	archiveWriter
}

func newPointsWriter(t WriteTarget, o Options) ObjectWriter {
	return &pointsWriter{archiveWriter: newArchiveWriter(t, o, scene.TypePoints)}
}

func (w *pointsWriter) Convert(ctx context.Context, obj scene.Object, time float64) error {
	if err := w.check(ctx, obj, time); err != nil {
		return err
	}
	p, ok := obj.(*scene.Points)
	if !ok {
		return w.mismatch(obj)
	}
	if err := scene.Validate(p); err != nil {
		return &SourceError{Path: w.path(), Err: err}
	}
	ids, err := pointIDs(p)
	if err != nil {
		return &SourceError{Path: w.path(), Field: "id", Err: err}
	}

	props := []archive.PropertyValue{
		value(archive.PropPointIDs, data.NewArray(ids)),
	}
	props = w.variable(props, p, "P", archive.PropPositions)
	props = w.variable(props, p, "width", archive.PropWidths)
	props = w.variable(props, p, "velocity", archive.PropVelocities)
	props = append(props, boundsValue(p))

	s := archive.Sample{
		Properties: props,
		Arbitrary:  w.arbitrary(p, "P", "id", "width", "velocity"),
	}
	return w.commit(ctx, archive.SchemaPoints, s, time)
}

func pointIDs(p *scene.Points) ([]int64, error) {
	pv, ok := p.Variables().Get("id")
	if !ok {
		ids := make([]int64, p.NumPoints())
		for i := range ids {
			ids[i] = int64(i)
		}
		return ids, nil
	}
	d, err := pv.Expanded()
	if err != nil {
		return nil, err
	}
	switch v := d.Any().(type) {
	case []int64:
		return v, nil
	case []uint64:
		out := make([]int64, len(v))
		for i, id := range v {
			out[i] = int64(id)
		}
		return out, nil
	case []int32:
		out := make([]int64, len(v))
		for i, id := range v {
			out[i] = int64(id)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("ids hold %s", d.TypeName())
	}
}
