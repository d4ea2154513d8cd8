package convert

import (
	"context"
	"fmt"

	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/sampling"
	"github.com/hupe1980/sceneconv/scene"
)

// pointsReader reads Points objects. Every point carries an int64 "id".
type pointsReader struct {
	archiveReader
}

func newPointsReader(src Source, o Options) ObjectReader {
	return &pointsReader{archiveReader: newArchiveReader(src, o)}
}

func (r *pointsReader) BoundsAt(ctx context.Context, sel sampling.Selector) (data.Box3d, error) {
	return r.primitiveBounds(ctx, sel, r.ReadSample)
}

func (r *pointsReader) ReadSample(ctx context.Context, sel sampling.Selector) (scene.Object, error) {
	index, err := r.resolve(sel)
	if err != nil {
		return nil, err
	}
	p, err := r.readPositions(ctx, index)
	if err != nil {
		return nil, err
	}
	ids, err := r.readIDs(ctx, index)
	if err != nil {
		return nil, err
	}
	if len(ids) != p.Len() {
		return nil, r.fail(archive.PropPointIDs, fmt.Errorf("%d ids for %d points", len(ids), p.Len()))
	}

	pts, err := scene.NewPoints(p.Len(), p)
	if err != nil {
		return nil, r.fail(archive.PropPositions, err)
	}
	if err := pts.Variables().Set("id", scene.PrimitiveVariable{Interpolation: scene.Vertex, Data: data.NewArray(ids)}); err != nil {
		return nil, r.fail(archive.PropPointIDs, err)
	}
	if err := r.readVariable(ctx, pts, index, archive.PropWidths, "width", false); err != nil {
		return nil, err
	}
	if err := r.readVariable(ctx, pts, index, archive.PropVelocities, "velocity", false); err != nil {
		return nil, err
	}
	if err := r.finish(ctx, pts, index); err != nil {
		return nil, err
	}
	return pts, nil
}

// readIDs reads .pointIds, stored as uint64 or int64, as int64.
func (r *pointsReader) readIDs(ctx context.Context, index int) ([]int64, error) {
	d, err := r.readData(ctx, archive.PropPointIDs, index)
	if err != nil {
		return nil, err
	}
	if v, ok := data.Values[int64](d); ok {
		return v, nil
	}
	if v, ok := data.Values[uint64](d); ok {
		out := make([]int64, len(v))
		for i, id := range v {
			out[i] = int64(id)
		}
		return out, nil
	}
	return nil, r.fail(archive.PropPointIDs, fmt.Errorf("holds %s, want Int64Array", d.TypeName()))
}
