package convert

import (
	"context"
	"log/slog"

	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/sampling"
	"github.com/hupe1980/sceneconv/scene"
)

type curvesReader struct {
	archiveReader
}

func newCurvesReader(src Source, o Options) ObjectReader {
	return &curvesReader{archiveReader: newArchiveReader(src, o)}
}

func (r *curvesReader) BoundsAt(ctx context.Context, sel sampling.Selector) (data.Box3d, error) {
	return r.primitiveBounds(ctx, sel, r.ReadSample)
}

func (r *curvesReader) ReadSample(ctx context.Context, sel sampling.Selector) (scene.Object, error) {
	index, err := r.resolve(sel)
	if err != nil {
		return nil, err
	}
	counts, err := readValues[int32](ctx, r.archiveReader, archive.PropNumVertices, index)
	if err != nil {
		return nil, err
	}
	p, err := r.readPositions(ctx, index)
	if err != nil {
		return nil, err
	}
	curveType, err := readScalar(ctx, r.archiveReader, archive.PropCurveType, index, archive.CurveTypeCubic)
	if err != nil {
		return nil, err
	}
	wrap, err := readScalar(ctx, r.archiveReader, archive.PropWrap, index, archive.WrapNonPeriodic)
	if err != nil {
		return nil, err
	}
	basisName, err := readScalar(ctx, r.archiveReader, archive.PropBasis, index, archive.BasisNone)
	if err != nil {
		return nil, err
	}

	basis, known := curveBasis(curveType, basisName)
	if !known {
		r.logger.Warn("unsupported curve basis, using b-spline",
			slog.String("archive", r.obj.Archive()),
			slog.String("object", r.obj.Path()),
			slog.String("basis", basisName),
		)
	}

	c, err := scene.NewCurves(counts, basis, wrap == archive.WrapPeriodic, p)
	if err != nil {
		return nil, r.fail(archive.PropNumVertices, err)
	}
	if err := r.readVariable(ctx, c, index, archive.PropWidths, "width", false); err != nil {
		return nil, err
	}
	if err := r.readVariable(ctx, c, index, archive.PropNormals, "N", false); err != nil {
		return nil, err
	}
	if err := r.readVariable(ctx, c, index, archive.PropUV, "uv", false); err != nil {
		return nil, err
	}
	if err := r.readVariable(ctx, c, index, archive.PropVelocities, "velocity", false); err != nil {
		return nil, err
	}
	if err := r.finish(ctx, c, index); err != nil {
		return nil, err
	}
	return c, nil
}

// curveBasis maps a stored curve type and basis to a basis. known is false
// when a cubic basis was not recognized and b-spline was substituted.
func curveBasis(curveType, basis string) (b scene.Basis, known bool) {
	if curveType == archive.CurveTypeLinear {
		return scene.BasisLinear, true
	}
	switch basis {
	case archive.BasisBezier:
		return scene.BasisBezier, true
	case archive.BasisCatmullRom:
		return scene.BasisCatmullRom, true
	case archive.BasisBSpline, archive.BasisNone:
		return scene.BasisBSpline, true
	default:
		return scene.BasisBSpline, false
	}
}

// storedBasis is the inverse of curveBasis.
func storedBasis(b scene.Basis) (curveType, basis string) {
	switch b {
	case scene.BasisLinear:
		return archive.CurveTypeLinear, archive.BasisNone
	case scene.BasisBezier:
		return archive.CurveTypeCubic, archive.BasisBezier
	case scene.BasisCatmullRom:
		return archive.CurveTypeCubic, archive.BasisCatmullRom
	default:
		return archive.CurveTypeCubic, archive.BasisBSpline
	}
}
