package convert

import (
	"context"
	"math"

	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/sampling"
	"github.com/hupe1980/sceneconv/scene"
)

// Lens defaults used when a camera sample omits a property. Apertures are
// in centimetres, the focal length in millimetres.
const (
	defaultFocalLength = 35.0
	defaultHAperture   = 3.6
	defaultVAperture   = 2.4
)

// cameraReader extracts the screen window and field of view. The projection
// is always perspective.
type cameraReader struct {
	archiveReader
}

func newCameraReader(src Source, o Options) ObjectReader {
	return &cameraReader{archiveReader: newArchiveReader(src, o)}
}

// BoundsAt returns an empty box: cameras have no extent.
func (r *cameraReader) BoundsAt(_ context.Context, sel sampling.Selector) (data.Box3d, error) {
	if _, err := r.resolve(sel); err != nil {
		return data.Box3d{}, err
	}
	return data.EmptyBox3d(), nil
}

func (r *cameraReader) ReadSample(ctx context.Context, sel sampling.Selector) (scene.Object, error) {
	index, err := r.resolve(sel)
	if err != nil {
		return nil, err
	}
	lens := cameraLens{}
	fields := []struct {
		name string
		dst  *float64
		def  float64
	}{
		{archive.PropFocalLength, &lens.focal, defaultFocalLength},
		{archive.PropHAperture, &lens.hAperture, defaultHAperture},
		{archive.PropVAperture, &lens.vAperture, defaultVAperture},
		{archive.PropHFilmOffset, &lens.hOffset, 0},
		{archive.PropVFilmOffset, &lens.vOffset, 0},
		{archive.PropLensSqueeze, &lens.squeeze, 1},
	}
	for _, f := range fields {
		v, err := readScalar(ctx, r.archiveReader, f.name, index, f.def)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	if lens.focal <= 0 || lens.hAperture <= 0 || lens.vAperture <= 0 {
		return nil, r.fail(archive.PropFocalLength, errInvalidLens)
	}
	if lens.squeeze <= 0 {
		return nil, r.fail(archive.PropLensSqueeze, errInvalidLens)
	}

	return &scene.Camera{
		Projection:   scene.ProjectionPerspective,
		ScreenWindow: lens.screenWindow(),
		FieldOfView:  float32(lens.fieldOfView()),
	}, nil
}

type cameraLens struct {
	focal, hAperture, vAperture float64
	hOffset, vOffset, squeeze   float64
}

// fieldOfView is the horizontal field of view in degrees.
func (l cameraLens) fieldOfView() float64 {
	return 2 * math.Atan(l.hAperture*10/(2*l.focal)) * 180 / math.Pi
}

// screenWindow spans [-1, 1] horizontally and [-1/aspect, 1/aspect]
// vertically, shifted by the film offsets in screen units.
func (l cameraLens) screenWindow() data.Box2f {
	aspect := l.squeeze * l.hAperture / l.vAperture
	offX := l.hOffset * 2 / l.hAperture
	offY := l.vOffset * 2 * aspect / l.hAperture
	return data.Box2f{
		Min: data.V2f{float32(-1 + offX), float32(-1/aspect + offY)},
		Max: data.V2f{float32(1 + offX), float32(1/aspect + offY)},
	}
}
