package particle

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	"github.com/hupe1980/sceneconv/blobstore"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/internal/conv"
	"github.com/hupe1980/sceneconv/internal/f16"
	"github.com/hupe1980/sceneconv/scene"
)

// WritePDC encodes pts as a PDC file and stores it under name.
func WritePDC(ctx context.Context, store blobstore.BlobStore, name string, pts *scene.Points, opts ...Option) error {
	raw, err := EncodePDC(pts, opts...)
	if err != nil {
		return fmt.Errorf("particle %s: %w", name, err)
	}
	return store.Put(ctx, name, raw)
}

// EncodePDC encodes pts as a big-endian PDC file. P is stored as
// "position" and id as "particleId". Half and float data is widened to double and
// colors are stored as vectors. Variables of other kinds are skipped with a
// warning.
func EncodePDC(pts *scene.Points, opts ...Option) ([]byte, error) {
	o := buildOptions(opts)
	n := pts.NumPoints()
	if n > math.MaxInt32 {
		return nil, fmt.Errorf("particle: %d points do not fit a PDC file", n)
	}

	type record struct {
		name    string
		typ     PDCType
		payload []byte
	}
	var records []record
	for name, pv := range pts.Variables().All() {
		d := pv.Data
		if pv.Indices != nil {
			var err error
			if d, err = data.Gather(d, pv.Indices); err != nil {
				return nil, fmt.Errorf("particle: variable %s: %w", name, err)
			}
		}
		perParticle := d.IsArray() && pts.VariableSize(pv.Interpolation) == n && d.Len() == n
		if d.IsArray() && !perParticle && !(d.Len() == 1 && pv.Interpolation == scene.Constant) {
			o.Logger.Warn("skipping variable",
				slog.String("variable", name),
				slog.String("reason", fmt.Sprintf("%d elements with %s interpolation", d.Len(), pv.Interpolation)),
			)
			continue
		}

		typ, payload, ok := encodeRecord(d, perParticle)
		if !ok {
			o.Logger.Warn("skipping variable",
				slog.String("variable", name),
				slog.String("reason", "unsupported type "+d.TypeName()),
			)
			continue
		}
		switch name {
		case "P":
			name = "position"
		case "id":
			name = "particleId"
		}
		records = append(records, record{name: name, typ: typ, payload: payload})
	}

	count, err := conv.IntToUint32(n)
	if err != nil {
		return nil, fmt.Errorf("particle: particle count: %w", err)
	}
	numRecords, err := conv.IntToUint32(len(records))
	if err != nil {
		return nil, fmt.Errorf("particle: attribute count: %w", err)
	}

	out := append([]byte(nil), pdcMagic...)
	be := binary.BigEndian
	out = be.AppendUint32(out, 1) // version
	out = be.AppendUint32(out, 1) // byte order
	out = be.AppendUint32(out, 0)
	out = be.AppendUint32(out, 0)
	out = be.AppendUint32(out, count)
	out = be.AppendUint32(out, numRecords)
	for _, r := range records {
		nameLen, err := conv.IntToUint32(len(r.name))
		if err != nil {
			return nil, fmt.Errorf("particle: attribute %.32s: %w", r.name, err)
		}
		out = be.AppendUint32(out, nameLen)
		out = append(out, r.name...)
		out = be.AppendUint32(out, uint32(r.typ))
		out = append(out, r.payload...)
	}
	return out, nil
}

// encodeRecord returns the record type and big-endian payload of d. Array
// data holding a single element is written as a single value unless
// perParticle is set.
func encodeRecord(d data.Data, perParticle bool) (PDCType, []byte, bool) {
	var (
		ints    []int32
		doubles []float64
		single  PDCType
	)
	switch v := d.Any().(type) {
	case int32:
		ints, single = []int32{v}, PDCInt
	case []int32:
		ints, single = v, PDCInt
	case float32:
		doubles, single = []float64{float64(v)}, PDCDouble
	case []float32:
		doubles, single = widen(v), PDCDouble
	case data.Half:
		doubles, single = []float64{float64(f16.ToFloat32(v))}, PDCDouble
	case []data.Half:
		doubles, single = widenHalf(v), PDCDouble
	case float64:
		doubles, single = []float64{v}, PDCDouble
	case []float64:
		doubles, single = v, PDCDouble
	case int64:
		doubles, single = []float64{float64(v)}, PDCDouble
	case []int64:
		doubles, single = widen(v), PDCDouble
	case data.V3f:
		doubles, single = widen(v[:]), PDCVector
	case []data.V3f:
		doubles, single = widenVectors(v), PDCVector
	case data.V3d:
		doubles, single = v[:], PDCVector
	case []data.V3d:
		doubles, _ = data.Flatten[float64](v)
		single = PDCVector
	case data.Color3f:
		doubles, single = widen(v[:]), PDCVector
	case []data.Color3f:
		doubles, single = widenVectors(v), PDCVector
	default:
		return 0, nil, false
	}

	var payload []byte
	if single == PDCInt {
		payload = make([]byte, 0, 4*len(ints))
		for _, x := range ints {
			payload = binary.BigEndian.AppendUint32(payload, uint32(x))
		}
	} else {
		payload = make([]byte, 0, 8*len(doubles))
		for _, x := range doubles {
			payload = binary.BigEndian.AppendUint64(payload, math.Float64bits(x))
		}
	}
	if perParticle {
		// Array types follow their single value type.
		return single + 1, payload, true
	}
	return single, payload, true
}

func widen[T float32 | int64](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func widenHalf(v []data.Half) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(f16.ToFloat32(x))
	}
	return out
}

func widenVectors[T data.V3f | data.Color3f](v []T) []float64 {
	flat, _ := data.Flatten[float32](v)
	return widen(flat)
}
