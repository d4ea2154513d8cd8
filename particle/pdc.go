package particle

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/hupe1980/sceneconv/blobstore"
	"github.com/hupe1980/sceneconv/convert"
	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/scene"
)

// ErrNotPDC is returned when a blob does not carry the PDC magic.
var ErrNotPDC = errors.New("particle: not a PDC file")

var pdcMagic = []byte("PDC ")

// PDCType is the type of a PDC attribute record.
type PDCType int32

const (
	PDCInt PDCType = iota
	PDCIntArray
	PDCDouble
	PDCDoubleArray
	PDCVector
	PDCVectorArray
)

func (t PDCType) String() string {
	switch t {
	case PDCInt:
		return "int"
	case PDCIntArray:
		return "intArray"
	case PDCDouble:
		return "double"
	case PDCDoubleArray:
		return "doubleArray"
	case PDCVector:
		return "vector"
	case PDCVectorArray:
		return "vectorArray"
	default:
		return fmt.Sprintf("PDCType(%d)", int32(t))
	}
}

// PDCAttribute is a decoded attribute record. Data holds int32, float64 or
// V3d values, single or per particle according to Type.
type PDCAttribute struct {
	Name string
	Type PDCType
	Data data.Data
}

// PDC is a decoded Maya particle disk cache.
type PDC struct {
	Name         string
	Version      int32
	ByteOrder    binary.ByteOrder
	NumParticles int
	Attributes   []PDCAttribute

	opts Options
}

// OpenPDC reads and decodes the named PDC file in store.
func OpenPDC(ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) (*PDC, error) {
	raw, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("particle %s: %w", name, err)
	}
	return DecodePDC(raw, name, opts...)
}

// ReadPDC reads the named PDC file as points.
func ReadPDC(ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) (*scene.Points, error) {
	p, err := OpenPDC(ctx, store, name, opts...)
	if err != nil {
		return nil, err
	}
	return p.Points()
}

// DecodePDC decodes a PDC file. The byte order is taken from the header.
func DecodePDC(raw []byte, name string, opts ...Option) (*PDC, error) {
	p := &PDC{Name: name, opts: buildOptions(opts)}
	if !bytes.HasPrefix(raw, pdcMagic) {
		return nil, fmt.Errorf("particle %s: %w", name, ErrNotPDC)
	}
	if len(raw) < 16 {
		return nil, fmt.Errorf("particle %s: %w: truncated header", name, ErrMalformed)
	}

	switch endian := raw[8:12]; {
	case binary.BigEndian.Uint32(endian) == 1:
		p.ByteOrder = binary.BigEndian
	case binary.LittleEndian.Uint32(endian) == 1:
		p.ByteOrder = binary.LittleEndian
	default:
		return nil, fmt.Errorf("particle %s: %w: unknown byte order marker % x", name, ErrMalformed, endian)
	}

	d := &pdcDecoder{buf: raw, off: 4, order: p.ByteOrder}
	p.Version = d.int32()
	d.int32() // byte order
	d.int32()
	d.int32()
	n := d.int32()
	numAttrs := d.int32()
	if d.err != nil {
		return nil, p.errorf(d.off, d.err)
	}
	if n < 0 || numAttrs < 0 {
		return nil, p.errorf(d.off, fmt.Errorf("%w: %d particles, %d attributes", ErrMalformed, n, numAttrs))
	}
	p.NumParticles = int(n)
	if p.Version > 1 {
		p.opts.Logger.Warn("unknown PDC version",
			slog.String("file", name),
			slog.Int("version", int(p.Version)),
		)
	}

	for range numAttrs {
		nameLen := d.int32()
		if d.err == nil && nameLen < 0 {
			d.err = fmt.Errorf("%w: negative name length", ErrMalformed)
		}
		attr := PDCAttribute{Name: string(d.bytes(int(nameLen)))}
		if d.err != nil {
			return nil, p.errorf(d.off, d.err)
		}
		// Maya appends an untyped ghostFrames record with no payload.
		if attr.Name == "ghostFrames" {
			continue
		}
		attr.Type = PDCType(d.int32())
		attr.Data = d.record(attr.Type, p.NumParticles)
		if d.err != nil {
			return nil, p.errorf(d.off, fmt.Errorf("attribute %s: %w", attr.Name, d.err))
		}
		p.Attributes = append(p.Attributes, attr)
	}
	return p, nil
}

func (p *PDC) errorf(off int, err error) error {
	return fmt.Errorf("particle %s: at offset %d: %w", p.Name, off, err)
}

func (p *PDC) Descriptor() convert.Descriptor {
	return convert.Descriptor{Format: convert.FormatPDC, Version: int(p.Version)}
}

// Path returns the name of the file.
func (p *PDC) Path() string { return p.Name }

// Attribute returns the attribute named name.
func (p *PDC) Attribute(name string) (PDCAttribute, bool) {
	for _, a := range p.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return PDCAttribute{}, false
}

// IDs returns the particle ids from "particleId", or "id" when that is
// missing. ok is false when neither exists as a per particle array.
func (p *PDC) IDs() (ids []int64, ok bool) {
	for _, name := range []string{"particleId", "id"} {
		a, found := p.Attribute(name)
		if !found {
			continue
		}
		switch v := a.Data.(type) {
		case *data.Array[float64]:
			ids = make([]int64, v.Len())
			for i, x := range v.Values() {
				ids[i] = int64(x)
			}
			return ids, true
		case *data.Array[int32]:
			ids = make([]int64, v.Len())
			for i, x := range v.Values() {
				ids[i] = int64(x)
			}
			return ids, true
		}
	}
	return nil, false
}

// Points converts the file to points. "position" becomes P, the id
// attribute becomes the int64 variable "id" and every other attribute keeps
// its name: arrays as Vertex variables, single values as Constant ones.
func (p *PDC) Points() (*scene.Points, error) {
	ids, hasIDs := p.IDs()
	if !hasIDs && p.opts.Percentage < 100 {
		p.opts.Logger.Warn("percentage filtering without particle ids",
			slog.String("file", p.Name),
		)
	}
	sel := Select(p.NumParticles, p.opts.Percentage, p.opts.Seed, ids)

	var (
		positions data.Data
		vars      []namedVariable
		idDone    bool
	)
	for _, a := range p.Attributes {
		name := a.Name
		d := p.real(a.Data)
		if hasIDs && !idDone && (name == "particleId" || name == "id") {
			name, d, idDone = "id", data.NewArray(ids), true
		}

		interp := scene.Constant
		if d.IsArray() {
			interp = scene.Vertex
			var err error
			if d, err = sel.Apply(d); err != nil {
				return nil, err
			}
		}
		if name == "position" && d.IsArray() && positions == nil {
			positions = d
			continue
		}
		vars = append(vars, namedVariable{name: name, pv: scene.PrimitiveVariable{Interpolation: interp, Data: d}})
	}
	return buildPoints(sel.Len(p.NumParticles), positions, vars)
}

// real applies the RealType option to float64 and V3d data.
func (p *PDC) real(d data.Data) data.Data {
	if p.opts.RealType != RealFloat {
		return d
	}
	switch v := d.(type) {
	case *data.Array[float64]:
		return data.NewArray(toFloat32(v.Values()))
	case *data.Value[float64]:
		return data.NewValue(float32(v.Get()))
	case *data.Array[data.V3d]:
		return data.NewArray(toV3f(v.Values()))
	case *data.Value[data.V3d]:
		return data.NewValue(toV3f([]data.V3d{v.Get()})[0])
	default:
		return d
	}
}

type pdcDecoder struct {
	buf   []byte
	off   int
	order binary.ByteOrder
	err   error
}

func (d *pdcDecoder) bytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.buf)-d.off < n {
		d.err = fmt.Errorf("%w: need %d bytes, %d left", ErrMalformed, n, len(d.buf)-d.off)
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *pdcDecoder) int32() int32 {
	b := d.bytes(4)
	if b == nil {
		return 0
	}
	return int32(d.order.Uint32(b))
}

func (d *pdcDecoder) float64s(n int) []float64 {
	if n > (len(d.buf)-d.off)/8 {
		d.err = fmt.Errorf("%w: need %d doubles", ErrMalformed, n)
		return nil
	}
	b := d.bytes(8 * n)
	if b == nil {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(d.order.Uint64(b[8*i:]))
	}
	return out
}

func (d *pdcDecoder) int32s(n int) []int32 {
	if n > (len(d.buf)-d.off)/4 {
		d.err = fmt.Errorf("%w: need %d ints", ErrMalformed, n)
		return nil
	}
	b := d.bytes(4 * n)
	if b == nil {
		return nil
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(d.order.Uint32(b[4*i:]))
	}
	return out
}

func (d *pdcDecoder) vectors(n int) []data.V3d {
	flat := d.float64s(3 * n)
	if flat == nil {
		return nil
	}
	out, err := data.Reinterpret[data.V3d](flat)
	if err != nil {
		d.err = fmt.Errorf("%w: %w", ErrMalformed, err)
		return nil
	}
	return out
}

func (d *pdcDecoder) record(t PDCType, n int) data.Data {
	if d.err != nil {
		return nil
	}
	switch t {
	case PDCInt:
		if v := d.int32s(1); v != nil {
			return data.NewValue(v[0])
		}
	case PDCIntArray:
		if v := d.int32s(n); v != nil {
			return data.NewArray(v)
		}
	case PDCDouble:
		if v := d.float64s(1); v != nil {
			return data.NewValue(v[0])
		}
	case PDCDoubleArray:
		if v := d.float64s(n); v != nil {
			return data.NewArray(v)
		}
	case PDCVector:
		if v := d.vectors(1); v != nil {
			return data.NewValue(v[0])
		}
	case PDCVectorArray:
		if v := d.vectors(n); v != nil {
			return data.NewArray(v)
		}
	default:
		d.err = fmt.Errorf("%w: unknown attribute type %d", ErrMalformed, int32(t))
	}
	return nil
}
