package scene

import (
	"fmt"
	"slices"

	"github.com/hupe1980/sceneconv/data"
)

// Basis is the cubic basis used to evaluate curves.
type Basis uint8

const (
	BasisLinear Basis = iota
	BasisBezier
	BasisBSpline
	BasisCatmullRom
)

func (b Basis) String() string {
	switch b {
	case BasisLinear:
		return "linear"
	case BasisBezier:
		return "bezier"
	case BasisBSpline:
		return "bSpline"
	case BasisCatmullRom:
		return "catmullRom"
	default:
		return "unknown"
	}
}

// Step is the number of vertices between consecutive segments.
func (b Basis) Step() int {
	if b == BasisBezier {
		return 3
	}
	return 1
}

// NumCoefficients is the number of vertices a single segment uses.
func (b Basis) NumCoefficients() int {
	if b == BasisLinear {
		return 2
	}
	return 4
}

// Curves is a set of curves sharing one basis.
type Curves struct {
	vars Variables

	verticesPerCurve []int32
	basis            Basis
	periodic         bool
}

// NewCurves builds curves. positions may be nil; when set it is stored as the
// Vertex variable "P".
func NewCurves(verticesPerCurve []int32, basis Basis, periodic bool, positions data.Data) (*Curves, error) {
	c := &Curves{
		verticesPerCurve: slices.Clone(verticesPerCurve),
		basis:            basis,
		periodic:         periodic,
	}
	if err := c.validateTopology(); err != nil {
		return nil, err
	}
	if positions != nil {
		data.SetInterpretation(positions, data.Point)
		if err := c.vars.Set("P", PrimitiveVariable{Interpolation: Vertex, Data: positions}); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Curves) TypeID() TypeID            { return TypeCurves }
func (c *Curves) Variables() *Variables     { return &c.vars }
func (c *Curves) VerticesPerCurve() []int32 { return c.verticesPerCurve }
func (c *Curves) Basis() Basis              { return c.basis }
func (c *Curves) Periodic() bool            { return c.periodic }
func (c *Curves) NumCurves() int            { return len(c.verticesPerCurve) }

// NumSegments returns the number of segments of curve i.
func (c *Curves) NumSegments(i int) int {
	n := int(c.verticesPerCurve[i])
	if c.basis == BasisLinear {
		if c.periodic {
			return n
		}
		return n - 1
	}
	if c.periodic {
		return n / c.basis.Step()
	}
	return (n-4)/c.basis.Step() + 1
}

func (c *Curves) VariableSize(i Interpolation) int {
	switch i {
	case Constant:
		return 1
	case Uniform:
		return len(c.verticesPerCurve)
	case Vertex:
		return sum(c.verticesPerCurve)
	case Varying, FaceVarying:
		n := 0
		for ci := range c.verticesPerCurve {
			n += c.NumSegments(ci)
			if !c.periodic {
				n++
			}
		}
		return n
	default:
		return 0
	}
}

func (c *Curves) validateTopology() error {
	minVerts := int32(4)
	switch {
	case c.basis == BasisLinear:
		minVerts = 2
	case c.periodic:
		minVerts = 3
	}
	for i, n := range c.verticesPerCurve {
		if n < minVerts {
			return fmt.Errorf("%w: curve %d has %d vertices, %s needs at least %d", ErrInvalidTopology, i, n, c.basis, minVerts)
		}
	}
	return nil
}

func (c *Curves) Copy() Object {
	return &Curves{
		vars:             c.vars.clone(),
		verticesPerCurve: slices.Clone(c.verticesPerCurve),
		basis:            c.basis,
		periodic:         c.periodic,
	}
}
