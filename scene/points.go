package scene

import (
	"fmt"

	"github.com/hupe1980/sceneconv/data"
)

// Points is a point cloud: one vertex per point.
type Points struct {
	vars      Variables
	numPoints int
}

// NewPoints builds a point cloud of n points. positions may be nil; when set
// it must hold n elements and is stored as the Vertex variable "P".
func NewPoints(n int, positions data.Data) (*Points, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative point count %d", ErrInvalidTopology, n)
	}
	p := &Points{numPoints: n}
	if positions != nil {
		if positions.Len() != n {
			return nil, fmt.Errorf("%w: %d positions for %d points", ErrInvalidTopology, positions.Len(), n)
		}
		data.SetInterpretation(positions, data.Point)
		if err := p.vars.Set("P", PrimitiveVariable{Interpolation: Vertex, Data: positions}); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Points) TypeID() TypeID        { return TypePoints }
func (p *Points) Variables() *Variables { return &p.vars }
func (p *Points) NumPoints() int        { return p.numPoints }

func (p *Points) VariableSize(i Interpolation) int {
	switch i {
	case Constant, Uniform:
		return 1
	case Varying, Vertex, FaceVarying:
		return p.numPoints
	default:
		return 0
	}
}

func (p *Points) validateTopology() error { return nil }

func (p *Points) Copy() Object {
	return &Points{vars: p.vars.clone(), numPoints: p.numPoints}
}
