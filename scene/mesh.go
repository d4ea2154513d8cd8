package scene

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/sceneconv/data"
)

// Subdivision schemes.
const (
	SchemeLinear       = "linear"
	SchemeCatmullClark = "catmullClark"
	SchemeLoop         = "loop"
)

// ErrInvalidTopology is wrapped by every topology validation failure.
var ErrInvalidTopology = errors.New("scene: invalid topology")

// Mesh is a polygon mesh, optionally subdivided.
type Mesh struct {
	vars Variables

	verticesPerFace []int32
	vertexIDs       []int32
	numVertices     int
	scheme          string

	cornerIDs       []int32
	cornerSharpness []float32
	creaseLengths   []int32
	creaseIDs       []int32
	creaseSharpness []float32
}

// NewMesh builds a mesh. positions may be nil; when set it is stored as the
// Vertex variable "P".
func NewMesh(verticesPerFace, vertexIDs []int32, scheme string, positions data.Data) (*Mesh, error) {
	m := &Mesh{
		verticesPerFace: slices.Clone(verticesPerFace),
		vertexIDs:       slices.Clone(vertexIDs),
		scheme:          scheme,
	}
	if m.scheme == "" {
		m.scheme = SchemeLinear
	}
	if err := m.validateTopology(); err != nil {
		return nil, err
	}
	for _, id := range m.vertexIDs {
		m.numVertices = max(m.numVertices, int(id)+1)
	}
	if positions != nil {
		data.SetInterpretation(positions, data.Point)
		if err := m.vars.Set("P", PrimitiveVariable{Interpolation: Vertex, Data: positions}); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Mesh) TypeID() TypeID           { return TypeMesh }
func (m *Mesh) Variables() *Variables    { return &m.vars }
func (m *Mesh) NumFaces() int            { return len(m.verticesPerFace) }
func (m *Mesh) NumVertices() int         { return m.numVertices }
func (m *Mesh) VerticesPerFace() []int32 { return m.verticesPerFace }
func (m *Mesh) VertexIDs() []int32       { return m.vertexIDs }

// InterpolationScheme returns the subdivision scheme name.
func (m *Mesh) InterpolationScheme() string { return m.scheme }

// SetInterpolationScheme replaces the subdivision scheme name.
func (m *Mesh) SetInterpolationScheme(s string) { m.scheme = s }

func (m *Mesh) VariableSize(i Interpolation) int {
	switch i {
	case Constant:
		return 1
	case Uniform:
		return len(m.verticesPerFace)
	case Varying, Vertex:
		return m.numVertices
	case FaceVarying:
		return len(m.vertexIDs)
	default:
		return 0
	}
}

func (m *Mesh) validateTopology() error {
	for i, c := range m.verticesPerFace {
		if c < 3 {
			return fmt.Errorf("%w: face %d has %d vertices", ErrInvalidTopology, i, c)
		}
	}
	if n := sum(m.verticesPerFace); n != len(m.vertexIDs) {
		return fmt.Errorf("%w: face vertex counts sum to %d but there are %d vertex ids", ErrInvalidTopology, n, len(m.vertexIDs))
	}
	for i, id := range m.vertexIDs {
		if id < 0 {
			return fmt.Errorf("%w: negative vertex id %d at %d", ErrInvalidTopology, id, i)
		}
	}
	return nil
}

// SetCorners sets sharp corner vertices.
func (m *Mesh) SetCorners(ids []int32, sharpness []float32) error {
	if len(ids) != len(sharpness) {
		return fmt.Errorf("%w: %d corner ids but %d sharpnesses", ErrInvalidTopology, len(ids), len(sharpness))
	}
	for _, id := range ids {
		if id < 0 || int(id) >= m.numVertices {
			return fmt.Errorf("%w: corner id %d out of range", ErrInvalidTopology, id)
		}
	}
	m.cornerIDs = slices.Clone(ids)
	m.cornerSharpness = slices.Clone(sharpness)
	return nil
}

// Corners returns the corner ids and sharpnesses, or nil when unset.
func (m *Mesh) Corners() (ids []int32, sharpness []float32) {
	return m.cornerIDs, m.cornerSharpness
}

// SetCreases sets creases: lengths[i] consecutive ids form crease i.
func (m *Mesh) SetCreases(lengths, ids []int32, sharpness []float32) error {
	if len(lengths) != len(sharpness) {
		return fmt.Errorf("%w: %d crease lengths but %d sharpnesses", ErrInvalidTopology, len(lengths), len(sharpness))
	}
	for _, l := range lengths {
		if l < 2 {
			return fmt.Errorf("%w: crease length %d", ErrInvalidTopology, l)
		}
	}
	if n := sum(lengths); n != len(ids) {
		return fmt.Errorf("%w: crease lengths sum to %d but there are %d crease ids", ErrInvalidTopology, n, len(ids))
	}
	for _, id := range ids {
		if id < 0 || int(id) >= m.numVertices {
			return fmt.Errorf("%w: crease id %d out of range", ErrInvalidTopology, id)
		}
	}
	m.creaseLengths = slices.Clone(lengths)
	m.creaseIDs = slices.Clone(ids)
	m.creaseSharpness = slices.Clone(sharpness)
	return nil
}

// Creases returns the crease lengths, ids and sharpnesses, or nil when unset.
func (m *Mesh) Creases() (lengths, ids []int32, sharpness []float32) {
	return m.creaseLengths, m.creaseIDs, m.creaseSharpness
}

// ReverseWinding reverses the vertex order of every face, together with all
// FaceVarying variables.
func (m *Mesh) ReverseWinding() error {
	perm := make([]int32, len(m.vertexIDs))
	start := 0
	for _, c := range m.verticesPerFace {
		n := int(c)
		for i := range n {
			perm[start+i] = int32(start + n - 1 - i)
		}
		start += n
	}

	for _, name := range m.vars.Names() {
		pv, _ := m.vars.Get(name)
		if pv.Interpolation != FaceVarying {
			continue
		}
		if pv.Indices != nil {
			pv.Indices = permute(pv.Indices, perm)
		} else {
			d, err := data.Gather(pv.Data, perm)
			if err != nil {
				return fmt.Errorf("reverse winding of %q: %w", name, err)
			}
			pv.Data = d
		}
		if err := m.vars.Set(name, pv); err != nil {
			return err
		}
	}
	m.vertexIDs = permute(m.vertexIDs, perm)
	return nil
}

func permute(src, perm []int32) []int32 {
	out := make([]int32, len(perm))
	for i, p := range perm {
		out[i] = src[p]
	}
	return out
}

func (m *Mesh) Copy() Object {
	return &Mesh{
		vars:            m.vars.clone(),
		verticesPerFace: slices.Clone(m.verticesPerFace),
		vertexIDs:       slices.Clone(m.vertexIDs),
		numVertices:     m.numVertices,
		scheme:          m.scheme,
		cornerIDs:       slices.Clone(m.cornerIDs),
		cornerSharpness: slices.Clone(m.cornerSharpness),
		creaseLengths:   slices.Clone(m.creaseLengths),
		creaseIDs:       slices.Clone(m.creaseIDs),
		creaseSharpness: slices.Clone(m.creaseSharpness),
	}
}
