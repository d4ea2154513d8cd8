package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/sceneconv/data"
	"github.com/hupe1980/sceneconv/scene"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// Positions returns n random points in [minVal, maxVal)^3.
// Locks only once per call.
func (r *RNG) Positions(n int, minVal, maxVal float32) []data.V3f {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]data.V3f, n)
	span := maxVal - minVal
	for i := range out {
		out[i] = data.V3f{
			minVal + r.rand.Float32()*span,
			minVal + r.rand.Float32()*span,
			minVal + r.rand.Float32()*span,
		}
	}
	return out
}

// Points returns n random points with ids 0..n-1 and a per-point width.
func (r *RNG) Points(n int) *scene.Points {
	p, err := scene.NewPoints(n, data.NewArray(r.Positions(n, -1, 1)))
	if err != nil {
		panic(err)
	}
	ids := make([]int64, n)
	widths := make([]float32, n)
	for i := range ids {
		ids[i] = int64(i)
		widths[i] = 0.1
	}
	mustSet(p, "id", scene.Vertex, data.NewArray(ids))
	mustSet(p, "width", scene.Vertex, data.NewArray(widths))
	return p
}

// Quad returns a unit quad in the XY plane with an indexed FaceVarying uv.
func Quad() *scene.Mesh {
	m, err := scene.NewMesh([]int32{4}, []int32{0, 1, 2, 3}, scene.SchemeLinear,
		data.NewArray([]data.V3f{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}))
	if err != nil {
		panic(err)
	}
	uv := data.NewArray([]data.V2f{{0, 0}, {1, 0}, {1, 1}, {0, 1}}).WithInterpretation(data.UV)
	if err := m.Variables().Set("uv", scene.PrimitiveVariable{
		Interpolation: scene.FaceVarying,
		Data:          uv,
		Indices:       []int32{0, 1, 2, 3},
	}); err != nil {
		panic(err)
	}
	return m
}

// Triangles returns two triangles sharing an edge, with a non-indexed
// FaceVarying "Cs" holding the face-vertex number as red.
func Triangles() *scene.Mesh {
	m, err := scene.NewMesh([]int32{3, 3}, []int32{0, 1, 2, 0, 2, 3}, scene.SchemeLinear,
		data.NewArray([]data.V3f{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}))
	if err != nil {
		panic(err)
	}
	cs := make([]data.Color3f, 6)
	for i := range cs {
		cs[i] = data.Color3f{float32(i), 0, 0}
	}
	mustSet(m, "Cs", scene.FaceVarying, data.NewArray(cs))
	return m
}

// Cube returns a closed unit cube centred at the origin.
func Cube(scheme string) *scene.Mesh {
	p := []data.V3f{
		{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5},
		{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5},
	}
	ids := []int32{
		0, 3, 2, 1,
		4, 5, 6, 7,
		0, 1, 5, 4,
		1, 2, 6, 5,
		2, 3, 7, 6,
		3, 0, 4, 7,
	}
	m, err := scene.NewMesh([]int32{4, 4, 4, 4, 4, 4}, ids, scheme, data.NewArray(p))
	if err != nil {
		panic(err)
	}
	return m
}

// TwoCurves returns two periodic cubic Bezier curves of 4 and 3 vertices
// with a Vertex float "foo" numbering the vertices.
func TwoCurves() *scene.Curves {
	p := make([]data.V3f, 7)
	foo := make([]float32, 7)
	for i := range p {
		p[i] = data.V3f{float32(i), 0, 0}
		foo[i] = float32(i)
	}
	c, err := scene.NewCurves([]int32{4, 3}, scene.BasisBezier, true, data.NewArray(p))
	if err != nil {
		panic(err)
	}
	mustSet(c, "foo", scene.Vertex, data.NewArray(foo))
	return c
}

func mustSet(p scene.Primitive, name string, i scene.Interpolation, d data.Data) {
	if err := p.Variables().Set(name, scene.PrimitiveVariable{Interpolation: i, Data: d}); err != nil {
		panic(err)
	}
}
