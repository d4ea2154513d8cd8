package scene

import (
	"fmt"

	"github.com/hupe1980/sceneconv/data"
)

// Primitive is a renderable object with topology and primitive variables.
type Primitive interface {
	Object
	// Variables returns the primitive's variable map.
	Variables() *Variables
	// VariableSize returns how many elements a variable of interpolation i
	// must have for this topology.
	VariableSize(i Interpolation) int

	validateTopology() error
}

// ValidateVariable checks that pv is consistent with the topology of p.
func ValidateVariable(p Primitive, name string, pv PrimitiveVariable) error {
	if pv.Interpolation == Invalid || pv.Interpolation > FaceVarying {
		return fmt.Errorf("%w: %q has invalid interpolation", ErrInvalidVariable, name)
	}
	if pv.Data == nil {
		return fmt.Errorf("%w: %q has no data", ErrInvalidVariable, name)
	}
	want := p.VariableSize(pv.Interpolation)
	if pv.Indices != nil {
		if len(pv.Indices) != want {
			return fmt.Errorf("%w: %q has %d indices, %s needs %d", ErrInvalidVariable, name, len(pv.Indices), pv.Interpolation, want)
		}
		n := pv.Data.Len()
		for i, idx := range pv.Indices {
			if idx < 0 || int(idx) >= n {
				return fmt.Errorf("%w: %q index %d at %d out of range [0, %d)", ErrInvalidVariable, name, idx, i, n)
			}
		}
		return nil
	}
	if !pv.Data.IsArray() {
		if pv.Interpolation != Constant {
			return fmt.Errorf("%w: %q holds a single value with %s interpolation", ErrInvalidVariable, name, pv.Interpolation)
		}
		return nil
	}
	if pv.Data.Len() != want {
		return fmt.Errorf("%w: %q has %d elements, %s needs %d", ErrInvalidVariable, name, pv.Data.Len(), pv.Interpolation, want)
	}
	return nil
}

// IsVariableValid reports whether pv is consistent with the topology of p.
func IsVariableValid(p Primitive, pv PrimitiveVariable) bool {
	return ValidateVariable(p, "", pv) == nil
}

// Validate checks the topology of p and every variable it holds.
func Validate(p Primitive) error {
	if err := p.validateTopology(); err != nil {
		return err
	}
	for name, pv := range p.Variables().All() {
		if err := ValidateVariable(p, name, pv); err != nil {
			return err
		}
	}
	return nil
}

// Bound returns the bounding box of the "P" variable, or an empty box when
// the primitive has no usable positions.
func Bound(p Primitive) data.Box3d {
	b := data.EmptyBox3d()
	pv, ok := p.Variables().Get("P")
	if !ok {
		return b
	}
	if pf, ok := data.Values[data.V3f](pv.Data); ok {
		for _, v := range pf {
			b.ExtendBy(data.V3d{float64(v[0]), float64(v[1]), float64(v[2])})
		}
		return b
	}
	if pd, ok := data.Values[data.V3d](pv.Data); ok {
		for _, v := range pd {
			b.ExtendBy(v)
		}
	}
	return b
}

func sum(counts []int32) int {
	n := 0
	for _, c := range counts {
		n += int(c)
	}
	return n
}
