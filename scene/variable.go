package scene

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/hupe1980/sceneconv/data"
)

// Interpolation describes how a variable's elements map onto a primitive.
type Interpolation uint8

const (
	Invalid Interpolation = iota
	Constant
	Uniform
	Varying
	Vertex
	FaceVarying
)

func (i Interpolation) String() string {
	switch i {
	case Constant:
		return "Constant"
	case Uniform:
		return "Uniform"
	case Varying:
		return "Varying"
	case Vertex:
		return "Vertex"
	case FaceVarying:
		return "FaceVarying"
	default:
		return "Invalid"
	}
}

// ErrInvalidVariable is wrapped by every variable validation failure.
var ErrInvalidVariable = errors.New("scene: invalid primitive variable")

// PrimitiveVariable binds data to a primitive with an interpolation.
// When Indices is non-nil the variable is indexed: element i of the variable
// is Data[Indices[i]].
type PrimitiveVariable struct {
	Interpolation Interpolation
	Data          data.Data
	Indices       []int32
}

// Indexed reports whether the variable carries indices.
func (pv PrimitiveVariable) Indexed() bool { return pv.Indices != nil }

// Expanded returns the variable's data with indices applied.
func (pv PrimitiveVariable) Expanded() (data.Data, error) {
	if pv.Indices == nil {
		return pv.Data, nil
	}
	return data.Gather(pv.Data, pv.Indices)
}

// Copy returns a deep copy.
func (pv PrimitiveVariable) Copy() PrimitiveVariable {
	c := PrimitiveVariable{Interpolation: pv.Interpolation, Indices: slices.Clone(pv.Indices)}
	if pv.Data != nil {
		c.Data = pv.Data.Copy()
	}
	return c
}

// Equal reports whether both variables have the same interpolation, equal data
// and equal indices.
func (pv PrimitiveVariable) Equal(o PrimitiveVariable) bool {
	if pv.Interpolation != o.Interpolation || !slices.Equal(pv.Indices, o.Indices) {
		return false
	}
	if pv.Data == nil || o.Data == nil {
		return pv.Data == nil && o.Data == nil
	}
	return pv.Data.Equal(o.Data)
}

// Variables is an insertion-ordered map of named primitive variables.
type Variables struct {
	names []string
	vars  map[string]PrimitiveVariable
}

// Set inserts or replaces a variable. Replacing keeps the original position.
func (v *Variables) Set(name string, pv PrimitiveVariable) error {
	if pv.Interpolation == Invalid || pv.Interpolation > FaceVarying {
		return fmt.Errorf("%w: %q has invalid interpolation", ErrInvalidVariable, name)
	}
	if pv.Data == nil {
		return fmt.Errorf("%w: %q has no data", ErrInvalidVariable, name)
	}
	if v.vars == nil {
		v.vars = make(map[string]PrimitiveVariable)
	}
	if _, ok := v.vars[name]; !ok {
		v.names = append(v.names, name)
	}
	v.vars[name] = pv
	return nil
}

// Get returns the named variable.
func (v *Variables) Get(name string) (PrimitiveVariable, bool) {
	pv, ok := v.vars[name]
	return pv, ok
}

// Delete removes the named variable if present.
func (v *Variables) Delete(name string) {
	if _, ok := v.vars[name]; !ok {
		return
	}
	delete(v.vars, name)
	v.names = slices.DeleteFunc(v.names, func(n string) bool { return n == name })
}

// Len returns the number of variables.
func (v *Variables) Len() int { return len(v.names) }

// Names returns the variable names in insertion order.
func (v *Variables) Names() []string { return slices.Clone(v.names) }

// All iterates variables in insertion order.
func (v *Variables) All() iter.Seq2[string, PrimitiveVariable] {
	return func(yield func(string, PrimitiveVariable) bool) {
		for _, name := range v.names {
			if !yield(name, v.vars[name]) {
				return
			}
		}
	}
}

func (v *Variables) clone() Variables {
	c := Variables{
		names: slices.Clone(v.names),
		vars:  make(map[string]PrimitiveVariable, len(v.vars)),
	}
	for name, pv := range v.vars {
		c.vars[name] = pv.Copy()
	}
	return c
}
