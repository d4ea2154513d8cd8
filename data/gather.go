package data

import "fmt"

type gatherer interface {
	gather(indices []int32) (Data, error)
}

// Gather returns a new array holding d[indices[i]] for every i. A single
// value is treated as an array of length one. The interpretation is kept.
func Gather(d Data, indices []int32) (Data, error) {
	g, ok := d.(gatherer)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKind, d)
	}
	return g.gather(indices)
}

func (d *Array[T]) gather(indices []int32) (Data, error) {
	out, err := gatherValues(d.v, indices)
	if err != nil {
		return nil, err
	}
	return &Array[T]{v: out, interp: d.interp}, nil
}

func (d *Value[T]) gather(indices []int32) (Data, error) {
	out, err := gatherValues([]T{d.v}, indices)
	if err != nil {
		return nil, err
	}
	return &Array[T]{v: out, interp: d.interp}, nil
}

func gatherValues[T Element](src []T, indices []int32) ([]T, error) {
	out := make([]T, len(indices))
	for i, idx := range indices {
		if idx < 0 || int(idx) >= len(src) {
			return nil, fmt.Errorf("data: index %d at position %d out of range [0, %d)", idx, i, len(src))
		}
		out[i] = src[idx]
	}
	return out, nil
}
