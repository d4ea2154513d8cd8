package conv

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("conv: integer overflow")

// Signed lists the integer types lengths and counts come in.
type Signed interface {
	~int | ~int32 | ~int64
}

// Uint32 narrows v to uint32.
func Uint32[T Signed](v T) (uint32, error) {
	if v < 0 || int64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d does not fit uint32", ErrOverflow, int64(v))
	}
	return uint32(v), nil
}

// IntToUint32 narrows an int length to uint32.
func IntToUint32(v int) (uint32, error) { return Uint32(v) }
