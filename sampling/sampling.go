// Package sampling resolves sample selectors against time sampling tables.
package sampling

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
)

var (
	// ErrEmpty is returned when resolving against a table with no samples.
	ErrEmpty = errors.New("sampling: empty time sampling")

	// ErrNotIncreasing is returned when sample times are not strictly increasing.
	ErrNotIncreasing = errors.New("sampling: sample times must be strictly increasing")

	// ErrIndexOutOfRange is returned for an explicit index outside the table.
	ErrIndexOutOfRange = errors.New("sampling: sample index out of range")
)

// Tolerance is the time distance under which a time snaps to a sample when
// computing intervals.
const Tolerance = 1e-4

// TimeSampling is an ordered, strictly increasing list of sample times.
// The zero value is an empty table.
type TimeSampling struct {
	times []float64
}

// New validates times and returns a table holding a copy of them.
func New(times ...float64) (TimeSampling, error) {
	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			return TimeSampling{}, fmt.Errorf("%w: %g follows %g", ErrNotIncreasing, times[i], times[i-1])
		}
	}
	return TimeSampling{times: slices.Clone(times)}, nil
}

// Uniform returns n samples starting at start, step apart. step must be > 0.
func Uniform(start, step float64, n int) TimeSampling {
	times := make([]float64, n)
	for i := range times {
		times[i] = start + float64(i)*step
	}
	return TimeSampling{times: times}
}

// Len returns the number of samples.
func (ts TimeSampling) Len() int { return len(ts.times) }

// Times returns a copy of the sample times.
func (ts TimeSampling) Times() []float64 { return slices.Clone(ts.times) }

// At returns the time of sample i.
func (ts TimeSampling) At(i int) float64 { return ts.times[i] }

// Last returns the last sample time.
func (ts TimeSampling) Last() (float64, bool) {
	if len(ts.times) == 0 {
		return 0, false
	}
	return ts.times[len(ts.times)-1], true
}

// Append returns a new table with t added. t must exceed the last time.
func (ts TimeSampling) Append(t float64) (TimeSampling, error) {
	if last, ok := ts.Last(); ok && !(t > last) {
		return ts, fmt.Errorf("%w: %g is not after %g", ErrNotIncreasing, t, last)
	}
	times := make([]float64, len(ts.times), len(ts.times)+1)
	copy(times, ts.times)
	return TimeSampling{times: append(times, t)}, nil
}

// FloorIndex returns the largest sample whose time is <= t, clamped to the
// table range.
func (ts TimeSampling) FloorIndex(t float64) int {
	i := sort.Search(len(ts.times), func(i int) bool { return ts.times[i] > t })
	return max(i-1, 0)
}

// CeilIndex returns the smallest sample whose time is >= t, clamped to the
// table range.
func (ts TimeSampling) CeilIndex(t float64) int {
	i := sort.SearchFloat64s(ts.times, t)
	return min(i, len(ts.times)-1)
}

// NearIndex returns the sample closest to t. Ties go to the earlier sample.
func (ts TimeSampling) NearIndex(t float64) int {
	f, c := ts.FloorIndex(t), ts.CeilIndex(t)
	if math.Abs(t-ts.times[f]) <= math.Abs(ts.times[c]-t) {
		return f
	}
	return c
}

// Resolve maps a selector to a sample index.
func (ts TimeSampling) Resolve(sel Selector) (int, error) {
	if len(ts.times) == 0 {
		return 0, ErrEmpty
	}
	if !sel.byTime {
		if sel.index < 0 || sel.index >= len(ts.times) {
			return 0, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, sel.index, len(ts.times))
		}
		return sel.index, nil
	}
	switch sel.rounding {
	case Floor:
		return ts.FloorIndex(sel.time), nil
	case Ceil:
		return ts.CeilIndex(sel.time), nil
	default:
		return ts.NearIndex(sel.time), nil
	}
}

// SampleInterval returns the samples bracketing t and the interpolation
// factor between them. A time within Tolerance of either bracketing sample
// snaps to it with lerp 0; the floor sample is checked first.
func (ts TimeSampling) SampleInterval(t float64) (floor, ceil int, lerp float64, err error) {
	if len(ts.times) == 0 {
		return 0, 0, 0, ErrEmpty
	}
	floor, ceil = ts.FloorIndex(t), ts.CeilIndex(t)
	if floor == ceil {
		return floor, ceil, 0, nil
	}
	if math.Abs(t-ts.times[floor]) < Tolerance {
		return floor, floor, 0, nil
	}
	if math.Abs(t-ts.times[ceil]) < Tolerance {
		return ceil, ceil, 0, nil
	}
	lerp = (t - ts.times[floor]) / (ts.times[ceil] - ts.times[floor])
	return floor, ceil, lerp, nil
}

// Rounding is the policy used to resolve a time to a sample.
type Rounding uint8

const (
	Nearest Rounding = iota
	Floor
	Ceil
)

// Selector names one sample, by index or by time.
type Selector struct {
	index    int
	time     float64
	byTime   bool
	rounding Rounding
}

// Index selects sample i.
func Index(i int) Selector { return Selector{index: i} }

// Time selects the sample at t using the rounding policy r.
func Time(t float64, r Rounding) Selector {
	return Selector{time: t, byTime: true, rounding: r}
}

func (s Selector) String() string {
	if !s.byTime {
		return fmt.Sprintf("index %d", s.index)
	}
	return fmt.Sprintf("time %g", s.time)
}
