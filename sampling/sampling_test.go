package sampling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsNonIncreasing(t *testing.T) {
	_, err := New(0, 1, 1)
	assert.ErrorIs(t, err, ErrNotIncreasing)

	_, err = New(2, 1)
	assert.ErrorIs(t, err, ErrNotIncreasing)

	ts, err := New(0, 0.5, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, ts.Len())
}

func TestResolve(t *testing.T) {
	ts, err := New(1, 2, 3, 4)
	require.NoError(t, err)

	tests := []struct {
		name string
		sel  Selector
		want int
	}{
		{"index", Index(2), 2},
		{"floor between", Time(2.7, Floor), 1},
		{"ceil between", Time(2.2, Ceil), 2},
		{"nearest low", Time(2.2, Nearest), 1},
		{"nearest high", Time(2.7, Nearest), 2},
		{"nearest tie", Time(2.5, Nearest), 1},
		{"exact", Time(3, Floor), 2},
		{"before start", Time(-5, Floor), 0},
		{"after end", Time(50, Ceil), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ts.Resolve(tt.sel)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = ts.Resolve(Index(4))
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestResolveEmpty(t *testing.T) {
	var ts TimeSampling
	_, err := ts.Resolve(Time(1, Nearest))
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = ts.Resolve(Index(0))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestAppend(t *testing.T) {
	var ts TimeSampling
	ts, err := ts.Append(1)
	require.NoError(t, err)
	ts, err = ts.Append(2)
	require.NoError(t, err)

	same, err := ts.Append(2)
	assert.ErrorIs(t, err, ErrNotIncreasing)
	assert.Equal(t, 2, same.Len())
}

func TestSampleInterval(t *testing.T) {
	ts := Uniform(0, 1, 3)

	f, c, lerp, err := ts.SampleInterval(0.25)
	require.NoError(t, err)
	assert.Equal(t, 0, f)
	assert.Equal(t, 1, c)
	assert.InDelta(t, 0.25, lerp, 1e-9)

	f, c, lerp, err = ts.SampleInterval(0.99995)
	require.NoError(t, err)
	assert.Equal(t, 1, f)
	assert.Equal(t, 1, c)
	assert.Zero(t, lerp)

	f, c, _, err = ts.SampleInterval(7)
	require.NoError(t, err)
	assert.Equal(t, 2, f)
	assert.Equal(t, 2, c)

	var empty TimeSampling
	_, _, _, err = empty.SampleInterval(1)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestSampleInterval_SnapsToFloor(t *testing.T) {
	ts, err := New(1, 2)
	require.NoError(t, err)

	tests := []struct {
		name  string
		t     float64
		floor int
		ceil  int
		lerp  float64
	}{
		{"just after floor", 1.00005, 0, 0, 0},
		{"on floor", 1, 0, 0, 0},
		{"just before ceil", 1.99995, 1, 1, 0},
		{"between", 1.5, 0, 1, 0.5},
		{"outside tolerance", 1.001, 0, 1, 0.001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, c, lerp, err := ts.SampleInterval(tt.t)
			require.NoError(t, err)
			assert.Equal(t, tt.floor, f)
			assert.Equal(t, tt.ceil, c)
			assert.InDelta(t, tt.lerp, lerp, 1e-9)
		})
	}
}
