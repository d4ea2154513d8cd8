package sceneconv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/blobstore"
	"github.com/hupe1980/sceneconv/convert"
	"github.com/hupe1980/sceneconv/iff"
	"github.com/hupe1980/sceneconv/particle"
	"github.com/hupe1980/sceneconv/scene"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"context canceled", fmt.Errorf("read: %w", context.Canceled), ErrCanceled},
		{"deadline", context.DeadlineExceeded, ErrCanceled},
		{"convert canceled", fmt.Errorf("%w: %w", convert.ErrCanceled, context.Canceled), ErrCanceled},
		{"missing blob", &fs.PathError{Op: "open", Path: "x", Err: blobstore.ErrNotFound}, ErrNotFound},
		{"nothing published", archive.ErrNothingPublished, ErrNotFound},
		{"sequencing", &convert.SequencingError{Path: "/a", Time: 1, Last: 2}, ErrSequencing},
		{"source error", &convert.SourceError{Archive: "a.scn", Path: "/m", Field: "P", Err: errors.New("short")}, ErrCorrupt},
		{"not an archive", archive.ErrNotArchive, ErrCorrupt},
		{"checksum", fmt.Errorf("block: %w", archive.ErrCorrupt), ErrCorrupt},
		{"not iff", iff.ErrNotIFF, ErrCorrupt},
		{"not a cache", particle.ErrNotCache, ErrCorrupt},
		{"pdc", particle.ErrNotPDC, ErrCorrupt},
		{"topology", scene.ErrInvalidTopology, ErrInvalidObject},
		{"object exists", archive.ErrObjectExists, ErrInvalidPath},
		{"closed", archive.ErrClosed, ErrClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.in)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.in)
		})
	}
}

func TestTranslateError_Passthrough(t *testing.T) {
	assert.NoError(t, translateError(nil))

	other := errors.New("something else")
	assert.Same(t, other, translateError(other))
}

func TestTranslateError_TypeMismatch(t *testing.T) {
	in := fmt.Errorf("write: %w", &convert.TypeMismatchError{Path: "/a", Want: scene.TypeMesh, Got: scene.TypeCurves})

	var tm *ErrTypeMismatch
	require.ErrorAs(t, translateError(in), &tm)
	assert.Equal(t, "/a", tm.Path)
	assert.Equal(t, scene.TypeMesh, tm.Want)
	assert.Equal(t, scene.TypeCurves, tm.Got)
	assert.ErrorIs(t, tm, convert.ErrTypeMismatch)
	assert.Contains(t, tm.Error(), "/a")
}

func TestTranslateError_CanceledWinsOverCorrupt(t *testing.T) {
	in := &convert.SourceError{Archive: "a.scn", Path: "/m", Field: "P", Err: context.Canceled}
	got := translateError(in)
	assert.ErrorIs(t, got, ErrCanceled)
	assert.False(t, errors.Is(got, ErrCorrupt))
}
