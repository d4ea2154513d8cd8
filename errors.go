package sceneconv

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/blobstore"
	"github.com/hupe1980/sceneconv/convert"
	"github.com/hupe1980/sceneconv/iff"
	"github.com/hupe1980/sceneconv/particle"
	"github.com/hupe1980/sceneconv/sampling"
	"github.com/hupe1980/sceneconv/scene"
)

var (
	// ErrNotFound is returned when an archive, blob or object path does not
	// exist.
	ErrNotFound = errors.New("sceneconv: not found")

	// ErrCanceled is returned when the context of an operation is done.
	ErrCanceled = errors.New("sceneconv: canceled")

	// ErrCorrupt is returned when a source is malformed.
	ErrCorrupt = errors.New("sceneconv: corrupt source")

	// ErrUnsupported is returned when no converter handles an object.
	ErrUnsupported = errors.New("sceneconv: unsupported object")

	// ErrSequencing is returned when samples are written out of time order.
	ErrSequencing = errors.New("sceneconv: sample times must be strictly increasing")

	// ErrInvalidObject is returned for scene objects that fail validation.
	ErrInvalidObject = errors.New("sceneconv: invalid object")

	// ErrInvalidPath is returned for object paths a Writer cannot create,
	// such as the root or a path already taken by another object.
	ErrInvalidPath = errors.New("sceneconv: invalid object path")

	// ErrClosed is returned when using a closed Scene or Writer.
	ErrClosed = errors.New("sceneconv: closed")
)

// ErrTypeMismatch is returned when an object of one type is written to a
// path that already holds another.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrTypeMismatch struct {
	Path  string
	Want  scene.TypeID
	Got   scene.TypeID
	cause error
}

func (e *ErrTypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch at %s: want %s, got %s", e.Path, e.Want, e.Got)
}

func (e *ErrTypeMismatch) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Cancellation first: a canceled read may also fail to decode.
	if errors.Is(err, convert.ErrCanceled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}

	// Not found unification.
	if errors.Is(err, blobstore.ErrNotFound) || errors.Is(err, archive.ErrNothingPublished) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var tm *convert.TypeMismatchError
	if errors.As(err, &tm) {
		return &ErrTypeMismatch{Path: tm.Path, Want: tm.Want, Got: tm.Got, cause: err}
	}
	if errors.Is(err, convert.ErrSequencing) {
		return fmt.Errorf("%w: %w", ErrSequencing, err)
	}

	switch {
	case errors.Is(err, convert.ErrMalformedSource),
		errors.Is(err, archive.ErrNotArchive),
		errors.Is(err, archive.ErrCorrupt),
		errors.Is(err, archive.ErrUnsupportedVersion),
		errors.Is(err, iff.ErrNotIFF),
		errors.Is(err, iff.ErrTruncated),
		errors.Is(err, iff.ErrShortChunk),
		errors.Is(err, particle.ErrNotCache),
		errors.Is(err, particle.ErrNotPDC),
		errors.Is(err, particle.ErrMalformed),
		errors.Is(err, sampling.ErrEmpty):
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	case errors.Is(err, scene.ErrInvalidTopology),
		errors.Is(err, scene.ErrInvalidVariable):
		return fmt.Errorf("%w: %w", ErrInvalidObject, err)
	case errors.Is(err, archive.ErrObjectExists):
		return fmt.Errorf("%w: %w", ErrInvalidPath, err)
	case errors.Is(err, archive.ErrClosed):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	return err
}
