package convert

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/sceneconv/scene"
)

var (
	// ErrCanceled is returned when the context of a read or write is done.
	// The context error is wrapped as well.
	ErrCanceled = errors.New("convert: canceled")

	// ErrSequencing is wrapped by SequencingError.
	ErrSequencing = errors.New("convert: sample times must be strictly increasing")

	// ErrTypeMismatch is wrapped by TypeMismatchError.
	ErrTypeMismatch = errors.New("convert: object type mismatch")

	// ErrMalformedSource is wrapped by SourceError.
	ErrMalformedSource = errors.New("convert: malformed source")

	// ErrAlreadyRegistered is returned when a registration name is taken.
	ErrAlreadyRegistered = errors.New("convert: already registered")
)

// SequencingError reports a write at a time not after the previous one.
type SequencingError struct {
	Path string
	Time float64
	Last float64
}

func (e *SequencingError) Error() string {
	return fmt.Sprintf("convert: %s: time %g is not after %g", e.Path, e.Time, e.Last)
}

func (e *SequencingError) Unwrap() error { return ErrSequencing }

// TypeMismatchError reports an object handed to a writer of another type.
type TypeMismatchError struct {
	Path string
	Want scene.TypeID
	Got  scene.TypeID
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("convert: %s: writer expects %s, got %s", e.Path, e.Want, e.Got)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

// SourceError reports a source that cannot be converted.
type SourceError struct {
	Archive string
	Path    string
	Field   string
	Err     error
}

func (e *SourceError) Error() string {
	loc := e.Path
	if e.Field != "" {
		loc += "." + e.Field
	}
	if e.Archive != "" {
		loc = e.Archive + ":" + loc
	}
	return fmt.Sprintf("convert: %s: %v", loc, e.Err)
}

func (e *SourceError) Unwrap() []error { return []error{ErrMalformedSource, e.Err} }

// canceled returns a cancellation error when ctx is done.
func canceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	return nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
