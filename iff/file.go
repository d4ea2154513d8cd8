package iff

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/sceneconv/blobstore"
)

var (
	// ErrNotIFF is returned when a stream does not start with a group tag.
	ErrNotIFF = errors.New("iff: not an IFF stream")

	// ErrTruncated is returned when a chunk extends past its parent.
	ErrTruncated = errors.New("iff: truncated chunk")

	// ErrShortChunk is returned when a read needs more bytes than a chunk
	// holds.
	ErrShortChunk = errors.New("iff: chunk too short")
)

// FormatError reports a stream that cannot be parsed.
type FormatError struct {
	Name   string
	Offset int64
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("iff %s: at offset %d: %v", e.Name, e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// File is an open chunk stream. It is safe for concurrent readers.
type File struct {
	r      io.ReaderAt
	size   int64
	name   string
	root   *Chunk
	closer io.Closer
}

// New parses the stream of size bytes behind r. name is only used in
// errors.
func New(r io.ReaderAt, size int64, name string) (*File, error) {
	f := &File{r: r, size: size, name: name}

	var first Tag
	if n, err := r.ReadAt(first[:], 0); n < len(first) {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("iff %s: %w: %w", name, ErrNotIFF, err)
	}
	if !first.IsGroup() {
		return nil, fmt.Errorf("iff %s: %w: first tag is %q", name, ErrNotIFF, first.String())
	}

	f.root = &Chunk{
		f:      f,
		tag:    first,
		off:    -1,
		length: size,
		group:  true,
	}
	return f, nil
}

// Open opens the named blob of store as a chunk stream. The blob stays open
// until Close.
func Open(ctx context.Context, store blobstore.BlobStore, name string) (*File, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("iff %s: %w", name, err)
	}
	f, err := New(blobstore.ReaderAt(ctx, b), b.Size(), name)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	f.closer = b
	return f, nil
}

// Name returns the name the stream was opened with.
func (f *File) Name() string { return f.name }

// Size returns the stream length in bytes.
func (f *File) Size() int64 { return f.size }

// Root returns a synthetic group spanning the whole stream. Its children
// are the top-level chunks.
func (f *File) Root() *Chunk { return f.root }

// Close releases the underlying blob, if any.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

func (f *File) errorf(off int64, err error) error {
	return &FormatError{Name: f.name, Offset: off, Err: err}
}

func (f *File) readFull(p []byte, off int64) error {
	n, err := f.r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return f.errorf(off, err)
}
