package archive

import (
	"errors"
	"fmt"
)

var (
	// ErrNotArchive is returned when a blob does not carry the archive magic.
	ErrNotArchive = errors.New("archive: not a scene archive")

	// ErrUnsupportedVersion is returned for unknown format versions.
	ErrUnsupportedVersion = errors.New("archive: unsupported format version")

	// ErrCorrupt is returned when the layout of an archive is inconsistent.
	ErrCorrupt = errors.New("archive: corrupt archive")

	// ErrClosed is returned when writing to a closed archive.
	ErrClosed = errors.New("archive: closed")

	// ErrObjectExists is returned when a child name is already taken.
	ErrObjectExists = errors.New("archive: object already exists")

	// ErrPropertyNotFound is returned when a property does not exist at the
	// requested sample.
	ErrPropertyNotFound = errors.New("archive: property not found")

	// ErrPropertyMismatch is returned when a later sample changes the layout
	// of a property declared by an earlier one.
	ErrPropertyMismatch = errors.New("archive: property layout changed")

	// ErrInvalidValue is returned when a property value is inconsistent with
	// its header.
	ErrInvalidValue = errors.New("archive: invalid property value")

	// ErrSampleOutOfRange is returned for sample indices outside the object.
	ErrSampleOutOfRange = errors.New("archive: sample index out of range")

	// ErrTimeSampling is returned when a sample is written without a time
	// for it.
	ErrTimeSampling = errors.New("archive: time sampling does not cover sample")
)

// ChecksumError reports a block whose payload does not match its CRC32C.
type ChecksumError struct {
	Archive string
	Offset  int64
	Want    uint32
	Got     uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("archive %s: checksum mismatch in block at %d: want %08x, got %08x", e.Archive, e.Offset, e.Want, e.Got)
}

func (e *ChecksumError) Unwrap() error { return ErrCorrupt }
