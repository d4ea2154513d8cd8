package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hupe1980/sceneconv/blobstore"
)

// CurrentName is the blob holding the name of the published archive.
const CurrentName = "CURRENT"

// ErrNothingPublished is returned by OpenCurrent when no archive was published.
var ErrNothingPublished = errors.New("archive: nothing published")

// Publish points CURRENT at the archive called name. The archive must exist
// and be readable. Stores with atomic Put (local, S3 with a commit table)
// make the switch atomic for readers.
func Publish(ctx context.Context, store blobstore.BlobStore, name string) error {
	if name == "" || name == CurrentName || strings.ContainsAny(name, "\n\r") {
		return fmt.Errorf("archive: cannot publish %q", name)
	}
	r, err := Open(ctx, store, name)
	if err != nil {
		return err
	}
	if err := r.Close(); err != nil {
		return err
	}
	if err := store.Put(ctx, CurrentName, []byte(name)); err != nil {
		return fmt.Errorf("archive: publish %s: %w", name, err)
	}
	return nil
}

// Current returns the name of the published archive.
func Current(ctx context.Context, store blobstore.BlobStore) (string, error) {
	content, err := blobstore.ReadAll(ctx, store, CurrentName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNothingPublished
		}
		return "", fmt.Errorf("archive: read %s: %w", CurrentName, err)
	}
	name := string(bytes.TrimSpace(content))
	if name == "" {
		return "", ErrNothingPublished
	}
	return name, nil
}

// OpenCurrent opens the published archive.
func OpenCurrent(ctx context.Context, store blobstore.BlobStore, opts ...ReaderOption) (*Reader, error) {
	name, err := Current(ctx, store)
	if err != nil {
		return nil, err
	}
	return Open(ctx, store, name, opts...)
}
