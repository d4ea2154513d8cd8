package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/hupe1980/sceneconv/blobstore"
)

// ErrConflict is returned when a conditional write finds the object already
// present.
var ErrConflict = errors.New("s3: object already exists")

// commitDir holds the versioned CURRENT pointers of an ExpressStore.
const commitDir = "_commits/" + CurrentName + "/"

// ExpressStore implements blobstore.BlobStore for S3 Express One Zone
// directory buckets (names ending in --azid--x-s3).
//
// Express buckets support conditional writes, so CURRENT is kept as a log
// of immutable version objects under _commits/CURRENT/ written with
// PutIfNotExists. The highest version wins; the loser of a publish race
// gets ErrConcurrentModification, as with DDBCommitStore, but without a
// DynamoDB table.
type ExpressStore struct {
	*Store
}

// NewExpressStore creates a store for an S3 Express directory bucket.
func NewExpressStore(client Client, bucket, rootPrefix string, optFns ...StoreOption) *ExpressStore {
	return &ExpressStore{Store: NewStore(client, bucket, rootPrefix, optFns...)}
}

// NewExpress loads the default AWS configuration and returns an
// ExpressStore for bucket.
func NewExpress(ctx context.Context, bucket string, optFns ...Option) (*ExpressStore, error) {
	st, err := New(ctx, bucket, optFns...)
	if err != nil {
		return nil, err
	}
	return &ExpressStore{Store: st}, nil
}

// PutIfNotExists writes a blob only if no object has that name yet.
func (s *ExpressStore) PutIfNotExists(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        bytes.NewReader(data),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "PreconditionFailed", "ConditionalRequestConflict":
				return ErrConflict
			}
		}
		return err
	}
	return nil
}

// Open serves CURRENT from the latest committed version.
func (s *ExpressStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name != CurrentName {
		return s.Store.Open(ctx, name)
	}
	version, err := s.Version(ctx)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, &fs.PathError{Op: "open", Path: name, Err: blobstore.ErrNotFound}
	}
	return s.Store.Open(ctx, commitName(version))
}

// Put commits CURRENT as a new version; other names are plain puts.
func (s *ExpressStore) Put(ctx context.Context, name string, data []byte) error {
	if name == CurrentName {
		return s.commit(ctx, data)
	}
	return s.Store.Put(ctx, name, data)
}

func (s *ExpressStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	if name == CurrentName {
		return &commitWriter{ctx: ctx, commit: func(ctx context.Context, target string) error {
			return s.commit(ctx, []byte(target))
		}}, nil
	}
	return s.Store.Create(ctx, name)
}

// Delete removes a blob. Committed versions are never deleted.
func (s *ExpressStore) Delete(ctx context.Context, name string) error {
	if name == CurrentName {
		return errors.New("s3: CURRENT cannot be deleted from an express store")
	}
	return s.Store.Delete(ctx, name)
}

// List hides the commit log.
func (s *ExpressStore) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.Store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if !strings.HasPrefix(n, commitDir) {
			out = append(out, n)
		}
	}
	return out, nil
}

// Version returns the latest committed version, 0 if none.
func (s *ExpressStore) Version(ctx context.Context) (uint64, error) {
	names, err := s.Store.List(ctx, commitDir)
	if err != nil {
		return 0, fmt.Errorf("s3: list commits: %w", err)
	}
	var latest uint64
	for _, n := range names {
		v, err := strconv.ParseUint(path.Base(n), 10, 64)
		if err != nil {
			continue
		}
		latest = max(latest, v)
	}
	return latest, nil
}

func (s *ExpressStore) commit(ctx context.Context, target []byte) error {
	current, err := s.Version(ctx)
	if err != nil {
		return err
	}
	if err := s.PutIfNotExists(ctx, commitName(current+1), target); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("s3: commit version %d: %w", current+1, err)
	}
	return nil
}

// commitName pads versions so they also sort lexically.
func commitName(version uint64) string {
	return fmt.Sprintf("%s%020d", commitDir, version)
}

var _ blobstore.BlobStore = (*ExpressStore)(nil)
