package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/sceneconv/blobstore"
	"github.com/hupe1980/sceneconv/blobstore/minio"
	"github.com/hupe1980/sceneconv/blobstore/s3"
	"github.com/hupe1980/sceneconv/internal/cache"
)

// StoreConfig selects where archives and caches live.
type StoreConfig struct {
	// Type is "local" (default), "s3", "s3express" or "minio".
	Type string `yaml:"type"`
	Dir  string `yaml:"dir"`

	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`

	// CommitTable makes publishing on S3 atomic through a DynamoDB table.
	CommitTable string `yaml:"commit_table"`

	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Insecure  bool   `yaml:"insecure"`

	// CacheBytes caches remote reads in memory.
	CacheBytes int64 `yaml:"cache_bytes"`
}

// Bind registers the store flags on fs.
func (c *StoreConfig) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Type, "store", "local", "store type: local, s3, s3express or minio")
	fs.StringVar(&c.Dir, "dir", ".", "directory of the local store")
	fs.StringVar(&c.Bucket, "bucket", "", "bucket of the s3, s3express or minio store")
	fs.StringVar(&c.Prefix, "prefix", "", "key prefix in the bucket")
	fs.StringVar(&c.Region, "region", "", "AWS region (default from the shared config)")
	fs.StringVar(&c.Endpoint, "endpoint", "", "S3-compatible endpoint or minio host:port")
	fs.StringVar(&c.CommitTable, "commit-table", "", "DynamoDB table for atomic publishing on s3")
	fs.StringVar(&c.AccessKey, "access-key", "", "minio access key")
	fs.StringVar(&c.SecretKey, "secret-key", "", "minio secret key")
	fs.BoolVar(&c.Insecure, "insecure", false, "talk plain HTTP to minio")
	fs.Int64Var(&c.CacheBytes, "cache", 0, "bytes of remote reads to cache in memory")
}

// Open creates the configured store.
func (c StoreConfig) Open(ctx context.Context) (blobstore.BlobStore, error) {
	store, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	if c.CacheBytes > 0 && c.Type != "" && c.Type != "local" {
		store = blobstore.NewCachingStore(store, cache.NewLRUBlockCache(c.CacheBytes, nil), 0)
	}
	return store, nil
}

func (c StoreConfig) open(ctx context.Context) (blobstore.BlobStore, error) {
	switch strings.ToLower(c.Type) {
	case "", "local":
		dir := c.Dir
		if dir == "" {
			dir = "."
		}
		return blobstore.NewLocalStore(dir), nil
	case "s3":
		if c.Bucket == "" {
			return nil, errors.New("s3 store needs a bucket")
		}
		store, err := s3.New(ctx, c.Bucket, c.s3Options()...)
		if err != nil {
			return nil, fmt.Errorf("s3 store: %w", err)
		}
		if c.CommitTable == "" {
			return store, nil
		}
		var loadOpts []func(*config.LoadOptions) error
		if c.Region != "" {
			loadOpts = append(loadOpts, config.WithRegion(c.Region))
		}
		cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("aws config: %w", err)
		}
		baseURI := "s3://" + c.Bucket + "/" + strings.Trim(c.Prefix, "/")
		return s3.NewDDBCommitStore(store, dynamodb.NewFromConfig(cfg), c.CommitTable, baseURI), nil
	case "s3express":
		if c.Bucket == "" {
			return nil, errors.New("s3express store needs a bucket")
		}
		store, err := s3.NewExpress(ctx, c.Bucket, c.s3Options()...)
		if err != nil {
			return nil, fmt.Errorf("s3express store: %w", err)
		}
		return store, nil
	case "minio":
		if c.Bucket == "" || c.Endpoint == "" {
			return nil, errors.New("minio store needs a bucket and an endpoint")
		}
		client, err := miniogo.New(c.Endpoint, &miniogo.Options{
			Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
			Secure: !c.Insecure,
		})
		if err != nil {
			return nil, fmt.Errorf("minio store: %w", err)
		}
		return minio.NewStore(client, c.Bucket, c.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", c.Type)
	}
}

func (c StoreConfig) s3Options() []s3.Option {
	var opts []s3.Option
	if c.Prefix != "" {
		opts = append(opts, s3.WithPrefix(c.Prefix))
	}
	if c.Region != "" {
		opts = append(opts, s3.WithRegion(c.Region))
	}
	if c.Endpoint != "" {
		opts = append(opts, s3.WithEndpoint(c.Endpoint))
	}
	return opts
}
