package adapter

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
)

// Storage keeps exported transcript objects
type Storage interface {
	// Put returns a writer that stores an object under key on Close
	Put(ctx context.Context, key string) (io.WriteCloser, error)
	// Get opens the object stored under key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// cloudStorage implements Storage with a Cloud Storage bucket
type cloudStorage struct {
	bucket *storage.BucketHandle
	prefix string
}

type StorageOption func(*cloudStorage)

// WithPrefix prepends prefix to every object key
func WithPrefix(prefix string) StorageOption {
	return func(s *cloudStorage) {
		s.prefix = prefix
	}
}

// NewStorage creates a Storage backed by bucketName. clientOpts are passed to
// the Cloud Storage client, e.g. option.WithCredentialsFile.
func NewStorage(ctx context.Context, bucketName string, clientOpts []option.ClientOption, opts ...StorageOption) (Storage, error) {
	if bucketName == "" {
		return nil, goerr.New("bucket name is required")
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	s := &cloudStorage{bucket: client.Bucket(bucketName)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *cloudStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	w := s.bucket.Object(s.prefix + key).NewWriter(ctx)
	w.ContentType = "application/json"
	return w, nil
}

func (s *cloudStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := s.bucket.Object(s.prefix + key).NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read from storage", goerr.V("key", s.prefix+key))
	}

	return reader, nil
}
