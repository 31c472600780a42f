package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	docsysRepo "github.com/YugenJarwal13/InternalDMS/internal/domain/repositories/docsystem"
)

// S3API is the subset of *s3.Client the store uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Store keeps each blob as one object in a bucket.
type S3Store struct {
	client    S3API
	bucket    string
	keyPrefix string
}

// S3StoreConfig configures NewS3Store.
type S3StoreConfig struct {
	Client    S3API
	Bucket    string
	KeyPrefix string // e.g. "dms/content/"
}

// NewS3Store verifies the bucket is reachable. The bucket must already exist.
func NewS3Store(ctx context.Context, cfg S3StoreConfig) (*S3Store, error) {
	if cfg.Client == nil {
		return nil, errors.New("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	s := &S3Store{client: cfg.Client, bucket: cfg.Bucket, keyPrefix: cfg.KeyPrefix}
	if err := s.HealthCheck(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

var _ docsysRepo.ContentStore = (*S3Store)(nil)

func (s *S3Store) key(id string) string {
	return s.keyPrefix + id
}

// Write buffers the upload so the request carries a content length and can
// be signed and retried. Upload size is capped by the HTTP layer.
func (s *S3Store) Write(ctx context.Context, id string, r io.Reader) (int64, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return 0, fmt.Errorf("read content %s: %w", id, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(id)),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(n),
	})
	if err != nil {
		return 0, fmt.Errorf("put object %s: %w", s.key(id), err)
	}
	return n, nil
}

func (s *S3Store) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("get object %s: %w", s.key(id), err)
	}
	return out.Body, nil
}

// Delete is idempotent: S3 reports success for missing keys.
func (s *S3Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", s.key(id), err)
	}
	return nil
}

func (s *S3Store) HealthCheck(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("failed to access bucket %q: %w", s.bucket, err)
	}
	return nil
}
