package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var _ ObjectStore = (*S3Store)(nil)

// S3Config configures an S3-compatible bucket.
type S3Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	UseSSL        bool
	PublicBaseURL string
}

// S3Store implements ObjectStore against any S3-compatible endpoint.
type S3Store struct {
	client  *minio.Client
	bucket  string
	region  string
	baseURL string
}

// NewS3Store builds a client for the configured endpoint. It does not dial.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("s3 store: endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3 store: bucket is required")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 store: create client: %w", err)
	}

	baseURL := strings.TrimSpace(cfg.PublicBaseURL)
	if baseURL == "" {
		baseURL = joinURL(client.EndpointURL().String(), bucket)
	}

	return &S3Store{
		client:  client,
		bucket:  bucket,
		region:  cfg.Region,
		baseURL: baseURL,
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("s3 store: check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("s3 store: create bucket: %w", err)
	}
	return nil
}

func (s *S3Store) Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) error {
	key, err := CleanPath(path)
	if err != nil {
		return err
	}
	if size < 0 {
		size = -1
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return fmt.Errorf("s3 store: put object: %w", err)
	}
	return nil
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	clean, err := CleanPath(prefix)
	if err != nil {
		return nil, err
	}
	clean += "/"

	out := make([]ObjectInfo, 0)
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: clean}) {
		if object.Err != nil {
			return nil, fmt.Errorf("s3 store: list objects: %w", object.Err)
		}
		name := strings.TrimPrefix(object.Key, clean)
		if name == "" || strings.HasSuffix(name, "/") {
			continue
		}
		out = append(out, ObjectInfo{Name: name, Size: ptr(object.Size)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *S3Store) PublicURL(path string) string {
	clean, err := CleanPath(path)
	if err != nil {
		return ""
	}
	return joinURL(s.baseURL, clean)
}

func (s *S3Store) Delete(ctx context.Context, paths ...string) error {
	for _, path := range paths {
		key, err := CleanPath(path)
		if err != nil {
			return err
		}
		if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("s3 store: remove object: %w", err)
		}
	}
	return nil
}
