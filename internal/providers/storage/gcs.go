package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/crowngraphics/portal/internal/clock"
)

// GCSStore writes uploads as objects under a prefix of one bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
	clock  clock.Clock
}

// NewGCS dials the bucket with application default credentials, or the
// emulator when endpoint is set.
func NewGCS(ctx context.Context, bucket, prefix, endpoint string, clk clock.Clock) (*GCSStore, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("missing UPLOAD_GCS_BUCKET")
	}
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/"), clock: clk}, nil
}

func (s *GCSStore) Save(ctx context.Context, filename string, content io.Reader) (string, error) {
	name, err := StoredName(s.clock.Now(), filename)
	if err != nil {
		return "", err
	}
	key := path.Join(s.prefix, name)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = ContentType(name)
	if _, err := io.Copy(w, content); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return key, nil
}

func (s *GCSStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	key, ok := s.clean(key)
	if !ok {
		return nil, ErrNotFound
	}
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *GCSStore) Remove(ctx context.Context, key string) error {
	key, ok := s.clean(key)
	if !ok {
		return nil
	}
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) clean(key string) (string, bool) {
	key = path.Clean(strings.TrimPrefix(strings.TrimSpace(key), "/"))
	if key == "." || strings.HasPrefix(key, "..") {
		return "", false
	}
	if s.prefix != "" && !strings.HasPrefix(key, s.prefix+"/") {
		return "", false
	}
	return key, true
}
