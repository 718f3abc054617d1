// Package imagestore publishes image bytes to S3-compatible object
// storage so that URL-only identification providers can dereference
// them, and persists downloaded reference images. Objects are keyed by
// content hash, so repeated writes of the same bytes are idempotent.
package imagestore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// Store publishes images through a MinIO/S3 bucket.
type Store struct {
	client     *minio.Client
	httpClient *resty.Client
	bucket     string
}

type Opts struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// DownloadTimeout bounds reference image downloads.
	DownloadTimeout time.Duration
}

// New connects to the object store and ensures the bucket exists.
func New(ctx context.Context, opts Opts) (*Store, error) {
	cli, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	timeout := opts.DownloadTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Store{
		client:     cli,
		httpClient: resty.New().SetTimeout(timeout),
		bucket:     opts.Bucket,
	}, nil
}

// Publish writes image bytes under their content-hash key and returns
// a public URL. Publishing the same bytes twice writes once.
func (s *Store) Publish(ctx context.Context, data []byte, mimeType string) (string, error) {
	key := objectKey(data, mimeType)

	// Content-addressed keys make the write idempotent: if the object
	// already exists the bytes are already there.
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return s.objectURL(key), nil
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	log.Debug().Str("key", key).Int("bytes", len(data)).Msg("published image")
	return s.objectURL(key), nil
}

// SaveReference downloads a listing photo and republishes it in our
// bucket so the URL we hand out stays stable.
func (s *Store) SaveReference(ctx context.Context, srcURL string) (string, error) {
	res, err := s.httpClient.NewRequest().SetContext(ctx).Get(srcURL)
	if err != nil {
		return "", fmt.Errorf("failed to download reference image: %w", err)
	}
	if res.IsError() {
		return "", fmt.Errorf("reference image download failed (status: %d)", res.StatusCode())
	}

	mimeType := res.Header().Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return s.Publish(ctx, res.Body(), mimeType)
}

func (s *Store) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL(), s.bucket, key)
}

func objectKey(data []byte, mimeType string) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]) + extensionFor(mimeType)
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
