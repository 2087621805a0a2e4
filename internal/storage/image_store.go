// Package storage keeps images attached to end-user problem reports.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/parcel-helpdesk/internal/config"
)

// ErrUnsupportedImage is returned for content types other than common images.
var ErrUnsupportedImage = errors.New("unsupported image type")

// ErrImageTooLarge is returned when an upload exceeds the configured limit.
var ErrImageTooLarge = errors.New("image too large")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image is one upload waiting to be stored.
type Image struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

// ImageStore persists report images and returns a URL for each.
type ImageStore interface {
	Put(ctx context.Context, ticketID string, img Image) (string, error)
	Delete(ctx context.Context, url string) error
}

// Validate checks the content type and size against maxBytes.
func Validate(img Image, maxBytes int64) error {
	if _, ok := imageExtensions[normalizeType(img.ContentType)]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedImage, img.ContentType)
	}
	if maxBytes > 0 && img.Size > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrImageTooLarge, img.Size, maxBytes)
	}
	return nil
}

// New picks S3 when credentials are present and falls back to the local
// directory otherwise or when the bucket cannot be reached.
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) ImageStore {
	local := NewLocalStore(cfg.LocalDir, "/uploads")
	if !cfg.S3Enabled() {
		logger.Info("image storage: local filesystem", zap.String("dir", cfg.LocalDir))
		return local
	}
	s3Store, err := NewS3Store(ctx, cfg)
	if err != nil {
		logger.Warn("image storage: s3 unavailable, using local filesystem", zap.Error(err))
		return local
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := s3Store.client.HeadBucket(pingCtx, &s3.HeadBucketInput{Bucket: aws.String(cfg.S3Bucket)}); err != nil {
		logger.Warn("image storage: bucket check failed, using local filesystem", zap.Error(err))
		return local
	}
	logger.Info("image storage: s3", zap.String("bucket", cfg.S3Bucket))
	return s3Store
}

// S3Store writes images to an S3 compatible bucket.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3Store builds a client with static credentials and an optional custom
// endpoint for S3 compatible providers.
func NewS3Store(ctx context.Context, cfg config.StorageConfig) (*S3Store, error) {
	creds := credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion(cfg.S3Region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{client: client, bucket: cfg.S3Bucket, publicURL: cfg.PublicBaseURL}, nil
}

// Put implements ImageStore.
func (s *S3Store) Put(ctx context.Context, ticketID string, img Image) (string, error) {
	key := objectKey(ticketID, img.ContentType)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          img.Body,
		ContentType:   aws.String(normalizeType(img.ContentType)),
		ContentLength: aws.Int64(img.Size),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.urlFor(key), nil
}

// Delete implements ImageStore.
func (s *S3Store) Delete(ctx context.Context, url string) error {
	key := strings.TrimPrefix(url, s.urlPrefix())
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) urlPrefix() string {
	if s.publicURL != "" {
		return s.publicURL + "/"
	}
	return fmt.Sprintf("s3://%s/", s.bucket)
}

func (s *S3Store) urlFor(key string) string {
	return s.urlPrefix() + key
}

// LocalStore writes images under a directory served at urlPrefix.
type LocalStore struct {
	dir       string
	urlPrefix string
}

// NewLocalStore returns a store rooted at dir.
func NewLocalStore(dir, urlPrefix string) *LocalStore {
	return &LocalStore{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

// Dir is the root directory, for static file serving.
func (l *LocalStore) Dir() string { return l.dir }

// Put implements ImageStore.
func (l *LocalStore) Put(_ context.Context, ticketID string, img Image) (string, error) {
	key := objectKey(ticketID, img.ContentType)
	full := filepath.Join(l.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", key, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, img.Body); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return l.urlPrefix + "/" + key, nil
}

// Delete implements ImageStore.
func (l *LocalStore) Delete(_ context.Context, url string) error {
	key := strings.TrimPrefix(url, l.urlPrefix+"/")
	if strings.Contains(key, "..") {
		return fmt.Errorf("invalid image path %q", url)
	}
	err := os.Remove(filepath.Join(l.dir, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func objectKey(ticketID, contentType string) string {
	ext := imageExtensions[normalizeType(contentType)]
	return path.Join("reports", ticketID, uuid.NewString()+ext)
}

func normalizeType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}
