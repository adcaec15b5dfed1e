package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logging"
)

const (
	maxImageSize   = 10 << 20
	recipeImageDir = "recipes/images"
)

// Image is a decoded recipe picture ready to be stored
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// DecodeImage parses a base64 data URI ("data:image/png;base64,...") and
// checks that the payload really is an image.
func DecodeImage(dataURI string) (*Image, error) {
	if !strings.HasPrefix(dataURI, "data:") {
		return nil, ErrInvalidImage.withDetail("expected a base64 data URI")
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(dataURI, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, ErrInvalidImage.withDetail("expected a base64 data URI")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidImage.withDetail("malformed base64 payload")
	}
	if len(data) == 0 {
		return nil, ErrInvalidImage.withDetail("empty payload")
	}
	if len(data) > maxImageSize {
		return nil, ErrInvalidImage.withDetail("larger than %d bytes", maxImageSize)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, ErrInvalidImage.withDetail("unsupported content type %s", mtype.String())
	}

	return &Image{
		Data:        data,
		ContentType: mtype.String(),
		Extension:   mtype.Extension(),
	}, nil
}

func newImageKey(img *Image) string {
	return path.Join(recipeImageDir, uuid.NewString()+img.Extension)
}

// LocalImageStore keeps images under a media directory served by the API
type LocalImageStore struct {
	root    string
	baseURL string
	log     logrus.FieldLogger
}

func NewLocalImageStore(root, baseURL string, log logrus.FieldLogger) *LocalImageStore {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalImageStore{root: root, baseURL: baseURL, log: logging.OrDefault(log)}
}

func (s *LocalImageStore) Save(_ context.Context, img *Image) (string, error) {
	key := newImageKey(img)
	dst := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(dst, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	s.log.WithField("key", key).Debug("stored recipe image")
	return s.baseURL + key, nil
}

func (s *LocalImageStore) Delete(_ context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.baseURL)
	if !ok || key == "" || strings.Contains(key, "..") {
		return fmt.Errorf("image %q is not managed by this store", url)
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image: %w", err)
	}
	return nil
}

// S3API is the subset of the S3 client used by S3ImageStore
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3ImageStore uploads images to a public-read bucket prefix
type S3ImageStore struct {
	client S3API
	bucket string
	urlFor func(key string) string
	log    logrus.FieldLogger
}

func NewS3ImageStore(cfg *config.S3Config, log logrus.FieldLogger) *S3ImageStore {
	return NewS3ImageStoreWithClient(cfg.Client, cfg.BucketName, cfg.ObjectURL, log)
}

func NewS3ImageStoreWithClient(client S3API, bucket string, urlFor func(string) string, log logrus.FieldLogger) *S3ImageStore {
	return &S3ImageStore{client: client, bucket: bucket, urlFor: urlFor, log: logging.OrDefault(log)}
}

func (s *S3ImageStore) Save(ctx context.Context, img *Image) (string, error) {
	key := newImageKey(img)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image to S3: %w", err)
	}

	s.log.WithFields(logrus.Fields{"bucket": s.bucket, "key": key}).Debug("uploaded recipe image")
	return s.urlFor(key), nil
}

func (s *S3ImageStore) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.urlFor(""))
	if !ok || key == "" {
		return fmt.Errorf("image %q is not managed by this store", url)
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image from S3: %w", err)
	}
	return nil
}
