package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/config"
)

const maxImageBytes = 5 << 20

// ImageStore persists an encoded image and returns its public URL
type ImageStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// StoredImage is an image written to an ImageStore
type StoredImage struct {
	Key string
	URL string
}

// S3ImageStore keeps images in an S3 bucket
type S3ImageStore struct {
	s3Config *config.S3Config
}

func NewS3ImageStore(s3Config *config.S3Config) *S3ImageStore {
	return &S3ImageStore{s3Config: s3Config}
}

// Save uploads data to the bucket and returns the public URL
func (s *S3ImageStore) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, key)
	log.Debugf("[ImageStore] uploaded image to S3: %s", publicURL)
	return publicURL, nil
}

// Delete removes the object stored under key
func (s *S3ImageStore) Delete(ctx context.Context, key string) error {
	_, err := s.s3Config.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.s3Config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

// LocalImageStore keeps images under a media directory served by the API
type LocalImageStore struct {
	dir     string
	baseURL string
}

func NewLocalImageStore(dir, baseURL string) *LocalImageStore {
	return &LocalImageStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalImageStore) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *LocalImageStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image: %w", err)
	}
	return nil
}

// ImageService decodes base64 recipe images and hands them to a store
type ImageService struct {
	store ImageStore
}

func NewImageService(store ImageStore) *ImageService {
	return &ImageService{store: store}
}

// SaveBase64 stores a "data:image/...;base64," URI (or bare base64)
func (s *ImageService) SaveBase64(ctx context.Context, encoded string) (*StoredImage, error) {
	data, err := decodeImage(encoded)
	if err != nil {
		return nil, err
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, Validation("image must be an image, got %s", mtype.String())
	}

	key := "recipes/images/" + uuid.NewString() + mtype.Extension()
	url, err := s.store.Save(ctx, key, mtype.String(), data)
	if err != nil {
		return nil, err
	}
	return &StoredImage{Key: key, URL: url}, nil
}

// Discard removes an image whose recipe write did not go through. Failures
// are logged; the caller already has an error to report.
func (s *ImageService) Discard(ctx context.Context, image *StoredImage) {
	if image == nil {
		return
	}
	if err := s.store.Delete(context.WithoutCancel(ctx), image.Key); err != nil {
		log.WithError(err).WithField("key", image.Key).Warn("failed to discard recipe image")
	}
}

func decodeImage(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, Validation("image is required")
	}
	if strings.HasPrefix(encoded, "data:") {
		comma := strings.Index(encoded, ",")
		if comma < 0 || !strings.HasSuffix(encoded[:comma], ";base64") {
			return nil, Validation("image must be a base64 data URI")
		}
		encoded = encoded[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, Validation("image is not valid base64")
	}
	if len(data) == 0 {
		return nil, Validation("image is empty")
	}
	if len(data) > maxImageBytes {
		return nil, Validation("image exceeds %d bytes", maxImageBytes)
	}
	return data, nil
}
