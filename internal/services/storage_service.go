// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shoplane/ecommerce-backend/internal/config"
)

// UploadResult pairs the public URL of a stored object with the opaque
// key the store needs to delete it again.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// ImageStore is the blob-store contract the product orchestrators
// depend on. Both methods are safe to call more than once for the same
// object: re-uploading produces a fresh key, and deleting an absent
// key succeeds, which the compensation paths rely on.
type ImageStore interface {
	UploadImage(data []byte, mimeType string) (*UploadResult, error)
	DeleteImage(key string) error
}

type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	if cfg.AWS.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{config: cfg}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   cfg,
	}, nil
}

func (s *StorageService) UploadImage(data []byte, mimeType string) (*UploadResult, error) {
	key := s.generateObjectKey(mimeType)

	if s.s3Client == nil {
		// Local development: pretend the object was stored.
		return &UploadResult{
			URL: fmt.Sprintf("http://localhost:8080/uploads/%s", key),
			Key: key,
		}, nil
	}

	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(mimeType),
		ContentLength: aws.Int64(int64(len(data))),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: put object %s: %v", ErrUpstream, key, err)
	}

	return &UploadResult{
		URL: s.objectURL(key),
		Key: key,
	}, nil
}

func (s *StorageService) DeleteImage(key string) error {
	if key == "" {
		return fmt.Errorf("%w: delete requires an object key", ErrUpstream)
	}

	if s.s3Client == nil {
		logrus.WithField("key", key).Debug("local storage: skipping object deletion")
		return nil
	}

	// S3 deletes are idempotent: deleting a missing key succeeds, so
	// compensation paths may retry without special handling.
	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%w: delete object %s: %v", ErrUpstream, key, err)
	}

	return nil
}

func (s *StorageService) generateObjectKey(mimeType string) string {
	id := uuid.New()
	timestamp := time.Now().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, id.String()[:8], extensionForMime(mimeType))

	if s.config.AWS.S3Folder != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.S3Folder, filename)
	}
	return filename
}

func (s *StorageService) objectURL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}

func extensionForMime(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

// ValidateImageBytes checks common image file signatures so obviously
// non-image payloads are rejected before they reach the blob store.
func ValidateImageBytes(data []byte) error {
	if !isValidImageType(data) {
		return fmt.Errorf("%w: payload is not a recognized image format", ErrValidation)
	}
	return nil
}

func isValidImageType(buffer []byte) bool {
	// JPEG
	if len(buffer) >= 3 && buffer[0] == 0xFF && buffer[1] == 0xD8 && buffer[2] == 0xFF {
		return true
	}

	// PNG
	if len(buffer) >= 8 && buffer[0] == 0x89 && buffer[1] == 0x50 && buffer[2] == 0x4E && buffer[3] == 0x47 {
		return true
	}

	// GIF
	if len(buffer) >= 6 && (string(buffer[0:6]) == "GIF87a" || string(buffer[0:6]) == "GIF89a") {
		return true
	}

	// WebP: RIFF....WEBP
	if len(buffer) >= 12 && string(buffer[0:4]) == "RIFF" && string(buffer[8:12]) == "WEBP" {
		return true
	}

	return false
}
