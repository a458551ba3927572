// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/footfed/licences-backend/internal/config"
)

// StorageService stores demande attachments (photos, identity documents,
// medical certificates) in S3.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64 // in bytes
	AllowedTypes []string
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	if cfg.Storage.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{config: cfg}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Storage.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.Storage.AccessKeyID,
			cfg.Storage.SecretAccessKey,
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

func (s *StorageService) UploadFile(file multipart.File, header *multipart.FileHeader, options UploadOptions) (*UploadResult, error) {
	if options.MaxSize > 0 && header.Size > options.MaxSize {
		return nil, fmt.Errorf("file size %d bytes exceeds maximum allowed size %d bytes", header.Size, options.MaxSize)
	}

	mimeType := header.Header.Get("Content-Type")
	if len(options.AllowedTypes) > 0 {
		allowed := false
		for _, t := range options.AllowedTypes {
			if strings.EqualFold(t, mimeType) {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, fmt.Errorf("file type %s is not allowed", mimeType)
		}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	folder := options.Folder
	if folder == "" {
		folder = "pieces"
	}
	key := fmt.Sprintf("%s/%s/%s%s", folder, time.Now().Format("2006/01"), uuid.New().String(), filepath.Ext(header.Filename))

	if s.s3Client == nil {
		// Local development: no object store, return a synthetic location.
		return &UploadResult{
			URL:      fmt.Sprintf("file://%s", key),
			Key:      key,
			Size:     header.Size,
			MimeType: mimeType,
		}, nil
	}

	_, err = s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.config.Storage.S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return &UploadResult{
		URL:      s.objectURL(key),
		Key:      key,
		Size:     header.Size,
		MimeType: mimeType,
	}, nil
}

func (s *StorageService) DeleteFile(key string) error {
	if s.s3Client == nil {
		return nil
	}

	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.config.Storage.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	return nil
}

// PresignedURL returns a temporary download link for a stored object.
func (s *StorageService) PresignedURL(key string, expires time.Duration) (string, error) {
	if s.s3Client == nil {
		return s.objectURL(key), nil
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.config.Storage.S3Bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expires)
	if err != nil {
		return "", fmt.Errorf("failed to presign URL: %w", err)
	}

	return url, nil
}

func (s *StorageService) objectURL(key string) string {
	if s.config.Storage.BaseURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.config.Storage.BaseURL, "/"), key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.Storage.S3Bucket, s.config.Storage.Region, key)
}
