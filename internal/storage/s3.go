package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Config holds S3/MinIO configuration
type S3Config struct {
	Endpoint        string // e.g., "http://localhost:9000" for MinIO
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	PublicURL       string // base URL images are served from, must be reachable by the social networks
}

// S3Storage stores post images in an S3-compatible bucket
type S3Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewS3Storage creates a new S3 storage client
func NewS3Storage(cfg S3Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		UsePathStyle: true, // Required for MinIO
	})

	return &S3Storage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		now:       time.Now,
	}, nil
}

// UploadInput represents input for uploading a file
type UploadInput struct {
	Reader      io.Reader
	ContentType string
	Size        int64
	Prefix      string // key prefix such as "uploads/<account>"
	Filename    string // Optional: original filename for extension extraction
}

// UploadOutput represents output from uploading a file
type UploadOutput struct {
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Upload uploads a file to S3 and returns the public URL
func (s *S3Storage) Upload(ctx context.Context, in UploadInput) (*UploadOutput, error) {
	key := s.objectKey(in)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          in.Reader,
		ContentType:   aws.String(in.ContentType),
		ContentLength: aws.Int64(in.Size),
	})
	if err != nil {
		return nil, fmt.Errorf("uploading to s3: %w", err)
	}

	return &UploadOutput{
		Key:        key,
		URL:        s.URL(key),
		Size:       in.Size,
		UploadedAt: s.now(),
	}, nil
}

// URL returns the public URL of an object
func (s *S3Storage) URL(key string) string {
	return s.publicURL + "/" + key
}

func (s *S3Storage) objectKey(in UploadInput) string {
	ext := strings.ToLower(path.Ext(in.Filename))
	if ext == "" {
		ext = extensionFor(in.ContentType)
	}

	name := s.now().UTC().Format("2006/01/02") + "/" + uuid.New().String() + ext
	if prefix := strings.Trim(in.Prefix, "/"); prefix != "" {
		return prefix + "/" + name
	}
	return name
}

// extensionFor returns file extension based on content type
func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
