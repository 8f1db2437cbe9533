package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/vitaboost/storefront/config"
)

// DownloadURLExpiry bounds how long a presigned export link stays valid.
const DownloadURLExpiry = 24 * time.Hour

var ErrBucketNotConfigured = errors.New("s3 bucket not configured")

// Uploader stores generated files and returns where they can be fetched.
type Uploader interface {
	Upload(ctx context.Context, folder, filename, contentType string, body []byte) (*UploadResult, error)
}

type S3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	baseURL string
}

type UploadResult struct {
	Key         string `json:"key"`
	FileURL     string `json:"file_url"`
	DownloadURL string `json:"download_url"`
}

// NewS3Storage uses static credentials when both keys are set and the
// default AWS credential chain otherwise.
func NewS3Storage(ctx context.Context, cfg *config.S3Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, ErrBucketNotConfigured
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		baseURL: cfg.BaseURL,
	}, nil
}

// Upload stores body under ObjectKey(folder, filename) with an attachment
// disposition so browsers download rather than render it.
func (s *S3Storage) Upload(ctx context.Context, folder, filename, contentType string, body []byte) (*UploadResult, error) {
	key := ObjectKey(folder, filename)

	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(body),
		ContentLength:      aws.Int64(int64(len(body))),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", filename)),
	}); err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	signed, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(DownloadURLExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}

	return &UploadResult{
		Key:         key,
		FileURL:     s.fileURL(key),
		DownloadURL: signed.URL,
	}, nil
}

func (s *S3Storage) fileURL(key string) string {
	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.client.Options().Region, key)
}

// ObjectKey returns folder/YYYY/MM/DD/<uuid><ext>, partitioned by UTC date.
func ObjectKey(folder, filename string) string {
	return objectKeyAt(folder, filename, time.Now())
}

func objectKeyAt(folder, filename string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s%s", folder, at.UTC().Format("2006/01/02"), uuid.NewString(), filepath.Ext(filename))
}
