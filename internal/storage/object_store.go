// Package storage uploads deliverables to an object store and hands back a
// retrievable URL.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Object describes a stored file.
type Object struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// ObjectStore is the file-upload collaborator.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*Object, error)
}

// S3Config configures the S3-backed store.
type S3Config struct {
	Bucket string
	Region string
	// Endpoint overrides the S3 endpoint (MinIO, localstack). Empty uses AWS.
	Endpoint string
	// PublicBaseURL prefixes object keys in returned URLs. Empty uses the
	// uploader's reported location.
	PublicBaseURL string
	// Static keys. When empty the default credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
}

type s3Store struct {
	uploader      *manager.Uploader
	bucket        string
	publicBaseURL string
}

// NewS3Store builds an S3-backed ObjectStore.
func NewS3Store(ctx context.Context, cfg S3Config) (ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3Store{
		uploader:      manager.NewUploader(client),
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

func (s *s3Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*Object, error) {
	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	url := out.Location
	if s.publicBaseURL != "" {
		url = s.publicBaseURL + "/" + key
	}

	return &Object{Key: key, URL: url, Size: size}, nil
}
