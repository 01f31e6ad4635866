// Package storage uploads book cover images to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Options configures the S3 client. BaseEndpoint supports MinIO and other
// S3-compatible hosts; PublicBaseURL is the host serving uploaded objects.
type Options struct {
	Region        string
	BaseEndpoint  string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// S3Store stores image payloads as objects under books/ and returns durable URLs.
type S3Store struct {
	client *s3.Client
	opts   Options
}

// NewS3Store builds an S3 client with static credentials.
func NewS3Store(ctx context.Context, opts Options) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("platform/storage: load config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Store{client: client, opts: opts}, nil
}

// Upload writes the payload to the bucket and returns the object URL.
func (s *S3Store) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	key := objectKey()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.opts.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("platform/storage: put object: %w", err)
	}

	base := strings.TrimSuffix(s.opts.PublicBaseURL, "/")
	return fmt.Sprintf("%s/%s/%s", base, s.opts.Bucket, key), nil
}

// objectKey spreads uploads across date-based prefixes.
func objectKey() string {
	d := time.Now().UTC()
	return fmt.Sprintf("books/%d/%02d/%02d/%s", d.Year(), d.Month(), d.Day(), uuid.New())
}
