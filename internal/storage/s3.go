package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jarne/linkleopard/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

// S3 stores objects in a bucket of any S3-compatible service (AWS, MinIO,
// DigitalOcean Spaces, ...). References are object keys.
type S3 struct {
	client    *s3.Client
	bucket    string
	endpoint  *url.URL
	pathStyle bool
	log       zerolog.Logger
}

func NewS3(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	endpoint := cfg.Endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid storage endpoint %q", cfg.Endpoint)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.AccessSecret,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &S3{
		client:    client,
		bucket:    cfg.Bucket,
		endpoint:  u,
		pathStyle: cfg.ForcePathStyle,
		log:       log.With().Str("component", "s3").Str("bucket", cfg.Bucket).Logger(),
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet and gives it a
// public read policy so uploaded images can be linked directly.
func (s *S3) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	if !isAPIError(err, "NotFound", "NoSuchBucket") {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil && !isAPIError(err, "BucketAlreadyOwnedByYou") {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	_, err = s.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(s.bucket),
		Policy: aws.String(publicReadPolicy(s.bucket)),
	})
	if err != nil {
		return fmt.Errorf("failed to set bucket policy: %w", err)
	}

	s.log.Info().Msg("Created bucket with public read policy")
	return nil
}

func (s *S3) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return name, nil
}

func (s *S3) URL(key string) string {
	return ObjectURL(s.endpoint, s.bucket, key, s.pathStyle)
}

// ObjectURL builds the public address of an object. Path style puts the
// bucket in the path; otherwise it becomes a subdomain of the endpoint.
func ObjectURL(endpoint *url.URL, bucket, key string, pathStyle bool) string {
	scheme := endpoint.Scheme
	if scheme == "" {
		scheme = "https"
	}
	if pathStyle {
		return fmt.Sprintf("%s://%s/%s/%s", scheme, endpoint.Host, bucket, key)
	}
	return fmt.Sprintf("%s://%s.%s/%s", scheme, bucket, endpoint.Host, key)
}

func isAPIError(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.ErrorCode() == code {
			return true
		}
	}
	return false
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{
	"Version": "2012-10-17",
	"Statement": [
		{
			"Effect": "Allow",
			"Principal": {"AWS": ["*"]},
			"Action": ["s3:GetObject"],
			"Resource": ["arn:aws:s3:::%s/*"]
		}
	]
}`, bucket)
}
