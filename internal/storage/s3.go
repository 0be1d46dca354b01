package storage

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ZacxDev/reel-composer/internal/failure"
)

// S3Config configures the s3 sink. Empty values fall back to the standard
// AWS configuration and credential chain.
type S3Config struct {
	Bucket       string
	Region       string
	Endpoint     string // for S3-compatible providers
	UsePathStyle bool
}

// S3 uploads videos with the AWS SDK.
type S3 struct {
	client *s3.Client
	bucket string
}

func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, failure.New(failure.KindEnvironment, "storage.NewS3", "s3 bucket is required")
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, failure.Wrap(err, failure.KindEnvironment, "storage.NewS3", "failed to load aws config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3{client: client, bucket: cfg.Bucket}, nil
}

func (s *S3) Name() string { return BackendS3 }

func (s *S3) Store(ctx context.Context, key, contentType string, src io.Reader, size int64) (string, error) {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   src,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", failure.Wrap(err, failure.KindIO, "storage.S3.Store", "failed to upload video")
	}
	return "s3://" + s.bucket + "/" + key, nil
}
