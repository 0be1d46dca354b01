package storage

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ZacxDev/reel-composer/internal/failure"
)

// Minio uploads videos to an S3-compatible MinIO bucket.
type Minio struct {
	client *minio.Client
	bucket string
}

// NewMinio connects to the server and creates the bucket if it does not exist.
func NewMinio(ctx context.Context, cfg MinioConfig) (*Minio, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, failure.New(failure.KindEnvironment, "storage.NewMinio", "minio endpoint and bucket are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, failure.Wrap(err, failure.KindEnvironment, "storage.NewMinio", "failed to initialize minio client")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, failure.Wrap(err, failure.KindEnvironment, "storage.NewMinio", "failed to check if bucket exists")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, failure.Wrap(err, failure.KindEnvironment, "storage.NewMinio", "failed to create bucket")
		}
	}

	return &Minio{client: client, bucket: cfg.Bucket}, nil
}

func (m *Minio) Name() string { return BackendMinio }

func (m *Minio) Store(ctx context.Context, key, contentType string, src io.Reader, size int64) (string, error) {
	info, err := m.client.PutObject(ctx, m.bucket, key, src, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", failure.Wrap(err, failure.KindIO, "storage.Minio.Store", "failed to upload video")
	}
	return "minio://" + info.Bucket + "/" + info.Key, nil
}
