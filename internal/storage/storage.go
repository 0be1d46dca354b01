// Package storage persists rendered videos.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Sink stores a finished video and reports where it went.
type Sink interface {
	Name() string
	// Store writes size bytes from src under key. The returned location is
	// empty when the sink does not persist anything.
	Store(ctx context.Context, key, contentType string, src io.Reader, size int64) (string, error)
}

const (
	BackendLocal = "local"
	BackendMinio = "minio"
	BackendS3    = "s3"
	BackendNone  = "none"
)

// Config selects and configures a sink.
type Config struct {
	Backend string
	Dir     string

	Minio MinioConfig
	S3    S3Config
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// New builds the sink named by cfg.Backend.
func New(ctx context.Context, cfg Config) (Sink, error) {
	switch cfg.Backend {
	case "", BackendLocal:
		return NewLocal(cfg.Dir)
	case BackendMinio:
		return NewMinio(ctx, cfg.Minio)
	case BackendS3:
		return NewS3(ctx, cfg.S3)
	case BackendNone:
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown output storage %q", cfg.Backend)
	}
}

// NewKey returns a unique object key of the form final_video_<hex>.mp4.
func NewKey() string {
	return "final_video_" + strings.ReplaceAll(uuid.NewString(), "-", "") + ".mp4"
}

// None discards output; the video only lives for the duration of the request.
type None struct{}

func (None) Name() string { return BackendNone }

func (None) Store(context.Context, string, string, io.Reader, int64) (string, error) {
	return "", nil
}
