package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/ZacxDev/reel-composer/internal/failure"
)

// Local writes videos into a directory on disk.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		dir = "output"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, failure.Wrap(err, failure.KindIO, "storage.NewLocal", "failed to resolve output directory")
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, failure.Wrap(err, failure.KindIO, "storage.NewLocal", "failed to create output directory")
	}
	return &Local{dir: abs}, nil
}

func (l *Local) Name() string { return BackendLocal }

func (l *Local) Store(ctx context.Context, key, _ string, src io.Reader, _ int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", failure.Wrap(err, failure.KindIO, "storage.Local.Store", "store cancelled")
	}

	path := filepath.Join(l.dir, filepath.Base(key))
	tmp, err := os.CreateTemp(l.dir, ".partial-*")
	if err != nil {
		return "", failure.Wrap(err, failure.KindIO, "storage.Local.Store", "failed to create output file")
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", failure.Wrap(err, failure.KindIO, "storage.Local.Store", "failed to write output file")
	}
	if err := tmp.Close(); err != nil {
		return "", failure.Wrap(err, failure.KindIO, "storage.Local.Store", "failed to close output file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", failure.Wrap(err, failure.KindIO, "storage.Local.Store", "failed to move output file")
	}
	return path, nil
}
