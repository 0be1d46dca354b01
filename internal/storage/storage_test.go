package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/ZacxDev/reel-composer/internal/failure"
)

func TestNewKey(t *testing.T) {
	re := regexp.MustCompile(`^final_video_[0-9a-f]{32}\.mp4$`)

	a, b := NewKey(), NewKey()
	if !re.MatchString(a) {
		t.Errorf("unexpected key %q", a)
	}
	if a == b {
		t.Error("expected unique keys")
	}
}

func TestLocalStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	sink, err := New(context.Background(), Config{Backend: BackendLocal, Dir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if sink.Name() != "local" {
		t.Errorf("expected local sink, got %s", sink.Name())
	}

	loc, err := sink.Store(context.Background(), "final_video_abc.mp4", "video/mp4", strings.NewReader("mp4"), 3)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	data, err := os.ReadFile(loc)
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != "mp4" {
		t.Errorf("unexpected content %q", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the stored video in %s, found %d entries", dir, len(entries))
	}
}

func TestLocalStoreCancelled(t *testing.T) {
	sink, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = sink.Store(ctx, "k.mp4", "video/mp4", strings.NewReader("x"), 1)
	if !errors.Is(err, failure.IO) {
		t.Errorf("expected io error, got %v", err)
	}
}

func TestNoneStore(t *testing.T) {
	sink, err := New(context.Background(), Config{Backend: BackendNone})
	if err != nil {
		t.Fatal(err)
	}
	loc, err := sink.Store(context.Background(), "k.mp4", "video/mp4", strings.NewReader("x"), 1)
	if err != nil || loc != "" {
		t.Errorf("expected empty location and no error, got %q, %v", loc, err)
	}
}

func TestNewValidation(t *testing.T) {
	ctx := context.Background()

	if _, err := New(ctx, Config{Backend: "ftp"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := New(ctx, Config{Backend: BackendMinio}); !errors.Is(err, failure.Environment) {
		t.Errorf("expected environment error for minio without endpoint, got %v", err)
	}
	if _, err := New(ctx, Config{Backend: BackendS3}); !errors.Is(err, failure.Environment) {
		t.Errorf("expected environment error for s3 without bucket, got %v", err)
	}
}
