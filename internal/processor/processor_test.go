package processor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ZacxDev/reel-composer/internal/failure"
	"github.com/ZacxDev/reel-composer/internal/platform"
	"github.com/ZacxDev/reel-composer/internal/storage"
	"github.com/ZacxDev/reel-composer/internal/timeline"
)

type fakeDownloader struct {
	err    error
	called bool
}

func (d *fakeDownloader) Download(_ context.Context, _, dir string) (string, error) {
	d.called = true
	if d.err != nil {
		return "", d.err
	}
	path := filepath.Join(dir, "youtube_audio.mp3")
	return path, os.WriteFile(path, []byte("ID3"), 0644)
}

type fakeProber struct {
	duration float64
}

func (p fakeProber) Duration(string) (float64, error) { return p.duration, nil }

type fakeRenderer struct {
	err error
	job timeline.RenderJob
}

func (r *fakeRenderer) Render(_ context.Context, job timeline.RenderJob, _ string) error {
	r.job = job
	if r.err != nil {
		return r.err
	}
	return os.WriteFile(job.OutputPath, []byte("fake mp4"), 0644)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type fixture struct {
	workdir    string
	outdir     string
	downloader *fakeDownloader
	prober     fakeProber
	renderer   *fakeRenderer
	checkTools func(ctx context.Context) error
}

func newFixture(t *testing.T) *fixture {
	return &fixture{
		workdir:    t.TempDir(),
		outdir:     t.TempDir(),
		downloader: &fakeDownloader{},
		prober:     fakeProber{duration: 180},
		renderer:   &fakeRenderer{},
	}
}

func (f *fixture) generator(t *testing.T) *Generator {
	t.Helper()
	composer, err := timeline.NewComposer(timeline.DefaultRecipe(), timeline.Assets{
		Watermark: timeline.MediaAsset{Kind: timeline.AssetWatermark, Path: "watermark.png", Width: 400, Height: 200},
		Backdrop:  timeline.MediaAsset{Kind: timeline.AssetBackdrop, Path: "backdrop.png", Width: 1080, Height: 1920},
		Font:      timeline.MediaAsset{Kind: timeline.AssetFont, Path: "font.ttf"},
	})
	if err != nil {
		t.Fatal(err)
	}
	profile, err := platform.Get("shorts")
	if err != nil {
		t.Fatal(err)
	}
	sink, err := storage.NewLocal(f.outdir)
	if err != nil {
		t.Fatal(err)
	}

	g, err := NewGenerator(Options{
		Composer:   composer,
		Profile:    profile,
		Downloader: f.downloader,
		Prober:     f.prober,
		Renderer:   f.renderer,
		Sink:       sink,
		CheckTools: f.checkTools,
		Workdir:    f.workdir,
		Log:        zerolog.Nop(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func (f *fixture) request(t *testing.T) Request {
	return Request{
		Image:      bytes.NewReader(pngBytes(t)),
		Caption:    "Hello",
		YouTubeURL: "https://www.youtube.com/watch?v=abc",
		OffsetMM:   1,
		OffsetSS:   5,
	}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected %s to be empty, found %d entries", dir, len(entries))
	}
}

func TestGenerate(t *testing.T) {
	f := newFixture(t)
	g := f.generator(t)

	res, err := g.Generate(context.Background(), f.request(t))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.HasPrefix(res.Filename, "final_video_") || !strings.HasSuffix(res.Filename, ".mp4") {
		t.Errorf("unexpected filename %q", res.Filename)
	}
	if res.Duration != 14 {
		t.Errorf("expected 14s, got %v", res.Duration)
	}
	if res.Location != filepath.Join(f.outdir, res.Filename) {
		t.Errorf("unexpected location %q", res.Location)
	}
	if res.Size != int64(len("fake mp4")) {
		t.Errorf("unexpected size %d", res.Size)
	}

	job := f.renderer.job
	if job.Timeline.Audio.Offset != 65 {
		t.Errorf("expected offset 65s, got %v", job.Timeline.Audio.Offset)
	}
	if job.Encoding.FPS != 24 || job.Encoding.Threads < 1 {
		t.Errorf("unexpected encoding %+v", job.Encoding)
	}
	if base := job.Timeline.Pages[0].Layers[0].Asset; base.Width != 40 || base.Height != 30 {
		t.Errorf("unexpected base image %+v", base)
	}

	file, err := res.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	file.Close()

	if err := res.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(res.Path); !os.IsNotExist(err) {
		t.Error("expected rendered file to be removed on Close")
	}
	assertEmptyDir(t, f.workdir)

	if _, err := os.Stat(res.Location); err != nil {
		t.Errorf("stored copy should outlive the workspace: %v", err)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(f *fixture, req *Request)
		want   error
		noDown bool
	}{
		{
			name:   "bad url",
			setup:  func(f *fixture, req *Request) { req.YouTubeURL = "youtube" },
			want:   failure.Input,
			noDown: true,
		},
		{
			name:   "missing image",
			setup:  func(f *fixture, req *Request) { req.Image = nil },
			want:   failure.Input,
			noDown: true,
		},
		{
			name:   "undecodable image",
			setup:  func(f *fixture, req *Request) { req.Image = strings.NewReader("not an image") },
			want:   failure.Asset,
			noDown: true,
		},
		{
			name:   "negative offset",
			setup:  func(f *fixture, req *Request) { req.OffsetMM, req.OffsetSS = 0, -1 },
			want:   failure.Range,
			noDown: true,
		},
		{
			name: "tools missing",
			setup: func(f *fixture, req *Request) {
				f.checkTools = func(context.Context) error {
					return failure.New(failure.KindEnvironment, "test", "ffmpeg not found")
				}
			},
			want:   failure.Environment,
			noDown: true,
		},
		{
			name: "download fails",
			setup: func(f *fixture, req *Request) {
				f.downloader.err = failure.New(failure.KindDownload, "test", "video unavailable")
			},
			want: failure.Download,
		},
		{
			name:  "offset past end",
			setup: func(f *fixture, req *Request) { req.OffsetMM, req.OffsetSS = 2, 50 },
			want:  failure.Range,
		},
		{
			name: "render fails",
			setup: func(f *fixture, req *Request) {
				f.renderer.err = failure.New(failure.KindIO, "test", "encoder exited 1")
			},
			want: failure.IO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := f.request(t)
			tt.setup(f, &req)
			g := f.generator(t)

			res, err := g.Generate(context.Background(), req)
			if err == nil {
				res.Close()
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %s: %v", tt.want, failure.KindOf(err), err)
			}
			if tt.noDown && f.downloader.called {
				t.Error("expected failure before download")
			}
			assertEmptyDir(t, f.workdir)
			assertEmptyDir(t, f.outdir)
		})
	}
}

func TestNewGeneratorRequiresParts(t *testing.T) {
	if _, err := NewGenerator(Options{}); err == nil {
		t.Error("expected error without composer")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"My Reel!.mp4", "My_Reel"},
		{"__a  b__", "a_b"},
		{"clip.v2.webm", "clip.v2"},
		{"Hello world. Bye", "Hello_world._Bye"},
		{"a:b?c", "a_b_c"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnsureOutputPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	got, err := EnsureOutputPath(filepath.Join(dir, "reel.mov"), "mp4")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(dir, "reel.mp4") {
		t.Errorf("unexpected path %s", got)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("expected directory to be created: %v", err)
	}
}
