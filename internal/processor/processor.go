// Package processor runs the request pipeline: upload in, reel out.
package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZacxDev/reel-composer/internal/canvas"
	"github.com/ZacxDev/reel-composer/internal/failure"
	"github.com/ZacxDev/reel-composer/internal/ffmpeg"
	"github.com/ZacxDev/reel-composer/internal/platform"
	"github.com/ZacxDev/reel-composer/internal/storage"
	"github.com/ZacxDev/reel-composer/internal/timeline"
	"github.com/ZacxDev/reel-composer/internal/workspace"
	"github.com/ZacxDev/reel-composer/internal/youtube"
)

const (
	inputImageName = "input_image.png"
	contentType    = "video/mp4"
)

// Downloader fetches the source audio into dir.
type Downloader interface {
	Download(ctx context.Context, link, dir string) (string, error)
}

// Prober reports media duration in seconds.
type Prober interface {
	Duration(path string) (float64, error)
}

// Renderer encodes a job, using workdir for intermediate frames.
type Renderer interface {
	Render(ctx context.Context, job timeline.RenderJob, workdir string) error
}

// Options wires a Generator. CheckTools may be nil.
type Options struct {
	Composer   *timeline.Composer
	Profile    platform.Platform
	Downloader Downloader
	Prober     Prober
	Renderer   Renderer
	Sink       storage.Sink
	CheckTools func(ctx context.Context) error
	Workdir    string
	Log        zerolog.Logger
}

// Generator produces one reel per request.
type Generator struct {
	composer   *timeline.Composer
	profile    platform.Platform
	encoding   timeline.Encoding
	downloader Downloader
	prober     Prober
	renderer   Renderer
	sink       storage.Sink
	checkTools func(ctx context.Context) error
	workdir    string
	log        zerolog.Logger
}

func NewGenerator(opts Options) (*Generator, error) {
	switch {
	case opts.Composer == nil:
		return nil, fmt.Errorf("composer is required")
	case opts.Profile == nil:
		return nil, fmt.Errorf("profile is required")
	case opts.Downloader == nil, opts.Prober == nil, opts.Renderer == nil:
		return nil, fmt.Errorf("downloader, prober and renderer are required")
	}
	sink := opts.Sink
	if sink == nil {
		sink = storage.None{}
	}

	enc := platform.EncodingFor(opts.Profile)
	if enc.Threads == 0 {
		enc.Threads = ffmpeg.GetOptimalThreadCount()
	}

	return &Generator{
		composer:   opts.Composer,
		profile:    opts.Profile,
		encoding:   enc,
		downloader: opts.Downloader,
		prober:     opts.Prober,
		renderer:   opts.Renderer,
		sink:       sink,
		checkTools: opts.CheckTools,
		workdir:    opts.Workdir,
		log:        opts.Log.With().Str("component", "generator").Logger(),
	}, nil
}

// Request carries the form fields of one generation.
type Request struct {
	Image      io.Reader
	Caption    string
	YouTubeURL string
	OffsetMM   int
	OffsetSS   int
}

// Result is a rendered reel. The file lives in a request workspace that is
// removed by Close.
type Result struct {
	Path     string
	Filename string
	Location string // where the sink stored a copy, empty if nowhere
	Size     int64
	Duration float64

	ws *workspace.Workspace
}

// Open opens the rendered file for reading.
func (r *Result) Open() (*os.File, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, failure.Wrap(err, failure.KindIO, "processor.Result.Open", "failed to open video")
	}
	return f, nil
}

// Close releases the workspace holding the rendered file.
func (r *Result) Close() error {
	if r == nil || r.ws == nil {
		return nil
	}
	return r.ws.Release()
}

// Generate runs the pipeline. On error every intermediate file is removed
// before returning; on success the caller owns the Result and must Close it.
func (g *Generator) Generate(ctx context.Context, req Request) (_ *Result, err error) {
	start := time.Now()

	if req.Image == nil {
		return nil, failure.New(failure.KindInput, "processor.Generate", "image is required")
	}
	if err := youtube.ValidateURL(req.YouTubeURL); err != nil {
		return nil, err
	}
	offset := timeline.OffsetSeconds(req.OffsetMM, req.OffsetSS)
	if offset < 0 {
		return nil, failure.New(failure.KindRange, "processor.Generate", "audio offset %.0fs is negative", offset)
	}

	if g.checkTools != nil {
		if err := g.checkTools(ctx); err != nil {
			return nil, err
		}
	}

	ws, err := workspace.Acquire(g.workdir, "reel")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rerr := ws.Release(); rerr != nil {
				g.log.Warn().Err(rerr).Str("workspace", ws.Dir()).Msg("failed to release workspace")
			}
		}
	}()

	log := g.log.With().Str("workspace", filepath.Base(ws.Dir())).Logger()

	image, err := canvas.Import(req.Image, ws.Path(inputImageName))
	if err != nil {
		return nil, err
	}
	log.Debug().Int("width", image.Width).Int("height", image.Height).Msg("image imported")

	audioPath, err := g.downloader.Download(ctx, req.YouTubeURL, ws.Dir())
	if err != nil {
		return nil, err
	}
	duration, err := g.prober.Duration(audioPath)
	if err != nil {
		return nil, err
	}
	audio := timeline.MediaAsset{Kind: timeline.AssetAudio, Path: audioPath, Duration: duration}

	tl, err := g.composer.Compose(image, req.Caption, audio, offset)
	if err != nil {
		return nil, err
	}
	if err := platform.Fits(g.profile, tl); err != nil {
		return nil, failure.Wrap(err, failure.KindEnvironment, "processor.Generate", "profile mismatch")
	}

	key := storage.NewKey()
	job := g.composer.Job(tl, g.encoding, ws.Path(key))
	if err := g.renderer.Render(ctx, job, ws.Dir()); err != nil {
		return nil, err
	}

	info, err := os.Stat(job.OutputPath)
	if err != nil {
		return nil, failure.Wrap(err, failure.KindIO, "processor.Generate", "video file not found")
	}

	location, err := g.store(ctx, key, job.OutputPath, info.Size())
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("file", key).
		Str("location", location).
		Int64("bytes", info.Size()).
		Float64("offset", offset).
		Dur("elapsed", time.Since(start)).
		Msg("video generated")

	return &Result{
		Path:     job.OutputPath,
		Filename: key,
		Location: location,
		Size:     info.Size(),
		Duration: tl.Duration(),
		ws:       ws,
	}, nil
}

func (g *Generator) store(ctx context.Context, key, path string, size int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", failure.Wrap(err, failure.KindIO, "processor.store", "failed to open video")
	}
	defer f.Close()

	return g.sink.Store(ctx, key, contentType, f, size)
}

// SanitizeFilename turns an arbitrary name into a safe file stem.
func SanitizeFilename(filename string) string {
	sanitized := strings.TrimSuffix(filename, ".mp4")
	sanitized = strings.TrimSuffix(sanitized, ".webm")

	reg := regexp.MustCompile(`[^a-zA-Z0-9_.-]`)
	sanitized = reg.ReplaceAllString(sanitized, "_")

	reg = regexp.MustCompile(`_+`)
	sanitized = reg.ReplaceAllString(sanitized, "_")

	return strings.Trim(sanitized, "_")
}

// EnsureOutputPath creates the parent directory of path and swaps any video
// extension for format's.
func EnsureOutputPath(path, format string) (string, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", failure.Wrap(err, failure.KindIO, "processor.EnsureOutputPath", "failed to create directory "+dir)
		}
	}

	return ffmpeg.EnsureExtension(path, "."+format), nil
}
