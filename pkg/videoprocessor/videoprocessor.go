// Package videoprocessor assembles the reel pipeline from configuration and
// exposes it to the CLI: as an HTTP handler for serve and as a one-shot
// render to a local file.
package videoprocessor

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ZacxDev/reel-composer/internal/api"
	"github.com/ZacxDev/reel-composer/internal/canvas"
	"github.com/ZacxDev/reel-composer/internal/config"
	"github.com/ZacxDev/reel-composer/internal/failure"
	"github.com/ZacxDev/reel-composer/internal/ffmpeg"
	"github.com/ZacxDev/reel-composer/internal/platform"
	"github.com/ZacxDev/reel-composer/internal/processor"
	"github.com/ZacxDev/reel-composer/internal/storage"
	"github.com/ZacxDev/reel-composer/internal/timeline"
	"github.com/ZacxDev/reel-composer/internal/youtube"
	"github.com/ZacxDev/reel-composer/pkg/types"
)

// Service is a fully wired generator.
type Service struct {
	cfg  *config.Config
	gen  *processor.Generator
	sink storage.Sink
	log  zerolog.Logger
}

// New probes the static assets, resolves the output profile and storage
// sink, and wires the generator.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Service, error) {
	assets, err := LoadAssets(cfg)
	if err != nil {
		return nil, err
	}

	composer, err := timeline.NewComposer(cfg.Recipe(), assets)
	if err != nil {
		return nil, err
	}

	profile, err := platform.Get(cfg.Render.Profile)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	sink, err := storage.New(ctx, cfg.StorageConfig())
	if err != nil {
		return nil, err
	}

	tools := []string{cfg.Tools.FFmpeg, cfg.Tools.FFprobe, cfg.Tools.YtDlp}
	gen, err := processor.NewGenerator(processor.Options{
		Composer:   composer,
		Profile:    profile,
		Downloader: youtube.NewDownloader(cfg.Tools.YtDlp, log),
		Prober:     ffmpeg.Prober{},
		Renderer:   ffmpeg.NewRenderer(cfg.Tools.FFmpeg, types.CaptionMode(cfg.Caption.Mode), log),
		Sink:       sink,
		CheckTools: func(ctx context.Context) error { return ffmpeg.CheckTools(ctx, tools...) },
		Workdir:    cfg.Render.Workdir,
		Log:        log,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("profile", profile.GetName()).
		Str("storage", sink.Name()).
		Str("caption_mode", cfg.Caption.Mode).
		Str("caption_placement", cfg.Caption.Placement).
		Msg("generator ready")

	return &Service{cfg: cfg, gen: gen, sink: sink, log: log}, nil
}

// LoadAssets probes the watermark and backdrop and checks the font. In
// raster mode the font must be loadable by the rasterizer (TrueType).
func LoadAssets(cfg *config.Config) (timeline.Assets, error) {
	watermark, err := canvas.Probe(timeline.AssetWatermark, cfg.Assets.Watermark)
	if err != nil {
		return timeline.Assets{}, err
	}
	backdrop, err := canvas.Probe(timeline.AssetBackdrop, cfg.Assets.Backdrop)
	if err != nil {
		return timeline.Assets{}, err
	}

	if _, err := os.Stat(cfg.Assets.Font); err != nil {
		return timeline.Assets{}, failure.Wrap(err, failure.KindAsset, "videoprocessor.LoadAssets", "font not found")
	}
	if _, err := canvas.ParseColor(cfg.Caption.Color); err != nil {
		return timeline.Assets{}, failure.New(failure.KindAsset, "videoprocessor.LoadAssets", "invalid caption.color: %v", err)
	}
	if types.CaptionMode(cfg.Caption.Mode) == types.CaptionModeRaster {
		if err := canvas.CheckFont(cfg.Assets.Font, cfg.Caption.FontSize); err != nil {
			return timeline.Assets{}, err
		}
	}

	return timeline.Assets{
		Watermark: watermark,
		Backdrop:  backdrop,
		Font:      timeline.MediaAsset{Kind: timeline.AssetFont, Path: cfg.Assets.Font},
	}, nil
}

// Handler returns the HTTP API backed by this service.
func (s *Service) Handler() http.Handler {
	return api.NewRouter(api.Deps{
		Generator: s.gen,
		Log:       s.log,
		MaxUpload: s.cfg.Upload.MaxBytes,
	})
}

// RenderOptions describes a one-shot render from the command line.
type RenderOptions struct {
	ImagePath  string
	Caption    string
	YouTubeURL string
	OffsetMM   int
	OffsetSS   int
	OutputPath string // defaults to <output.dir>/<caption>.mp4
}

// Render generates a reel and copies it to opts.OutputPath. It returns the
// path written.
func (s *Service) Render(ctx context.Context, opts RenderOptions) (string, error) {
	img, err := os.Open(opts.ImagePath)
	if err != nil {
		return "", failure.Wrap(err, failure.KindInput, "videoprocessor.Render", "failed to open image")
	}
	defer img.Close()

	out := opts.OutputPath
	if out == "" {
		name := processor.SanitizeFilename(opts.Caption)
		if name == "" {
			name = "reel"
		}
		out = filepath.Join(s.cfg.Output.Dir, name)
	}
	out, err = processor.EnsureOutputPath(out, "mp4")
	if err != nil {
		return "", err
	}

	res, err := s.gen.Generate(ctx, processor.Request{
		Image:      img,
		Caption:    opts.Caption,
		YouTubeURL: opts.YouTubeURL,
		OffsetMM:   opts.OffsetMM,
		OffsetSS:   opts.OffsetSS,
	})
	if err != nil {
		return "", err
	}
	defer res.Close()

	if err := copyFile(res, out); err != nil {
		return "", err
	}
	if res.Location != "" {
		s.log.Info().Str("location", res.Location).Msg("stored copy")
	}
	return out, nil
}

func copyFile(res *processor.Result, dst string) error {
	src, err := res.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	f, err := os.Create(dst)
	if err != nil {
		return failure.Wrap(err, failure.KindIO, "videoprocessor.copyFile", "failed to create "+dst)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return failure.Wrap(err, failure.KindIO, "videoprocessor.copyFile", "failed to write "+dst)
	}
	return failure.Wrap(f.Close(), failure.KindIO, "videoprocessor.copyFile", "failed to close "+dst)
}

// GetSupportedProfiles returns the names of the output profiles.
func GetSupportedProfiles() []string {
	return platform.GetSupportedProfiles()
}
