package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/ZacxDev/reel-composer/internal/canvas"
	"github.com/ZacxDev/reel-composer/internal/failure"
	"github.com/ZacxDev/reel-composer/internal/timeline"
	"github.com/ZacxDev/reel-composer/pkg/types"
)

// durationTolerance is how much shorter than the timeline an encoded file may be.
const durationTolerance = 0.5

// Renderer encodes a RenderJob with ffmpeg.
type Renderer struct {
	binary string
	mode   types.CaptionMode
	log    zerolog.Logger
	probe  func(path string) (*MediaMetadata, error)
}

// NewRenderer creates a renderer that runs binary (e.g. "ffmpeg").
func NewRenderer(binary string, mode types.CaptionMode, log zerolog.Logger) *Renderer {
	if binary == "" {
		binary = "ffmpeg"
	}
	if mode == "" {
		mode = types.CaptionModeRaster
	}
	return &Renderer{
		binary: binary,
		mode:   mode,
		log:    log.With().Str("component", "renderer").Logger(),
		probe:  GetMediaMetadata,
	}
}

// Render flattens each page into a still frame under workdir, encodes the
// timeline to job.OutputPath and checks the result is not truncated.
func (r *Renderer) Render(ctx context.Context, job timeline.RenderJob, workdir string) error {
	frames, err := r.StageFrames(job, workdir)
	if err != nil {
		return err
	}

	stream, err := r.Graph(job, frames)
	if err != nil {
		return err
	}
	args := stream.GetArgs()

	r.log.Debug().
		Str("output", job.OutputPath).
		Float64("duration", job.Timeline.Duration()).
		Strs("args", args).
		Msg("running ffmpeg")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return failure.Wrap(ctx.Err(), failure.KindIO, "ffmpeg.render", "render canceled")
		}
		return failure.Wrap(err, failure.KindIO, "ffmpeg.render",
			"failed to encode video: "+lastLines(stderr.String(), 5))
	}

	if _, err := os.Stat(job.OutputPath); err != nil {
		return failure.Wrap(err, failure.KindIO, "ffmpeg.render", "video file not found after encoding")
	}

	meta, err := r.probe(job.OutputPath)
	if err != nil {
		return failure.Wrap(err, failure.KindIO, "ffmpeg.render", "failed to probe encoded video")
	}
	if want := job.Timeline.Duration(); meta.Duration+durationTolerance < want {
		return failure.New(failure.KindRange, "ffmpeg.render",
			"encoded video is %.2fs, expected %.2fs: audio window out of range", meta.Duration, want)
	}
	return nil
}

// StageFrames writes one PNG per page and returns their paths in page order.
func (r *Renderer) StageFrames(job timeline.RenderJob, workdir string) ([]string, error) {
	opts := canvas.Options{SkipText: r.mode == types.CaptionModeDrawtext}

	frames := make([]string, 0, len(job.Timeline.Pages))
	for i, page := range job.Timeline.Pages {
		img, err := canvas.Flatten(page, opts)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(workdir, fmt.Sprintf("page_%02d_%s.png", i, page.Name))
		if err := canvas.SavePNG(img, path); err != nil {
			return nil, err
		}
		frames = append(frames, path)
	}
	return frames, nil
}

// Graph builds the ffmpeg invocation: each frame looped for its page
// duration with its fades, pages concatenated, the audio window trimmed and
// attenuated.
func (r *Renderer) Graph(job timeline.RenderJob, frames []string) (*ffmpeg.Stream, error) {
	tl := job.Timeline
	if len(frames) != len(tl.Pages) {
		return nil, failure.New(failure.KindIO, "ffmpeg.graph", "%d frames for %d pages", len(frames), len(tl.Pages))
	}
	enc := job.Encoding

	pages := make([]*ffmpeg.Stream, 0, len(tl.Pages))
	for i, page := range tl.Pages {
		v := ffmpeg.Input(frames[i], ffmpeg.KwArgs{
			"loop":      1,
			"framerate": page.FPS,
			"t":         formatFloat(page.Duration),
		}).Video()

		if caption := page.Caption(); caption != nil && r.mode == types.CaptionModeDrawtext {
			v = AddCaption(v, *caption)
		}

		v = v.Filter("fps", ffmpeg.Args{fmt.Sprint(enc.FPS)}).
			Filter("format", ffmpeg.Args{"yuv420p"}).
			Filter("setsar", ffmpeg.Args{"1"})
		v = ApplyFades(v, page)
		pages = append(pages, v)
	}

	video := ffmpeg.Filter(pages, "concat", ffmpeg.Args{}, ffmpeg.KwArgs{"n": len(pages), "v": 1, "a": 0})

	a := tl.Audio
	audio := ffmpeg.Input(a.Source.Path, ffmpeg.KwArgs{
		"ss": formatFloat(a.Offset),
		"t":  formatFloat(a.Length),
	}).Audio().Filter("volume", ffmpeg.Args{formatFloat(a.Gain)})

	threads := enc.Threads
	if threads <= 0 {
		threads = GetOptimalThreadCount()
	}

	outputKwargs := ffmpeg.KwArgs{
		"c:v":      enc.VideoCodec,
		"c:a":      enc.AudioCodec,
		"r":        enc.FPS,
		"pix_fmt":  "yuv420p",
		"threads":  threads,
		"movflags": "+faststart",
		"t":        formatFloat(math.Max(tl.Duration(), a.Length)),
	}
	if enc.Preset != "" {
		outputKwargs["preset"] = enc.Preset
	}
	if enc.CRF > 0 {
		outputKwargs["crf"] = enc.CRF
	}
	if enc.VideoBitrate != "" {
		outputKwargs["b:v"] = enc.VideoBitrate
	}
	if enc.AudioBitrate != "" {
		outputKwargs["b:a"] = enc.AudioBitrate
	}

	return ffmpeg.Output([]*ffmpeg.Stream{video, audio}, job.OutputPath, outputKwargs).OverWriteOutput(), nil
}

// ApplyFades adds the page's fade-in at its head and fade-out at its tail.
func ApplyFades(stream *ffmpeg.Stream, page timeline.Page) *ffmpeg.Stream {
	if page.FadeIn > 0 {
		stream = stream.Filter("fade", ffmpeg.Args{}, ffmpeg.KwArgs{
			"t":  "in",
			"st": 0,
			"d":  formatFloat(page.FadeIn),
		})
	}
	if page.FadeOut > 0 {
		stream = stream.Filter("fade", ffmpeg.Args{}, ffmpeg.KwArgs{
			"t":  "out",
			"st": formatFloat(page.Duration - page.FadeOut),
			"d":  formatFloat(page.FadeOut),
		})
	}
	return stream
}

// AddCaption draws spec with ffmpeg's drawtext, horizontally centered.
func AddCaption(stream *ffmpeg.Stream, spec timeline.TextSpec) *ffmpeg.Stream {
	y := formatFloat(spec.OffsetY)
	if spec.Placement != types.CaptionPlacementFixedY {
		y = "(h-th)/2-" + y
	}

	return stream.Filter("drawtext", ffmpeg.Args{}, ffmpeg.KwArgs{
		"text":      escapeOption(spec.Content),
		"expansion": "none",
		"fontfile":  escapeOption(spec.Font.Path),
		"fontsize":  formatFloat(spec.Size),
		"fontcolor": spec.Color,
		"x":         "(w-tw)/2",
		"y":         y,
	})
}

// optionEscaper quotes a value for a filter's option list. ffmpeg-go only
// escapes the filtergraph level, so ':' and quotes must be handled here.
var optionEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)

func escapeOption(v string) string {
	return optionEscaper.Replace(v)
}
