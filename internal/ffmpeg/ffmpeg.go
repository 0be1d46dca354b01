package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/ZacxDev/reel-composer/internal/failure"
)

// MediaMetadata contains metadata about an audio or video file
type MediaMetadata struct {
	Duration float64
	Codec    string
	HasVideo bool
	HasAudio bool
}

// CheckTools verifies that each binary resolves and answers -version.
// It is best effort: a tool that passes may still fail on a given input.
func CheckTools(ctx context.Context, binaries ...string) error {
	for _, bin := range binaries {
		path, err := exec.LookPath(bin)
		if err != nil {
			return failure.Wrap(err, failure.KindEnvironment, "ffmpeg.check",
				fmt.Sprintf("%s is not installed or not on PATH", bin))
		}
		var stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, path, "-version")
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return failure.Wrap(err, failure.KindEnvironment, "ffmpeg.check",
				fmt.Sprintf("%s -version failed: %s", bin, lastLines(stderr.String(), 3)))
		}
	}
	return nil
}

// Prober reads media durations with ffprobe.
type Prober struct{}

func (Prober) Duration(path string) (float64, error) {
	meta, err := GetMediaMetadata(path)
	if err != nil {
		return 0, err
	}
	return meta.Duration, nil
}

// GetMediaMetadata retrieves metadata about a media file
func GetMediaMetadata(inputPath string) (*MediaMetadata, error) {
	probe, err := ffmpeg.Probe(inputPath)
	if err != nil {
		return nil, failure.Wrap(err, failure.KindAsset, "ffmpeg.probe", "error probing media")
	}
	return parseProbe(probe)
}

func parseProbe(probe string) (*MediaMetadata, error) {
	var data struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			Duration   string `json:"duration"`
			NbFrames   string `json:"nb_frames"`
			RFrameRate string `json:"r_frame_rate"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(probe), &data); err != nil {
		return nil, failure.Wrap(errors.WithStack(err), failure.KindAsset, "ffmpeg.probe", "unreadable probe output")
	}
	if len(data.Streams) == 0 {
		return nil, failure.New(failure.KindAsset, "ffmpeg.probe", "no streams found in media")
	}

	meta := &MediaMetadata{}
	var duration float64
	for _, s := range data.Streams {
		switch s.CodecType {
		case "video":
			meta.HasVideo = true
		case "audio":
			meta.HasAudio = true
		default:
			continue
		}
		if meta.Codec == "" {
			meta.Codec = s.CodecName
		}

		// First try stream duration
		if d := parseSeconds(s.Duration); d > duration {
			duration = d
		}

		// Then frames over frame rate
		if duration == 0 {
			frames := parseSeconds(s.NbFrames)
			if rate := parseRate(s.RFrameRate); frames > 0 && rate > 0 {
				duration = frames / rate
			}
		}
	}

	// Container duration wins when streams do not report one
	if duration == 0 {
		duration = parseSeconds(data.Format.Duration)
	}
	if duration == 0 {
		return nil, failure.New(failure.KindAsset, "ffmpeg.probe", "could not determine media duration")
	}
	meta.Duration = duration
	return meta, nil
}

func parseSeconds(s string) float64 {
	d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(d) || d < 0 {
		return 0
	}
	return d
}

func parseRate(s string) float64 {
	nums := strings.Split(s, "/")
	if len(nums) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(nums[0], 64)
	den, err2 := strconv.ParseFloat(nums[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

func GetOptimalThreadCount() int {
	cpuCount := runtime.NumCPU()
	// Use 75% of available cores to prevent overload
	return int(math.Max(1, float64(cpuCount)*0.75))
}

// formatFloat renders a number for ffmpeg without float noise.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// EnsureExtension replaces any video extension on filename with extension.
func EnsureExtension(filename, extension string) string {
	extensions := []string{".mp4", ".webm", ".mkv", ".avi", ".mov"}
	for _, ext := range extensions {
		filename = strings.TrimSuffix(filename, ext)
	}
	return filename + extension
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
