package platform

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/ZacxDev/reel-composer/internal/timeline"
)

// Platform defines the encoding profile of a vertical reel destination
type Platform interface {
	// GetName returns the profile name
	GetName() string

	// GetDimensions returns the output canvas
	GetDimensions() (width, height int)

	// GetFrameRate returns the output frame rate
	GetFrameRate() int

	// GetMaxDuration returns the maximum allowed video duration in seconds
	GetMaxDuration() int

	// GetVideoCodec returns the preferred video codec
	GetVideoCodec() string

	// GetAudioCodec returns the preferred audio codec
	GetAudioCodec() string

	// GetPreset returns the encoder speed preset
	GetPreset() string

	// GetCRF returns the constant rate factor, 0 to leave it to the encoder
	GetCRF() int

	// GetVideoBitrate returns the target video bitrate
	GetVideoBitrate() string

	// GetAudioBitrate returns the target audio bitrate
	GetAudioBitrate() string

	// GetOutputFormat returns the container (e.g., "mp4")
	GetOutputFormat() string
}

var platforms = make(map[string]Platform)

// Register adds a platform to the registry
func Register(p Platform) {
	platforms[p.GetName()] = p
}

// Get returns a platform by name
func Get(name string) (Platform, error) {
	p, ok := platforms[name]
	if !ok {
		return nil, fmt.Errorf("unsupported profile: %s", name)
	}
	return p, nil
}

// GetSupportedProfiles returns the registered profile names, sorted
func GetSupportedProfiles() []string {
	names := make([]string, 0, len(platforms))
	for name := range platforms {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// EncodingFor converts a profile into encoder parameters.
func EncodingFor(p Platform) timeline.Encoding {
	return timeline.Encoding{
		FPS:          p.GetFrameRate(),
		VideoCodec:   p.GetVideoCodec(),
		AudioCodec:   p.GetAudioCodec(),
		Preset:       p.GetPreset(),
		CRF:          p.GetCRF(),
		VideoBitrate: p.GetVideoBitrate(),
		AudioBitrate: p.GetAudioBitrate(),
		Format:       p.GetOutputFormat(),
	}
}

// Fits reports whether tl can be delivered with p.
func Fits(p Platform, tl *timeline.Timeline) error {
	w, h := p.GetDimensions()
	if tl.Canvas.Width != w || tl.Canvas.Height != h {
		return fmt.Errorf("profile %s renders %dx%d, timeline is %dx%d",
			p.GetName(), w, h, tl.Canvas.Width, tl.Canvas.Height)
	}
	if d := tl.Duration(); d > float64(p.GetMaxDuration()) {
		return fmt.Errorf("timeline of %.2fs exceeds %s maximum of %ds", d, p.GetName(), p.GetMaxDuration())
	}
	return nil
}
