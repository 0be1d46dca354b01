package platform

import "github.com/ZacxDev/reel-composer/pkg/types"

// Shorts is the default profile: small, fast encodes for 14s reels.
type Shorts struct{}

func init() {
	Register(&Shorts{})
}

func (p *Shorts) GetName() string {
	return string(types.OutputProfileShorts)
}

func (p *Shorts) GetDimensions() (width, height int) {
	return 1080, 1920
}

func (p *Shorts) GetFrameRate() int {
	return 24
}

func (p *Shorts) GetMaxDuration() int {
	return 60
}

func (p *Shorts) GetVideoCodec() string {
	return "libx264"
}

func (p *Shorts) GetAudioCodec() string {
	return "aac"
}

func (p *Shorts) GetPreset() string {
	return "ultrafast"
}

func (p *Shorts) GetCRF() int {
	return 28
}

func (p *Shorts) GetVideoBitrate() string {
	return "500k"
}

func (p *Shorts) GetAudioBitrate() string {
	return ""
}

func (p *Shorts) GetOutputFormat() string {
	return "mp4"
}
