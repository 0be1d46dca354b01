package platform

import "github.com/ZacxDev/reel-composer/pkg/types"

type InstagramReel struct{}

func init() {
	Register(&InstagramReel{})
}

func (p *InstagramReel) GetName() string {
	return string(types.OutputProfileInstagramReel)
}

func (p *InstagramReel) GetDimensions() (width, height int) {
	return 1080, 1920
}

func (p *InstagramReel) GetFrameRate() int {
	return 30
}

func (p *InstagramReel) GetMaxDuration() int {
	return 90
}

func (p *InstagramReel) GetVideoCodec() string {
	return "libx264"
}

func (p *InstagramReel) GetAudioCodec() string {
	return "aac"
}

func (p *InstagramReel) GetPreset() string {
	return "medium"
}

func (p *InstagramReel) GetCRF() int {
	return 23
}

func (p *InstagramReel) GetVideoBitrate() string {
	return "3500k"
}

func (p *InstagramReel) GetAudioBitrate() string {
	return "128k"
}

func (p *InstagramReel) GetOutputFormat() string {
	return "mp4"
}
