package platform

import "github.com/ZacxDev/reel-composer/pkg/types"

type TikTok struct{}

func init() {
	Register(&TikTok{})
}

func (p *TikTok) GetName() string {
	return string(types.OutputProfileTikTok)
}

func (p *TikTok) GetDimensions() (width, height int) {
	return 1080, 1920
}

func (p *TikTok) GetFrameRate() int {
	return 30
}

func (p *TikTok) GetMaxDuration() int {
	return 180
}

func (p *TikTok) GetVideoCodec() string {
	return "libx264" // H.264 for better compatibility
}

func (p *TikTok) GetAudioCodec() string {
	return "aac"
}

func (p *TikTok) GetPreset() string {
	return "medium"
}

func (p *TikTok) GetCRF() int {
	return 23
}

func (p *TikTok) GetVideoBitrate() string {
	return "2M"
}

func (p *TikTok) GetAudioBitrate() string {
	return "128k"
}

func (p *TikTok) GetOutputFormat() string {
	return "mp4"
}
