package timeline

import "github.com/ZacxDev/reel-composer/pkg/types"

// AssetKind tells what a MediaAsset is used for.
type AssetKind string

const (
	AssetImage     AssetKind = "image"
	AssetWatermark AssetKind = "watermark"
	AssetBackdrop  AssetKind = "backdrop"
	AssetFont      AssetKind = "font"
	AssetAudio     AssetKind = "audio"
)

// MediaAsset references an external resource by path together with the
// facts the composer needs about it. Width/Height are set for rasters,
// Duration (seconds) for audio.
type MediaAsset struct {
	Kind     AssetKind `json:"kind"`
	Path     string    `json:"path"`
	Width    int       `json:"width,omitempty"`
	Height   int       `json:"height,omitempty"`
	Duration float64   `json:"duration,omitempty"`
}

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect is a destination box on the canvas.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// TextSpec describes a caption to rasterize or draw.
type TextSpec struct {
	Content   string                 `json:"content"`
	Font      MediaAsset             `json:"font"`
	Size      float64                `json:"size"`
	Color     string                 `json:"color"`
	Placement types.CaptionPlacement `json:"placement"`
	// OffsetY is the upward shift for center-offset placement and the
	// absolute top coordinate for fixed-y placement.
	OffsetY float64 `json:"offset_y"`
}

// Layer is either an image stretched into Box or a text overlay.
type Layer struct {
	Name  string      `json:"name"`
	Asset *MediaAsset `json:"asset,omitempty"`
	Box   Rect        `json:"box"`
	Text  *TextSpec   `json:"text,omitempty"`
}

func (l Layer) IsText() bool { return l.Text != nil }

// Page is one segment of the output. Layers paint bottom to top.
type Page struct {
	Name     string  `json:"name"`
	Canvas   Size    `json:"canvas"`
	Layers   []Layer `json:"layers"`
	Duration float64 `json:"duration"`
	FPS      int     `json:"fps"`
	FadeIn   float64 `json:"fade_in,omitempty"`
	FadeOut  float64 `json:"fade_out,omitempty"`
}

// Caption returns the page's text layer, if any.
func (p Page) Caption() *TextSpec {
	for _, l := range p.Layers {
		if l.Text != nil {
			return l.Text
		}
	}
	return nil
}

// Transition joins Pages[From] and Pages[From+1]. Duration is applied as a
// fade-out on the outgoing tail and a fade-in on the incoming head.
type Transition struct {
	Kind     string  `json:"kind"`
	From     int     `json:"from"`
	Duration float64 `json:"duration"`
}

// AudioSegment is the [Offset, Offset+Length] window of Source.
type AudioSegment struct {
	Source MediaAsset `json:"source"`
	Offset float64    `json:"offset"`
	Length float64    `json:"length"`
	Gain   float64    `json:"gain"`
}

type Timeline struct {
	Canvas      Size         `json:"canvas"`
	Pages       []Page       `json:"pages"`
	Transitions []Transition `json:"transitions"`
	Audio       AudioSegment `json:"audio"`
}

// Duration is the summed length of all pages.
func (t *Timeline) Duration() float64 {
	var d float64
	for _, p := range t.Pages {
		d += p.Duration
	}
	return d
}

// Encoding holds output encoder parameters.
type Encoding struct {
	FPS          int    `json:"fps"`
	VideoCodec   string `json:"video_codec"`
	AudioCodec   string `json:"audio_codec"`
	Preset       string `json:"preset,omitempty"`
	CRF          int    `json:"crf,omitempty"`
	VideoBitrate string `json:"video_bitrate,omitempty"`
	AudioBitrate string `json:"audio_bitrate,omitempty"`
	Threads      int    `json:"threads,omitempty"`
	Format       string `json:"format"`
}

// RenderJob is consumed once by the rendering backend.
type RenderJob struct {
	Timeline   *Timeline `json:"timeline"`
	Encoding   Encoding  `json:"encoding"`
	OutputPath string    `json:"output_path"`
}
