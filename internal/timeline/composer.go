// Package timeline assembles the two-page reel: which layers each page
// holds, how long it lasts, how pages are joined and which slice of the
// source audio plays under them. It performs no I/O.
package timeline

import (
	"github.com/ZacxDev/reel-composer/internal/failure"
	"github.com/ZacxDev/reel-composer/pkg/types"
)

const (
	PageImage   = "image"
	PageCaption = "caption"

	TransitionCrossfade = "crossfade"
)

// Assets are the static resources shared by every request.
type Assets struct {
	Watermark MediaAsset
	Backdrop  MediaAsset
	Font      MediaAsset
}

// Composer turns request inputs into a Timeline following a Recipe.
type Composer struct {
	recipe Recipe
	assets Assets
}

// NewComposer validates the recipe and the static assets.
func NewComposer(recipe Recipe, assets Assets) (*Composer, error) {
	if err := recipe.Validate(); err != nil {
		return nil, failure.Wrap(err, failure.KindInput, "timeline.recipe", "invalid recipe")
	}
	if err := checkRaster(assets.Watermark, "watermark"); err != nil {
		return nil, err
	}
	if err := checkRaster(assets.Backdrop, "backdrop"); err != nil {
		return nil, err
	}
	if assets.Font.Path == "" {
		return nil, failure.New(failure.KindAsset, "timeline.assets", "font path is empty")
	}
	return &Composer{recipe: recipe, assets: assets}, nil
}

func (c *Composer) Recipe() Recipe { return c.recipe }

// OffsetSeconds converts the minutes/seconds form fields to seconds.
func OffsetSeconds(mm, ss int) float64 {
	return float64(mm*60 + ss)
}

// Compose builds the Timeline for one request.
func (c *Composer) Compose(image MediaAsset, caption string, audio MediaAsset, offset float64) (*Timeline, error) {
	if err := checkRaster(image, "image"); err != nil {
		return nil, err
	}
	if audio.Path == "" || audio.Duration <= 0 {
		return nil, failure.New(failure.KindAsset, "timeline.compose", "audio duration is unknown for %q", audio.Path)
	}
	if err := c.checkOffset(offset, audio.Duration); err != nil {
		return nil, err
	}

	r := c.recipe
	fade := r.Crossfade()

	imagePage := Page{
		Name:     PageImage,
		Canvas:   r.Canvas,
		Duration: r.ImagePageDuration(),
		FPS:      r.ImagePageFPS,
		FadeOut:  fade,
		Layers: []Layer{
			{Name: "base", Asset: assetRef(image), Box: c.fullCanvas()},
			{Name: "watermark", Asset: assetRef(c.assets.Watermark), Box: c.watermarkBox()},
		},
	}

	captionPage := Page{
		Name:     PageCaption,
		Canvas:   r.Canvas,
		Duration: r.CaptionPageDuration(),
		FPS:      r.CaptionPageFPS,
		FadeIn:   fade,
		Layers: []Layer{
			{Name: "backdrop", Asset: assetRef(c.assets.Backdrop), Box: c.fullCanvas()},
			{Name: "caption", Box: c.fullCanvas(), Text: c.captionSpec(caption)},
		},
	}

	return &Timeline{
		Canvas:      r.Canvas,
		Pages:       []Page{imagePage, captionPage},
		Transitions: []Transition{{Kind: TransitionCrossfade, From: 0, Duration: fade}},
		Audio: AudioSegment{
			Source: audio,
			Offset: offset,
			Length: r.AudioLength,
			Gain:   r.AudioGain,
		},
	}, nil
}

// Job materializes a RenderJob for tl.
func (c *Composer) Job(tl *Timeline, enc Encoding, outputPath string) RenderJob {
	return RenderJob{Timeline: tl, Encoding: enc, OutputPath: outputPath}
}

func (c *Composer) checkOffset(offset, sourceDuration float64) error {
	if offset < 0 {
		return failure.New(failure.KindRange, "timeline.compose", "audio offset %.2fs is negative", offset)
	}
	if end := offset + c.recipe.AudioLength; end > sourceDuration {
		return failure.New(failure.KindRange, "timeline.compose",
			"audio window [%.2fs, %.2fs] exceeds source duration %.2fs", offset, end, sourceDuration)
	}
	return nil
}

func (c *Composer) fullCanvas() Rect {
	return Rect{W: c.recipe.Canvas.Width, H: c.recipe.Canvas.Height}
}

// watermarkBox scales the watermark to the recipe height, keeping its
// aspect ratio, anchored top-left.
func (c *Composer) watermarkBox() Rect {
	wm := c.assets.Watermark
	h := c.recipe.WatermarkHeight
	return Rect{W: int(float64(wm.Width*h) / float64(wm.Height)), H: h}
}

func (c *Composer) captionSpec(caption string) *TextSpec {
	r := c.recipe
	spec := &TextSpec{
		Content:   caption,
		Font:      c.assets.Font,
		Size:      r.CaptionSize,
		Color:     r.CaptionColor,
		Placement: r.CaptionPlacement,
	}
	switch r.CaptionPlacement {
	case types.CaptionPlacementFixedY:
		spec.OffsetY = r.CaptionTop
	default:
		spec.OffsetY = r.CaptionOffset
	}
	return spec
}

func assetRef(a MediaAsset) *MediaAsset {
	return &a
}

func checkRaster(a MediaAsset, name string) error {
	if a.Path == "" {
		return failure.New(failure.KindAsset, "timeline.compose", "%s is missing", name)
	}
	if a.Width <= 0 || a.Height <= 0 {
		return failure.New(failure.KindAsset, "timeline.compose", "%s %q has no decodable size", name, a.Path)
	}
	return nil
}
