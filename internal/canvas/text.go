package canvas

import (
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/ZacxDev/reel-composer/internal/failure"
	"github.com/ZacxDev/reel-composer/internal/timeline"
	"github.com/ZacxDev/reel-composer/pkg/types"
)

// lineSpacing is the baseline-to-baseline distance in font heights.
const lineSpacing = 1.2

// RenderText rasterizes spec on a transparent canvas of the given size,
// horizontally centered and placed vertically per spec.Placement. Each line
// of a multi-line caption is centered on its own.
func RenderText(spec timeline.TextSpec, size timeline.Size) (*image.NRGBA, error) {
	dc := gg.NewContext(size.Width, size.Height)

	if err := dc.LoadFontFace(spec.Font.Path, spec.Size); err != nil {
		return nil, failure.Wrap(err, failure.KindAsset, "canvas.text", "failed to load font")
	}
	c, err := ParseColor(spec.Color)
	if err != nil {
		return nil, err
	}
	dc.SetColor(c)

	content := strings.ReplaceAll(spec.Content, "\r\n", "\n")
	_, h := dc.MeasureMultilineString(content, lineSpacing)
	top := CaptionTop(spec, size.Height, h)
	for i, line := range strings.Split(content, "\n") {
		y := top + float64(i)*dc.FontHeight()*lineSpacing
		dc.DrawStringAnchored(line, float64(size.Width)/2, y, 0.5, 1)
	}

	return imaging.Clone(dc.Image()), nil
}

// CaptionTop is the y coordinate of the top of a text block of height textHeight.
func CaptionTop(spec timeline.TextSpec, canvasHeight int, textHeight float64) float64 {
	if spec.Placement == types.CaptionPlacementFixedY {
		return spec.OffsetY
	}
	return (float64(canvasHeight)-textHeight)/2 - spec.OffsetY
}

// CheckFont reports whether path holds a font the rasterizer can load.
func CheckFont(path string, points float64) error {
	if _, err := gg.LoadFontFace(path, points); err != nil {
		return failure.Wrap(err, failure.KindAsset, "canvas.font", "failed to load font "+path)
	}
	return nil
}
