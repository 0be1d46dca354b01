// Package canvas decodes, resizes and flattens the raster layers of a page.
package canvas

import (
	"image"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/colornames"

	"github.com/ZacxDev/reel-composer/internal/failure"
	"github.com/ZacxDev/reel-composer/internal/timeline"
)

// Options controls page flattening.
type Options struct {
	// SkipText leaves text layers out of the frame; the encoder draws them.
	SkipText bool
}

// Decode reads an uploaded image. Anything imaging cannot decode is an asset failure.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, failure.Wrap(err, failure.KindAsset, "canvas.decode", "failed to decode image")
	}
	return img, nil
}

// Import decodes an upload and stores it as PNG at path.
func Import(r io.Reader, path string) (timeline.MediaAsset, error) {
	img, err := Decode(r)
	if err != nil {
		return timeline.MediaAsset{}, err
	}
	if err := SavePNG(img, path); err != nil {
		return timeline.MediaAsset{}, err
	}
	b := img.Bounds()
	return timeline.MediaAsset{
		Kind:   timeline.AssetImage,
		Path:   path,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// Probe returns a static raster asset with its pixel size filled in.
func Probe(kind timeline.AssetKind, path string) (timeline.MediaAsset, error) {
	f, err := os.Open(path)
	if err != nil {
		return timeline.MediaAsset{}, failure.Wrap(err, failure.KindAsset, "canvas.probe", "failed to open "+string(kind))
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return timeline.MediaAsset{}, failure.Wrap(err, failure.KindAsset, "canvas.probe", "failed to decode "+string(kind))
	}
	return timeline.MediaAsset{Kind: kind, Path: path, Width: cfg.Width, Height: cfg.Height}, nil
}

// Flatten paints the layers of page, bottom first, onto an opaque canvas.
// Image layers are stretched to their box; aspect ratio is not kept.
func Flatten(page timeline.Page, opts Options) (*image.NRGBA, error) {
	dst := imaging.New(page.Canvas.Width, page.Canvas.Height, color.Black)

	for _, layer := range page.Layers {
		if layer.IsText() {
			if opts.SkipText {
				continue
			}
			overlay, err := RenderText(*layer.Text, page.Canvas)
			if err != nil {
				return nil, err
			}
			dst = imaging.Overlay(dst, overlay, image.Pt(layer.Box.X, layer.Box.Y), 1.0)
			continue
		}

		if layer.Asset == nil {
			return nil, failure.New(failure.KindAsset, "canvas.flatten", "layer %s has no asset", layer.Name)
		}
		src, err := imaging.Open(layer.Asset.Path, imaging.AutoOrientation(true))
		if err != nil {
			return nil, failure.Wrap(err, failure.KindAsset, "canvas.flatten", "failed to open layer "+layer.Name)
		}
		fitted := imaging.Resize(src, layer.Box.W, layer.Box.H, imaging.Lanczos)
		dst = imaging.Overlay(dst, fitted, image.Pt(layer.Box.X, layer.Box.Y), 1.0)
	}

	return dst, nil
}

// SavePNG writes img to path.
func SavePNG(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return failure.Wrap(err, failure.KindIO, "canvas.save", "failed to save "+path)
	}
	return nil
}

// ParseColor accepts SVG color names ("black") and #rgb / #rrggbb hex.
func ParseColor(s string) (color.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil && len(hex) == 6 {
			return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
		}
	}
	return nil, failure.New(failure.KindInput, "canvas.color", "unknown color %q", s)
}
