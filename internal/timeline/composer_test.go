package timeline

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ZacxDev/reel-composer/internal/failure"
	"github.com/ZacxDev/reel-composer/pkg/types"
)

func testAssets() Assets {
	return Assets{
		Watermark: MediaAsset{Kind: AssetWatermark, Path: "watermark.png", Width: 600, Height: 300},
		Backdrop:  MediaAsset{Kind: AssetBackdrop, Path: "backdrop.png", Width: 720, Height: 1280},
		Font:      MediaAsset{Kind: AssetFont, Path: "Benedict.otf"},
	}
}

func squareImage() MediaAsset {
	return MediaAsset{Kind: AssetImage, Path: "input_image.png", Width: 300, Height: 300}
}

func audioOf(seconds float64) MediaAsset {
	return MediaAsset{Kind: AssetAudio, Path: "youtube_audio.mp3", Duration: seconds}
}

func newTestComposer(t *testing.T, recipe Recipe) *Composer {
	t.Helper()
	c, err := NewComposer(recipe, testAssets())
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}
	return c
}

func TestComposeSquareImage(t *testing.T) {
	c := newTestComposer(t, DefaultRecipe())

	tl, err := c.Compose(squareImage(), "Hello", audioOf(30), OffsetSeconds(0, 5))
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if len(tl.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(tl.Pages))
	}
	if tl.Duration() != 14 {
		t.Errorf("expected 14s video, got %.2fs", tl.Duration())
	}
	if tl.Audio.Offset != 5 || tl.Audio.Length != 14 {
		t.Errorf("expected audio window [5,19], got [%.2f,%.2f]", tl.Audio.Offset, tl.Audio.Offset+tl.Audio.Length)
	}
	if tl.Audio.Gain != 0.5 {
		t.Errorf("expected gain 0.5, got %.2f", tl.Audio.Gain)
	}

	image, caption := tl.Pages[0], tl.Pages[1]
	if image.Name != PageImage || caption.Name != PageCaption {
		t.Errorf("unexpected page order: %s, %s", image.Name, caption.Name)
	}
	if image.Duration != 9 || image.FPS != 1 || image.FadeOut != 1 || image.FadeIn != 0 {
		t.Errorf("unexpected image page: %+v", image)
	}
	if caption.Duration != 5 || caption.FPS != 24 || caption.FadeIn != 1 || caption.FadeOut != 0 {
		t.Errorf("unexpected caption page: %+v", caption)
	}
	if got := caption.Caption(); got == nil || got.Content != "Hello" {
		t.Errorf("expected caption layer with Hello, got %+v", got)
	}
}

func TestPageDurationsMatchAudio(t *testing.T) {
	c := newTestComposer(t, DefaultRecipe())

	for _, offset := range []float64{0, 1, 7.5, 16} {
		tl, err := c.Compose(squareImage(), "x", audioOf(30), offset)
		if err != nil {
			t.Fatalf("Compose(offset=%v): %v", offset, err)
		}
		if tl.Pages[0].Duration+tl.Pages[1].Duration != tl.Audio.Length {
			t.Errorf("offset %v: pages %.2f+%.2f != audio %.2f",
				offset, tl.Pages[0].Duration, tl.Pages[1].Duration, tl.Audio.Length)
		}
	}
}

func TestTransitionFitsAdjacentPages(t *testing.T) {
	c := newTestComposer(t, DefaultRecipe())

	tl, err := c.Compose(squareImage(), "x", audioOf(30), 0)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	for _, tr := range tl.Transitions {
		a, b := tl.Pages[tr.From], tl.Pages[tr.From+1]
		if tr.Duration > a.Duration || tr.Duration > b.Duration {
			t.Errorf("transition %.2fs longer than pages %.2fs/%.2fs", tr.Duration, a.Duration, b.Duration)
		}
	}
}

func TestComposeOffsetOutOfRange(t *testing.T) {
	c := newTestComposer(t, DefaultRecipe())

	tests := []struct {
		name     string
		offset   float64
		duration float64
	}{
		{"one minute into a ten second track", OffsetSeconds(1, 0), 10},
		{"window runs past the end", 17, 30},
		{"negative offset", OffsetSeconds(0, -1), 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compose(squareImage(), "x", audioOf(tt.duration), tt.offset)
			if !errors.Is(err, failure.Range) {
				t.Errorf("expected range failure, got %v", err)
			}
		})
	}
}

func TestComposeWindowEndingAtSourceEnd(t *testing.T) {
	c := newTestComposer(t, DefaultRecipe())

	if _, err := c.Compose(squareImage(), "x", audioOf(30), 16); err != nil {
		t.Errorf("window [16,30] on a 30s source should be accepted: %v", err)
	}
}

func TestComposeAssetErrors(t *testing.T) {
	c := newTestComposer(t, DefaultRecipe())

	tests := []struct {
		name  string
		image MediaAsset
		audio MediaAsset
	}{
		{"missing image", MediaAsset{}, audioOf(30)},
		{"undecodable image", MediaAsset{Path: "broken.png"}, audioOf(30)},
		{"unknown audio duration", squareImage(), audioOf(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compose(tt.image, "x", tt.audio, 0)
			if !errors.Is(err, failure.Asset) {
				t.Errorf("expected asset failure, got %v", err)
			}
		})
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	c := newTestComposer(t, DefaultRecipe())

	first, err := c.Compose(squareImage(), "Hello", audioOf(30), 5)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	second, err := c.Compose(squareImage(), "Hello", audioOf(30), 5)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical timelines for identical inputs")
	}
}

func TestWatermarkHeightIsFixed(t *testing.T) {
	tests := []struct {
		name      string
		w, h      int
		wantWidth int
	}{
		{"wide", 600, 300, 428},
		{"tall", 100, 400, 53},
		{"already sized", 500, 214, 500},
		{"tiny", 10, 10, 214},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assets := testAssets()
			assets.Watermark.Width, assets.Watermark.Height = tt.w, tt.h
			c, err := NewComposer(DefaultRecipe(), assets)
			if err != nil {
				t.Fatalf("NewComposer: %v", err)
			}

			tl, err := c.Compose(squareImage(), "x", audioOf(30), 0)
			if err != nil {
				t.Fatalf("Compose: %v", err)
			}
			box := tl.Pages[0].Layers[1].Box
			if box.H != 214 {
				t.Errorf("expected watermark height 214, got %d", box.H)
			}
			if box.W != tt.wantWidth {
				t.Errorf("expected watermark width %d, got %d", tt.wantWidth, box.W)
			}
			if box.X != 0 || box.Y != 0 {
				t.Errorf("expected watermark anchored top-left, got (%d,%d)", box.X, box.Y)
			}
		})
	}
}

func TestCanvasIsFixedRegardlessOfImage(t *testing.T) {
	c := newTestComposer(t, DefaultRecipe())

	for _, img := range []MediaAsset{
		{Path: "wide.png", Width: 1920, Height: 1080},
		{Path: "square.png", Width: 300, Height: 300},
		{Path: "tall.png", Width: 100, Height: 4000},
	} {
		tl, err := c.Compose(img, "x", audioOf(30), 0)
		if err != nil {
			t.Fatalf("Compose(%s): %v", img.Path, err)
		}
		for _, p := range tl.Pages {
			if p.Canvas != (Size{Width: 1080, Height: 1920}) {
				t.Errorf("%s: page %s canvas %+v", img.Path, p.Name, p.Canvas)
			}
		}
		if base := tl.Pages[0].Layers[0].Box; base != (Rect{W: 1080, H: 1920}) {
			t.Errorf("%s: base layer not stretched to canvas: %+v", img.Path, base)
		}
	}
}

func TestCaptionPlacement(t *testing.T) {
	tests := []struct {
		placement types.CaptionPlacement
		want      float64
	}{
		{types.CaptionPlacementCenterOffset, 250},
		{types.CaptionPlacementFixedY, 647.2},
	}

	for _, tt := range tests {
		t.Run(string(tt.placement), func(t *testing.T) {
			recipe := DefaultRecipe()
			recipe.CaptionPlacement = tt.placement
			c := newTestComposer(t, recipe)

			tl, err := c.Compose(squareImage(), "x", audioOf(30), 0)
			if err != nil {
				t.Fatalf("Compose: %v", err)
			}
			spec := tl.Pages[1].Caption()
			if spec.Placement != tt.placement || spec.OffsetY != tt.want {
				t.Errorf("expected %s at %.1f, got %s at %.1f", tt.placement, tt.want, spec.Placement, spec.OffsetY)
			}
		})
	}
}

func TestRecipeValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Recipe)
	}{
		{"pages no longer cover audio", func(r *Recipe) { r.PageDuration = 8 }},
		{"crossfade longer than caption page", func(r *Recipe) { r.TransitionDuration = 12 }},
		{"balance eats caption page", func(r *Recipe) { r.Balance = 7; r.AudioLength = 14 }},
		{"zero fps", func(r *Recipe) { r.CaptionPageFPS = 0 }},
		{"unknown placement", func(r *Recipe) { r.CaptionPlacement = "bottom" }},
	}

	if err := DefaultRecipe().Validate(); err != nil {
		t.Fatalf("default recipe must be valid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRecipe()
			tt.mutate(&r)
			if err := r.Validate(); err == nil {
				t.Error("expected validation error")
			}
			if _, err := NewComposer(r, testAssets()); err == nil {
				t.Error("expected NewComposer to reject the recipe")
			}
		})
	}
}

func TestNewComposerRejectsMissingAssets(t *testing.T) {
	assets := testAssets()
	assets.Backdrop = MediaAsset{}

	_, err := NewComposer(DefaultRecipe(), assets)
	if !errors.Is(err, failure.Asset) {
		t.Errorf("expected asset failure, got %v", err)
	}
}
