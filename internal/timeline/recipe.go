package timeline

import (
	"fmt"
	"math"

	"github.com/ZacxDev/reel-composer/pkg/types"
)

// Recipe holds the fixed timing and layout constants of the two-page reel.
type Recipe struct {
	Canvas Size

	PageDuration       float64
	Balance            float64
	TransitionDuration float64

	ImagePageFPS   int
	CaptionPageFPS int

	WatermarkHeight int

	CaptionSize      float64
	CaptionColor     string
	CaptionPlacement types.CaptionPlacement
	CaptionOffset    float64 // raise for center-offset
	CaptionTop       float64 // top for fixed-y

	AudioLength float64
	AudioGain   float64
}

// DefaultRecipe: 9s image page, 5s caption page, 1s fades, 14s of audio at half gain.
func DefaultRecipe() Recipe {
	return Recipe{
		Canvas:             Size{Width: 1080, Height: 1920},
		PageDuration:       7,
		Balance:            2,
		TransitionDuration: 2,
		ImagePageFPS:       1,
		CaptionPageFPS:     24,
		WatermarkHeight:    214,
		CaptionSize:        150,
		CaptionColor:       "black",
		CaptionPlacement:   types.CaptionPlacementCenterOffset,
		CaptionOffset:      250,
		CaptionTop:         647.2,
		AudioLength:        14,
		AudioGain:          0.5,
	}
}

func (r Recipe) ImagePageDuration() float64   { return r.PageDuration + r.Balance }
func (r Recipe) CaptionPageDuration() float64 { return r.PageDuration - r.Balance }

// Crossfade is the fade length applied on each side of the page boundary.
func (r Recipe) Crossfade() float64 { return r.TransitionDuration / 2 }

// Validate checks the recipe invariants: positive page durations, the fade
// fits in both pages and the pages exactly cover the audio window.
func (r Recipe) Validate() error {
	if r.Canvas.Width <= 0 || r.Canvas.Height <= 0 {
		return fmt.Errorf("canvas must be positive, got %dx%d", r.Canvas.Width, r.Canvas.Height)
	}
	a, b := r.ImagePageDuration(), r.CaptionPageDuration()
	if a <= 0 || b <= 0 {
		return fmt.Errorf("page durations must be positive, got %.2fs and %.2fs", a, b)
	}
	if r.Crossfade() < 0 || r.Crossfade() > math.Min(a, b) {
		return fmt.Errorf("crossfade %.2fs does not fit pages of %.2fs and %.2fs", r.Crossfade(), a, b)
	}
	if math.Abs(a+b-r.AudioLength) > 1e-9 {
		return fmt.Errorf("pages cover %.2fs but the audio window is %.2fs", a+b, r.AudioLength)
	}
	if r.ImagePageFPS <= 0 || r.CaptionPageFPS <= 0 {
		return fmt.Errorf("page frame rates must be positive")
	}
	if r.WatermarkHeight <= 0 {
		return fmt.Errorf("watermark height must be positive")
	}
	if r.AudioGain < 0 {
		return fmt.Errorf("audio gain must not be negative")
	}
	switch r.CaptionPlacement {
	case types.CaptionPlacementCenterOffset, types.CaptionPlacementFixedY:
	default:
		return fmt.Errorf("unknown caption placement %q", r.CaptionPlacement)
	}
	return nil
}
