package types

type OutputProfile string

const (
	OutputProfileShorts        OutputProfile = "shorts"
	OutputProfileTikTok        OutputProfile = "tiktok"
	OutputProfileInstagramReel OutputProfile = "instagram-reel"
)

// CaptionPlacement selects how the caption block is positioned vertically.
type CaptionPlacement string

const (
	// CaptionPlacementCenterOffset centers the block, then raises it by a fixed offset.
	CaptionPlacementCenterOffset CaptionPlacement = "center-offset"
	// CaptionPlacementFixedY puts the top of the block at a fixed coordinate.
	CaptionPlacementFixedY CaptionPlacement = "fixed-y"
)

// CaptionMode selects who draws the caption.
type CaptionMode string

const (
	CaptionModeRaster   CaptionMode = "raster"   // rasterized into the page frame
	CaptionModeDrawtext CaptionMode = "drawtext" // drawn by ffmpeg's drawtext filter
)
