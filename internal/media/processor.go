// Package media provides image and video processing capabilities.
package media

import "context"

// DefaultFPS is the frame rate of rendered clips and videos.
const DefaultFPS = 30

// Slide is one entry of a slideshow.
type Slide struct {
	// Path is a fitted still image or a pre-rendered effect clip.
	Path string
	// Duration is how long the slide is shown, in seconds.
	Duration float64
	// Clip is true when Path is a video clip rather than a still.
	Clip bool
}

// SlideshowSpec is everything needed for the final rendering pass.
type SlideshowSpec struct {
	Slides        []Slide
	AudioPath     string
	SubtitlesPath string
	Output        string
	Width         int
	Height        int
	FPS           int
}

// Processor defines the interface for image and video processing operations.
// Implementations should use ffmpeg or similar tools for media manipulation.
type Processor interface {
	// FitImage writes src resized to exactly w x h at dst using the
	// stretch, crop or pad policy of FitModeFor.
	FitImage(ctx context.Context, src, dst string, w, h int) error

	// RenderEffectClip turns a still into a clip of the given duration with
	// effect applied over time.
	RenderEffectClip(ctx context.Context, src, dst string, effect Effect, duration float64, w, h int) error

	// RenderSlideshow concatenates slides, muxes the narration and burns in
	// subtitles in a single pass.
	RenderSlideshow(ctx context.Context, spec SlideshowSpec) error

	// ExtractFrame writes the first frame of a video as an image.
	ExtractFrame(ctx context.Context, videoPath, dst string) error

	// RenderPlaceholder writes a w x h image showing text.
	RenderPlaceholder(ctx context.Context, dst, text string, w, h int) error

	// ImageSize returns the pixel dimensions of an image.
	ImageSize(ctx context.Context, path string) (int, int, error)

	// Duration returns the duration in seconds of a media file.
	Duration(ctx context.Context, path string) (float64, error)
}
