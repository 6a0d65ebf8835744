package compositor

import (
	"context"

	"github.com/maauso/sportsreel-api/internal/media"
)

// Renderer turns a slideshow description into a video file at spec.Output.
// It may run locally or on a remote worker.
type Renderer interface {
	Name() string
	Render(ctx context.Context, spec media.SlideshowSpec) error
}

// LocalRenderer renders with the local media processor.
type LocalRenderer struct {
	processor media.Processor
}

// NewLocalRenderer creates a renderer over processor.
func NewLocalRenderer(processor media.Processor) *LocalRenderer {
	return &LocalRenderer{processor: processor}
}

// Name implements Renderer.
func (r *LocalRenderer) Name() string {
	return "ffmpeg"
}

// Render implements Renderer.
func (r *LocalRenderer) Render(ctx context.Context, spec media.SlideshowSpec) error {
	return r.processor.RenderSlideshow(ctx, spec)
}
