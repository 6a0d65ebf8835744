// Package compositor turns ordered images and a narration track into the
// final video, its thumbnail and its duration.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maauso/sportsreel-api/internal/images"
	"github.com/maauso/sportsreel-api/internal/media"
	"github.com/maauso/sportsreel-api/internal/provider"
)

// Defaults for a Compositor.
const (
	DefaultConcurrency  = 4
	DefaultTargetSlides = 8
)

// placeholderText is drawn on the thumbnail when there is nothing to show.
const placeholderText = "No Thumbnail"

// ErrNoImagesDownloaded is returned when not a single image could be used.
var ErrNoImagesDownloaded = errors.New("compositor: no valid images downloaded")

// Downloader fetches a remote image to a local path.
type Downloader interface {
	Download(ctx context.Context, rawURL, destPath string) error
}

// Request describes one composition.
type Request struct {
	ImageURLs     []string
	AudioPath     string
	SubtitlesPath string
	// Duration is the narration length in seconds.
	Duration     float64
	AspectRatio  string
	ApplyEffects bool
	// WorkDir receives every intermediate and output file.
	WorkDir string
}

// Result holds the composed artifacts.
type Result struct {
	VideoPath     string
	ThumbnailPath string
	Duration      float64
	Plan          Plan
}

// Compositor prepares slides and renders them through a chain of renderers.
type Compositor struct {
	processor    media.Processor
	downloader   Downloader
	renderers    *provider.Chain[Renderer]
	logger       *slog.Logger
	concurrency  int
	targetSlides int
	fps          int

	mu  sync.Mutex // guards rnd
	rnd *rand.Rand
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithConcurrency bounds parallel downloads, fits and effect clips.
func WithConcurrency(n int) Option {
	return func(c *Compositor) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithTargetSlides sets how many slides unique images are padded to.
func WithTargetSlides(n int) Option {
	return func(c *Compositor) {
		if n > 0 {
			c.targetSlides = n
		}
	}
}

// WithFPS sets the output frame rate.
func WithFPS(fps int) Option {
	return func(c *Compositor) {
		if fps > 0 {
			c.fps = fps
		}
	}
}

// WithRand sets the source used to pick effects.
func WithRand(r *rand.Rand) Option {
	return func(c *Compositor) {
		c.rnd = r
	}
}

// New creates a Compositor. A nil or empty renderer chain renders locally
// with processor.
func New(processor media.Processor, downloader Downloader, renderers *provider.Chain[Renderer], logger *slog.Logger, opts ...Option) *Compositor {
	if logger == nil {
		logger = slog.Default()
	}
	if renderers == nil || renderers.Len() == 0 {
		renderers = provider.NewChain[Renderer]("render", logger, NewLocalRenderer(processor))
	}
	now := uint64(time.Now().UnixNano())
	c := &Compositor{
		processor:    processor,
		downloader:   downloader,
		renderers:    renderers,
		logger:       logger,
		concurrency:  DefaultConcurrency,
		targetSlides: DefaultTargetSlides,
		fps:          media.DefaultFPS,
		rnd:          rand.New(rand.NewPCG(now, now>>1)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose downloads and fits the images, builds the timing plan, renders
// effect clips when requested, renders the video and makes a thumbnail.
func (c *Compositor) Compose(ctx context.Context, req Request) (*Result, error) {
	w, h := media.Dimensions(req.AspectRatio)
	logger := c.logger.With(slog.String("aspect_ratio", req.AspectRatio))

	arranged := ArrangeSlides(req.ImageURLs, c.targetSlides)
	logger.Info("arranged images",
		slog.Int("candidates", len(req.ImageURLs)),
		slog.Int("slides", len(arranged)),
	)

	stills, err := c.prepareStills(ctx, arranged, req.WorkDir, w, h)
	if err != nil {
		return nil, err
	}
	if len(stills) == 0 {
		return nil, ErrNoImagesDownloaded
	}
	// Dropped downloads can leave neighbours equal.
	if images.HasConsecutiveDuplicates(stills) {
		stills = images.Arrange(stills)
	}

	plan, err := NewPlan(stills, req.Duration, c.effectSource(req.ApplyEffects))
	if err != nil {
		return nil, err
	}

	slides := stillSlides(plan)
	if req.ApplyEffects {
		clips, err := c.renderClips(ctx, plan, req.WorkDir, w, h)
		switch {
		case err == nil:
			slides = clips
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			logger.Warn("effect rendering failed, using still slides", slog.String("error", err.Error()))
		}
	}

	spec := media.SlideshowSpec{
		Slides:        slides,
		AudioPath:     req.AudioPath,
		SubtitlesPath: req.SubtitlesPath,
		Output:        filepath.Join(req.WorkDir, "video.mp4"),
		Width:         w,
		Height:        h,
		FPS:           c.fps,
	}
	if _, err := provider.Execute(ctx, c.renderers, func(ctx context.Context, r Renderer) (struct{}, error) {
		return struct{}{}, r.Render(ctx, spec)
	}); err != nil {
		return nil, err
	}

	result := &Result{VideoPath: spec.Output, Duration: req.Duration, Plan: plan}
	thumb := filepath.Join(req.WorkDir, "thumbnail.jpg")
	if err := c.Thumbnail(ctx, slides, thumb, w, h); err != nil {
		logger.Warn("thumbnail failed", slog.String("error", err.Error()))
	} else {
		result.ThumbnailPath = thumb
	}
	return result, nil
}

// prepareStills downloads and fits each distinct URL once and returns the
// fitted path of every slide in order. Images that fail are dropped.
func (c *Compositor) prepareStills(ctx context.Context, urls []string, dir string, w, h int) ([]string, error) {
	unique := images.Unique(urls)
	fitted := make([]string, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, u := range unique {
		g.Go(func() error {
			raw := filepath.Join(dir, fmt.Sprintf("image-%02d%s", i, images.Extension(u)))
			if err := c.downloader.Download(gctx, u, raw); err != nil {
				c.logger.Warn("image download failed", slog.String("url", u), slog.String("error", err.Error()))
				return nil
			}
			dst := filepath.Join(dir, fmt.Sprintf("slide-%02d.jpg", i))
			if err := c.processor.FitImage(gctx, raw, dst, w, h); err != nil {
				c.logger.Warn("image fit failed", slog.String("url", u), slog.String("error", err.Error()))
				return nil
			}
			fitted[i] = dst
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byURL := make(map[string]string, len(unique))
	for i, u := range unique {
		if fitted[i] != "" {
			byURL[u] = fitted[i]
		}
	}
	stills := make([]string, 0, len(urls))
	for _, u := range urls {
		if p, ok := byURL[u]; ok {
			stills = append(stills, p)
		}
	}
	return stills, nil
}

// renderClips renders one effect clip per plan entry. Clips render in any
// order; the result keeps plan order.
func (c *Compositor) renderClips(ctx context.Context, plan Plan, dir string, w, h int) ([]media.Slide, error) {
	slides := make([]media.Slide, len(plan))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, e := range plan {
		g.Go(func() error {
			dst := filepath.Join(dir, fmt.Sprintf("clip-%02d.mp4", i))
			if err := c.processor.RenderEffectClip(gctx, e.Source, dst, e.Effect, e.Duration, w, h); err != nil {
				return fmt.Errorf("slide %d (%s): %w", i, e.Effect, err)
			}
			slides[i] = media.Slide{Path: dst, Duration: e.Duration, Clip: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slides, nil
}

// Thumbnail writes the first frame of the first slide to dst: a copy of a
// still, or a frame extracted from a clip. Without slides, or when
// extraction fails, a placeholder frame is drawn.
func (c *Compositor) Thumbnail(ctx context.Context, slides []media.Slide, dst string, w, h int) error {
	if len(slides) == 0 {
		return c.processor.RenderPlaceholder(ctx, dst, placeholderText, w, h)
	}

	first := slides[0]
	if !first.Clip {
		return media.CopyFile(first.Path, dst)
	}
	if err := c.processor.ExtractFrame(ctx, first.Path, dst); err != nil {
		c.logger.Warn("frame extraction failed, drawing placeholder", slog.String("error", err.Error()))
		return c.processor.RenderPlaceholder(ctx, dst, placeholderText, w, h)
	}
	return nil
}

// effectSource returns a rand source for one plan, or nil without effects.
// Compose runs concurrently across jobs, so each plan gets its own source.
func (c *Compositor) effectSource(applyEffects bool) *rand.Rand {
	if !applyEffects {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return rand.New(rand.NewPCG(c.rnd.Uint64(), c.rnd.Uint64()))
}

func stillSlides(plan Plan) []media.Slide {
	slides := make([]media.Slide, len(plan))
	for i, e := range plan {
		slides[i] = media.Slide{Path: e.Source, Duration: e.Duration}
	}
	return slides
}
