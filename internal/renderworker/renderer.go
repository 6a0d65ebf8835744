package renderworker

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/maauso/sportsreel-api/internal/media"
)

// Errors returned by Renderer.
var (
	// ErrTaskFailed is returned when the worker reports a failed or canceled task.
	ErrTaskFailed = errors.New("renderworker: task failed")
	// ErrRenderTimeout is returned when the task does not finish in time.
	ErrRenderTimeout = errors.New("renderworker: render timed out")
)

const (
	defaultPollInterval  = 3 * time.Second
	defaultRenderTimeout = 10 * time.Minute
)

// Renderer renders slideshows on the remote worker.
type Renderer struct {
	client       Client
	pollInterval time.Duration
	timeout      time.Duration
	logger       *slog.Logger
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithPollInterval sets how often task status is checked.
func WithPollInterval(d time.Duration) RendererOption {
	return func(r *Renderer) {
		r.pollInterval = d
	}
}

// WithRenderTimeout bounds the total time spent waiting for one task.
func WithRenderTimeout(d time.Duration) RendererOption {
	return func(r *Renderer) {
		r.timeout = d
	}
}

// NewRenderer creates a Renderer over client.
func NewRenderer(client Client, logger *slog.Logger, opts ...RendererOption) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{
		client:       client,
		pollInterval: defaultPollInterval,
		timeout:      defaultRenderTimeout,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name identifies the renderer in fallback logs.
func (r *Renderer) Name() string {
	return "render-worker"
}

// Render uploads the slides, narration and subtitles, waits for the worker to
// finish and downloads the result to spec.Output.
func (r *Renderer) Render(ctx context.Context, spec media.SlideshowSpec) error {
	task, err := buildTask(spec)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	taskID, err := r.client.Submit(ctx, task)
	if err != nil {
		return fmt.Errorf("submit render task: %w", err)
	}
	r.logger.Info("render task submitted",
		slog.String("task_id", taskID),
		slog.Int("slides", len(task.Slides)),
	)

	result, err := r.wait(ctx, taskID)
	if err != nil {
		return err
	}

	if err := r.client.DownloadOutput(ctx, result.OutputURL, spec.Output); err != nil {
		return fmt.Errorf("download render output: %w", err)
	}
	return nil
}

// wait polls until the task reaches a terminal status.
func (r *Renderer) wait(ctx context.Context, taskID string) (PollResult, error) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		result, err := r.client.Poll(ctx, taskID)
		if err != nil {
			return PollResult{}, fmt.Errorf("poll render task: %w", err)
		}

		switch result.Status {
		case StatusCompleted:
			if result.OutputURL == "" {
				return PollResult{}, ErrNoOutputURL
			}
			return result, nil
		case StatusFailed, StatusCanceled:
			return PollResult{}, fmt.Errorf("%w: %s: %s", ErrTaskFailed, result.Status, result.Error)
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return PollResult{}, fmt.Errorf("%w: task %s", ErrRenderTimeout, taskID)
			}
			return PollResult{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func buildTask(spec media.SlideshowSpec) (Task, error) {
	if len(spec.Slides) == 0 {
		return Task{}, media.ErrNoSlides
	}

	task := Task{
		Slides: make([]SlidePayload, 0, len(spec.Slides)),
		Width:  spec.Width,
		Height: spec.Height,
		FPS:    spec.FPS,
	}
	for _, s := range spec.Slides {
		data, err := encodeFile(s.Path)
		if err != nil {
			return Task{}, err
		}
		task.Slides = append(task.Slides, SlidePayload{DataBase64: data, Duration: s.Duration, Clip: s.Clip})
	}

	audio, err := encodeFile(spec.AudioPath)
	if err != nil {
		return Task{}, err
	}
	task.AudioBase64 = audio

	if spec.SubtitlesPath != "" {
		srt, err := os.ReadFile(spec.SubtitlesPath) // #nosec G304 - path is inside the job workspace
		if err != nil {
			return Task{}, fmt.Errorf("read subtitles: %w", err)
		}
		task.SubtitlesSRT = string(srt)
	}
	return task, nil
}

func encodeFile(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is inside the job workspace
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
