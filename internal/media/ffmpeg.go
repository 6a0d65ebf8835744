package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Static errors for media operations.
var (
	// ErrInvalidDimensions is returned when the provided dimensions are not positive.
	ErrInvalidDimensions = errors.New("invalid dimensions: width and height must be positive")
	// ErrNoSlides is returned when a slideshow has nothing to show.
	ErrNoSlides = errors.New("no slides provided")
	// ErrInvalidDuration is returned when duration is not positive.
	ErrInvalidDuration = errors.New("invalid duration: must be positive")
	// ErrFFprobeExecution is returned when ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
)

// Compile-time check that FFmpegProcessor implements Processor.
var _ Processor = (*FFmpegProcessor)(nil)

// FFmpegProcessor implements Processor using the ffmpeg CLI.
type FFmpegProcessor struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// ffprobePath sits next to ffmpegPath when that is a full path.
	ffprobePath string
	runner      CommandRunner
}

// NewFFmpegProcessor creates a new FFmpegProcessor.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegProcessor(ffmpegPath string) *FFmpegProcessor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	ffprobePath := "ffprobe"
	if dir := filepath.Dir(ffmpegPath); dir != "." {
		ffprobePath = filepath.Join(dir, "ffprobe")
	}
	return &FFmpegProcessor{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, runner: ExecRunner{}}
}

// FitImage resizes src to exactly w x h at dst. Near matches are stretched,
// wider images are centre-cropped and taller ones padded.
func (p *FFmpegProcessor) FitImage(ctx context.Context, src, dst string, w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, w, h)
	}

	srcW, srcH, err := p.ImageSize(ctx, src)
	if err != nil {
		return fmt.Errorf("probe image: %w", err)
	}

	args := []string{
		"-y",
		"-i", src,
		"-vf", FitFilter(FitModeFor(srcW, srcH, w, h), w, h),
		"-frames:v", "1",
		dst,
	}
	return p.runFFmpeg(ctx, args)
}

// RenderEffectClip loops the still at src for duration seconds with effect
// applied, encoding an H.264 clip at dst.
func (p *FFmpegProcessor) RenderEffectClip(ctx context.Context, src, dst string, effect Effect, duration float64, w, h int) error {
	if duration <= 0 {
		return fmt.Errorf("%w: got %.2f", ErrInvalidDuration, duration)
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, w, h)
	}

	args := []string{
		"-y",
		"-framerate", strconv.Itoa(DefaultFPS),
		"-loop", "1",
		"-i", src,
		"-vf", EffectFilter(effect, duration, w, h, DefaultFPS),
		"-t", formatSeconds(duration),
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(DefaultFPS),
		dst,
	}
	return p.runFFmpeg(ctx, args)
}

// RenderSlideshow renders the final video. Stills are timed by the concat
// demuxer; clips carry their own duration. Audio is muxed and subtitles
// burned in the same pass, and the output stops at the shorter stream.
func (p *FFmpegProcessor) RenderSlideshow(ctx context.Context, spec SlideshowSpec) error {
	if len(spec.Slides) == 0 {
		return ErrNoSlides
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, spec.Width, spec.Height)
	}
	fps := spec.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}

	listFile, err := p.createConcatList(filepath.Dir(spec.Output), spec.Slides)
	if err != nil {
		return fmt.Errorf("create concat list: %w", err)
	}
	defer func() { _ = os.Remove(listFile) }()

	filter := fmt.Sprintf("scale=%d:%d,setsar=1,fps=%d", spec.Width, spec.Height, fps)
	if spec.SubtitlesPath != "" {
		filter += ",subtitles=" + escapeFilterPath(spec.SubtitlesPath)
	}
	filter += ",format=yuv420p"

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-i", spec.AudioPath,
		"-map", "0:v",
		"-map", "1:a",
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "28",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-shortest",
		spec.Output,
	}
	return p.runFFmpeg(ctx, args)
}

// createConcatList writes the concat demuxer script for slides into dir.
// Stills get a duration directive and the last still is repeated so its
// duration is honoured.
func (p *FFmpegProcessor) createConcatList(dir string, slides []Slide) (string, error) {
	f, err := os.CreateTemp(dir, "ffmpeg-concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.WriteString(f, buildConcatList(slides)); err != nil {
		return "", fmt.Errorf("write to concat list: %w", err)
	}
	return f.Name(), nil
}

func buildConcatList(slides []Slide) string {
	var sb strings.Builder
	for _, s := range slides {
		fmt.Fprintf(&sb, "file '%s'\n", escapeConcatPath(s.Path))
		if !s.Clip {
			fmt.Fprintf(&sb, "duration %s\n", formatSeconds(s.Duration))
		}
	}
	if last := slides[len(slides)-1]; !last.Clip {
		fmt.Fprintf(&sb, "file '%s'\n", escapeConcatPath(last.Path))
	}
	return sb.String()
}

// ExtractFrame writes the first frame of videoPath to dst.
func (p *FFmpegProcessor) ExtractFrame(ctx context.Context, videoPath, dst string) error {
	args := []string{
		"-y",
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "2",
		dst,
	}
	return p.runFFmpeg(ctx, args)
}

// RenderPlaceholder draws text centred on a black w x h frame.
func (p *FFmpegProcessor) RenderPlaceholder(ctx context.Context, dst, text string, w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, w, h)
	}
	args := []string{
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=black:s=%dx%d:d=1", w, h),
		"-vf", fmt.Sprintf("drawtext=text='%s':fontcolor=white:fontsize=32:x=(w-text_w)/2:y=(h-text_h)/2", escapeDrawText(text)),
		"-frames:v", "1",
		dst,
	}
	return p.runFFmpeg(ctx, args)
}

// ImageSize returns the width and height of the first video stream of path.
func (p *FFmpegProcessor) ImageSize(ctx context.Context, path string) (int, int, error) {
	out, err := p.runFFprobe(ctx,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		path,
	)
	if err != nil {
		return 0, 0, err
	}
	ws, hs, ok := strings.Cut(strings.TrimSpace(out), "x")
	if !ok {
		return 0, 0, fmt.Errorf("parse image size %q: %w", out, ErrFFprobeExecution)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("parse width: %w", err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(hs))
	if err != nil {
		return 0, 0, fmt.Errorf("parse height: %w", err)
	}
	return w, h, nil
}

// Duration returns the duration in seconds of a media file.
// It uses ffprobe to extract the duration metadata.
func (p *FFmpegProcessor) Duration(ctx context.Context, path string) (float64, error) {
	out, err := p.runFFprobe(ctx,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, err
	}

	var duration float64
	if _, err := fmt.Sscanf(strings.TrimSpace(out), "%f", &duration); err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}

// CopyFile copies a file from src to dst.
func CopyFile(src, dst string) error {
	input, err := os.ReadFile(src) // #nosec G304 - src is provided by trusted internal code
	if err != nil {
		return fmt.Errorf("read source file: %w", err)
	}
	if err := os.WriteFile(dst, input, 0600); err != nil {
		return fmt.Errorf("write destination file: %w", err)
	}
	return nil
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (p *FFmpegProcessor) runFFmpeg(ctx context.Context, args []string) error {
	res, err := p.runner.Run(ctx, p.ffmpegPath, args...)
	if err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: res.Stderr,
			Err:    err,
		}
	}
	return nil
}

func (p *FFmpegProcessor) runFFprobe(ctx context.Context, args ...string) (string, error) {
	res, err := p.runner.Run(ctx, p.ffprobePath, args...)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, res.Stderr)
	}
	return res.Stdout, nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

// escapeConcatPath escapes single quotes for the concat demuxer.
func escapeConcatPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return strings.ReplaceAll(path, "'", "'\\''")
}

// escapeFilterPath escapes a file path used as a filter argument.
func escapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.ReplaceAll(path, ":", "\\:")
	path = strings.ReplaceAll(path, "'", "\\'")
	return path
}

func escapeDrawText(text string) string {
	r := strings.NewReplacer("\\", "\\\\", "'", "\\'", ":", "\\:", "%", "\\%")
	return r.Replace(text)
}
