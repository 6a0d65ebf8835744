package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/maauso/sportsreel-api/internal/media"
)

// Compile-time check that FFmpegTranscoder implements Preparer.
var _ Preparer = (*FFmpegTranscoder)(nil)

var durationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)

// FFmpegTranscoder implements Preparer using the ffmpeg CLI.
type FFmpegTranscoder struct {
	ffmpegPath string
	runner     media.CommandRunner
}

// NewFFmpegTranscoder creates a new FFmpegTranscoder.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found in PATH).
func NewFFmpegTranscoder(ffmpegPath string) *FFmpegTranscoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegTranscoder{ffmpegPath: ffmpegPath, runner: media.ExecRunner{}}
}

// Prepare implements Preparer.
func (t *FFmpegTranscoder) Prepare(ctx context.Context, data []byte, format, dir string) (*Track, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}
	format = strings.TrimPrefix(strings.ToLower(format), ".")
	if format == "" {
		format = "mp3"
	}

	raw := filepath.Join(dir, "narration."+format)
	if err := os.WriteFile(raw, data, 0o600); err != nil {
		return nil, fmt.Errorf("write narration: %w", err)
	}

	mp3 := raw
	if format != "mp3" {
		mp3 = filepath.Join(dir, "narration.mp3")
		if err := t.ToMP3(ctx, raw, mp3); err != nil {
			return nil, err
		}
	}

	d, err := t.Duration(ctx, mp3)
	if err != nil {
		return nil, fmt.Errorf("probe narration: %w", err)
	}
	return &Track{Path: mp3, Duration: d}, nil
}

// ToMP3 transcodes src to an MP3 file at dst.
func (t *FFmpegTranscoder) ToMP3(ctx context.Context, src, dst string) error {
	args := []string{
		"-y",
		"-i", src,
		"-codec:a", "libmp3lame",
		"-b:a", "128k",
		dst,
	}
	res, err := t.runner.Run(ctx, t.ffmpegPath, args...)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &media.FFmpegError{Args: args, Stderr: res.Stderr, Err: err}
	}
	return nil
}

// Duration returns the length of an audio file in seconds.
func (t *FFmpegTranscoder) Duration(ctx context.Context, path string) (float64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("stat audio: %w", err)
	}

	// ffmpeg writes duration info to stderr and exits non-zero with a null
	// output, so only the parsed result matters.
	res, _ := t.runner.Run(ctx, t.ffmpegPath,
		"-i", path,
		"-hide_banner",
		"-f", "null", "-",
	)
	if ctx.Err() != nil {
		return 0, fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
	}
	return parseDuration(res.Stderr)
}

// parseDuration extracts "Duration: HH:MM:SS.xx" from ffmpeg output.
func parseDuration(output string) (float64, error) {
	m := durationRe.FindStringSubmatch(output)
	if len(m) < 5 {
		return 0, ErrDurationNotFound
	}

	hours, _ := strconv.ParseFloat(m[1], 64)
	minutes, _ := strconv.ParseFloat(m[2], 64)
	seconds, _ := strconv.ParseFloat(m[3], 64)
	frac, _ := strconv.ParseFloat("0."+m[4], 64)

	return hours*3600 + minutes*60 + seconds + frac, nil
}
