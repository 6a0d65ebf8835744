package subtitles

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/maauso/sportsreel-api/internal/media"
)

// Compile-time check that WhisperCLI implements Transcriber.
var _ Transcriber = (*WhisperCLI)(nil)

// WhisperCLI runs the openai-whisper command line tool locally.
type WhisperCLI struct {
	binary string
	model  string
	runner media.CommandRunner
}

// NewWhisperCLI creates a local whisper backend. Empty values use
// "whisper" and the "base" model.
func NewWhisperCLI(binary, model string) *WhisperCLI {
	if binary == "" {
		binary = "whisper"
	}
	if model == "" {
		model = "base"
	}
	return &WhisperCLI{binary: binary, model: model, runner: media.ExecRunner{}}
}

// Name returns the backend name.
func (w *WhisperCLI) Name() string {
	return "whisper-cli"
}

// Transcribe runs whisper into a temporary directory and parses the SRT it writes.
func (w *WhisperCLI) Transcribe(ctx context.Context, audioPath string) ([]Segment, error) {
	outDir, err := os.MkdirTemp("", "whisper-*")
	if err != nil {
		return nil, fmt.Errorf("whisper: create output dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(outDir) }()

	res, err := w.runner.Run(ctx, w.binary,
		audioPath,
		"--model", w.model,
		"--output_format", "srt",
		"--output_dir", outDir,
		"--language", "en",
	)
	if err != nil {
		return nil, fmt.Errorf("whisper: %w: %s", err, strings.TrimSpace(res.Stderr))
	}

	// Whisper names its output after the input file.
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	f, err := os.Open(filepath.Join(outDir, base+".srt")) // #nosec G304 - path built above
	if err != nil {
		return nil, fmt.Errorf("whisper: open output: %w", err)
	}
	defer func() { _ = f.Close() }()

	segs, err := ParseSRT(f)
	if err != nil {
		return nil, fmt.Errorf("whisper: %w", err)
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("whisper: %w", ErrNoSegments)
	}
	return segs, nil
}
