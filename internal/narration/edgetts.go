package narration

import (
	"context"
	"fmt"
	"os"

	"github.com/maauso/sportsreel-api/internal/media"
)

// Compile-time check that EdgeTTS implements Synthesizer.
var _ Synthesizer = (*EdgeTTS)(nil)

// DefaultEdgeVoice is the edge-tts narrator voice.
const DefaultEdgeVoice = "en-US-GuyNeural"

// EdgeTTS runs the edge-tts command line tool. It needs no API key and is
// the last resort of the narration chain.
type EdgeTTS struct {
	binary string
	voice  string
	runner media.CommandRunner
}

// NewEdgeTTS creates an edge-tts backend. Empty values use defaults.
func NewEdgeTTS(binary, voice string) *EdgeTTS {
	if binary == "" {
		binary = "edge-tts"
	}
	if voice == "" {
		voice = DefaultEdgeVoice
	}
	return &EdgeTTS{binary: binary, voice: voice, runner: media.ExecRunner{}}
}

// Name returns the backend name.
func (e *EdgeTTS) Name() string {
	return "edge-tts"
}

// Synthesize writes MP3 to a temporary file and returns its contents.
func (e *EdgeTTS) Synthesize(ctx context.Context, text string) (*Speech, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	f, err := os.CreateTemp("", "edge-tts-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("edge-tts: create temp file: %w", err)
	}
	out := f.Name()
	_ = f.Close()
	defer func() { _ = os.Remove(out) }()

	res, err := e.runner.Run(ctx, e.binary,
		"--voice", e.voice,
		"--text", text,
		"--write-media", out,
	)
	if err != nil {
		return nil, fmt.Errorf("edge-tts: %w: %s", err, res.Stderr)
	}

	audio, err := os.ReadFile(out) // #nosec G304 - path created above
	if err != nil {
		return nil, fmt.Errorf("edge-tts: read output: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("edge-tts: %w", ErrEmptyAudio)
	}
	return &Speech{Audio: audio, Format: FormatMP3}, nil
}
