package subtitles

import (
	"context"
	"log/slog"

	"github.com/maauso/sportsreel-api/internal/narration"
	"github.com/maauso/sportsreel-api/internal/provider"
)

// Source tells which strategy produced a track.
type Source string

const (
	SourceAlignment     Source = "alignment"
	SourceTranscription Source = "transcription"
	SourceEstimated     Source = "estimated"
)

// Track is a generated subtitle track.
type Track struct {
	Segments []Segment
	Source   Source
	// Err holds the transcription failure when the track was estimated.
	Err error
}

// Stage chooses the most precise timing available: synthesis alignment,
// then each transcription backend in order, then a reading-speed estimate.
// It never fails.
type Stage struct {
	transcribers *provider.Chain[Transcriber]
	logger       *slog.Logger
}

// NewStage creates a Stage. transcribers may be nil or empty.
func NewStage(transcribers *provider.Chain[Transcriber], logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	if transcribers == nil {
		transcribers = provider.NewChain[Transcriber]("transcription", logger)
	}
	return &Stage{transcribers: transcribers, logger: logger}
}

// Generate returns subtitles for script spoken in the audio at audioPath.
// alignment may be nil.
func (s *Stage) Generate(ctx context.Context, script, audioPath string, alignment *narration.Alignment) *Track {
	if segs := FromAlignment(alignment); len(segs) > 0 {
		s.logger.Debug("subtitles from alignment", slog.Int("cues", len(segs)))
		return &Track{Segments: segs, Source: SourceAlignment}
	}

	segs, err := provider.Execute(ctx, s.transcribers, func(ctx context.Context, t Transcriber) ([]Segment, error) {
		return t.Transcribe(ctx, audioPath)
	})
	if err == nil {
		return &Track{Segments: Correct(segs, script), Source: SourceTranscription}
	}

	s.logger.Warn("transcription unavailable, estimating subtitle timing",
		slog.String("error", err.Error()),
	)
	return &Track{Segments: Estimate(script), Source: SourceEstimated, Err: err}
}
