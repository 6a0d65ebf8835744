// Package subtitles produces the time-aligned subtitle track for the
// narration. Timing comes from synthesis alignment when available, then from
// transcription backends, and finally from a reading-speed estimate.
package subtitles

import (
	"context"
	"errors"
)

// ErrNoSegments is returned when a transcription produced nothing usable.
var ErrNoSegments = errors.New("subtitles: no segments")

// Segment is one subtitle cue. Times are in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcriber converts narration audio into timed segments.
type Transcriber interface {
	Name() string
	// Transcribe reads the audio file at audioPath.
	Transcribe(ctx context.Context, audioPath string) ([]Segment, error)
}

// Duration returns the end time of the last segment.
func Duration(segs []Segment) float64 {
	if len(segs) == 0 {
		return 0
	}
	return segs[len(segs)-1].End
}
