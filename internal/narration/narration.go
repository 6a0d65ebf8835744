// Package narration synthesizes the voice-over for a script.
package narration

import (
	"context"
	"errors"
)

// Audio container formats returned by synthesizers.
const (
	FormatMP3 = "mp3"
	FormatWAV = "wav"
)

var (
	// ErrEmptyText is returned when there is nothing to narrate.
	ErrEmptyText = errors.New("narration: empty text")
	// ErrEmptyAudio is returned when a backend answers without audio.
	ErrEmptyAudio = errors.New("narration: empty audio returned")
)

// Alignment holds per-character timing produced alongside the audio.
// The three slices have equal length.
type Alignment struct {
	Characters []string  `json:"characters"`
	StartTimes []float64 `json:"character_start_times_seconds"`
	EndTimes   []float64 `json:"character_end_times_seconds"`
}

// Valid reports whether a is non-empty and internally consistent.
func (a *Alignment) Valid() bool {
	if a == nil || len(a.Characters) == 0 {
		return false
	}
	return len(a.StartTimes) == len(a.Characters) && len(a.EndTimes) == len(a.Characters)
}

// Speech is synthesized narration.
type Speech struct {
	Audio  []byte
	Format string
	// Alignment is nil when the backend does not report timing.
	Alignment *Alignment
}

// Synthesizer turns text into speech.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text string) (*Speech, error)
}
