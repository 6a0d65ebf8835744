// Package audio prepares synthesized narration for composition: it stores
// the raw speech, transcodes it to MP3 and measures its duration.
package audio

import (
	"context"
	"errors"
)

var (
	// ErrEmptyAudio is returned when there are no bytes to prepare.
	ErrEmptyAudio = errors.New("audio: empty audio")
	// ErrDurationNotFound is returned when ffmpeg output carries no duration.
	ErrDurationNotFound = errors.New("audio: duration not found in ffmpeg output")
)

// Track is narration ready to be muxed into the video.
type Track struct {
	// Path is an MP3 file inside the job workspace.
	Path string
	// Duration is the track length in seconds.
	Duration float64
}

// Preparer turns raw speech into a Track.
type Preparer interface {
	// Prepare writes data (encoded as format, e.g. "mp3" or "wav") into dir,
	// converts it to MP3 when needed and probes its duration.
	Prepare(ctx context.Context, data []byte, format, dir string) (*Track, error)
}
