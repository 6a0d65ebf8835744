package subtitles

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/sportsreel-api/internal/narration"
	"github.com/maauso/sportsreel-api/internal/provider"
)

type fakeTranscriber struct {
	name  string
	segs  []Segment
	err   error
	calls int
}

func (f *fakeTranscriber) Name() string { return f.name }

func (f *fakeTranscriber) Transcribe(context.Context, string) ([]Segment, error) {
	f.calls++
	return f.segs, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStage(ts ...Transcriber) *Stage {
	return NewStage(provider.NewChain("transcription", quietLogger(), ts...), quietLogger())
}

const stageScript = "Serena Williams won 23 Grand Slam titles. She changed tennis forever."

func TestStage_PrefersAlignment(t *testing.T) {
	tr := &fakeTranscriber{name: "never"}
	stage := newStage(tr)

	track := stage.Generate(context.Background(), stageScript, "audio.mp3", alignText("Serena won."))

	assert.Equal(t, SourceAlignment, track.Source)
	assert.Equal(t, "Serena won.", track.Segments[0].Text)
	assert.Zero(t, tr.calls)
}

func TestStage_TranscriptionFallbackOrder(t *testing.T) {
	first := &fakeTranscriber{name: "groq", err: errors.New("rate limited")}
	second := &fakeTranscriber{name: "whisper", segs: []Segment{
		{Start: 0, End: 3, Text: "serena williams one 23 grand slam titles"},
	}}

	track := newStage(first, second).Generate(context.Background(), stageScript, "audio.mp3", nil)

	assert.Equal(t, SourceTranscription, track.Source)
	assert.NoError(t, track.Err)
	require.Len(t, track.Segments, 1)
	assert.Equal(t, "Serena Williams won 23 Grand Slam titles.", track.Segments[0].Text)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestStage_EstimatesWhenEverythingFails(t *testing.T) {
	broken := &fakeTranscriber{name: "groq", err: errors.New("down")}

	track := newStage(broken).Generate(context.Background(), stageScript, "audio.mp3",
		&narration.Alignment{Characters: []string{"x"}})

	assert.Equal(t, SourceEstimated, track.Source)
	assert.Len(t, track.Segments, 2)
	var all *provider.AllProvidersFailedError
	assert.ErrorAs(t, track.Err, &all)
}

func TestStage_NoTranscribersConfigured(t *testing.T) {
	track := NewStage(nil, nil).Generate(context.Background(), "Just one line", "", nil)

	assert.Equal(t, SourceEstimated, track.Source)
	assert.NotEmpty(t, track.Segments)
}

func TestStage_CancelledContextStillProducesTrack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	track := newStage(&fakeTranscriber{name: "groq"}).Generate(ctx, stageScript, "audio.mp3", nil)

	assert.Equal(t, SourceEstimated, track.Source)
	assert.NotEmpty(t, track.Segments)
}
