package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	job := New()

	if job.ID == "" {
		t.Error("expected job to have an ID")
	}
	if job.Stage != StagePending {
		t.Errorf("expected stage %s, got %s", StagePending, job.Stage)
	}
	if job.AspectRatio != DefaultAspectRatio {
		t.Errorf("expected aspect ratio %s, got %s", DefaultAspectRatio, job.AspectRatio)
	}
	if job.CreatedAt.IsZero() || job.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
	if job.StepTimings == nil {
		t.Error("expected StepTimings to be initialized")
	}
}

func TestNewWithID(t *testing.T) {
	job := NewWithID("test-job-123")
	assert.Equal(t, "test-job-123", job.ID)
	assert.Equal(t, StagePending, job.Stage)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Stage
		to   Stage
		want bool
	}{
		{"pending to script", StagePending, StageGeneratingScript, true},
		{"script to images", StageGeneratingScript, StageFetchingImages, true},
		{"images to audio", StageFetchingImages, StageGeneratingAudio, true},
		{"audio to subtitles", StageGeneratingAudio, StageGeneratingSubtitles, true},
		{"subtitles to compose", StageGeneratingSubtitles, StageComposingVideo, true},
		{"compose to upload", StageComposingVideo, StageUploading, true},
		{"upload to completed", StageUploading, StageCompleted, true},
		{"pending to failed", StagePending, StageFailed, true},
		{"compose to failed", StageComposingVideo, StageFailed, true},
		{"skip a stage", StagePending, StageFetchingImages, false},
		{"regress", StageFetchingImages, StageGeneratingScript, false},
		{"completed to failed", StageCompleted, StageFailed, false},
		{"failed to pending", StageFailed, StagePending, false},
		{"unknown source", Stage("BOGUS"), StageFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canTransition(tt.from, tt.to))
		})
	}
}

func TestStage_IsTerminal(t *testing.T) {
	assert.True(t, StageCompleted.IsTerminal())
	assert.True(t, StageFailed.IsTerminal())
	assert.False(t, StagePending.IsTerminal())
	assert.False(t, StageUploading.IsTerminal())
}

func TestStage_TimingLabel(t *testing.T) {
	assert.Equal(t, "script_generation", StageGeneratingScript.TimingLabel())
	assert.Equal(t, "final_upload", StageUploading.TimingLabel())
	assert.Equal(t, "final_upload_failed", FailedLabel(StageUploading.TimingLabel()))
}

func TestJob_Apply_AdvancesStage(t *testing.T) {
	job := New()

	err := job.Apply(NewUpdate().SetStage(StageGeneratingScript).SetProgress(10))
	require.NoError(t, err)
	assert.Equal(t, StageGeneratingScript, job.Stage)
	assert.Equal(t, 10, job.Progress)

	err = job.Apply(NewUpdate().SetScript("hello").SetProgress(20).AddTiming("script_generation", 1.5))
	require.NoError(t, err)
	assert.Equal(t, "hello", job.Script)
	assert.Equal(t, 20, job.Progress)
	assert.InDelta(t, 1.5, job.StepTimings["script_generation"], 1e-9)
}

func TestJob_Apply_RejectsInvalidTransition(t *testing.T) {
	job := New()

	err := job.Apply(NewUpdate().SetStage(StageComposingVideo))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StagePending, job.Stage)
}

func TestJob_Apply_ProgressIsMonotonic(t *testing.T) {
	job := New()
	require.NoError(t, job.Apply(NewUpdate().SetStage(StageGeneratingScript).SetProgress(20)))

	err := job.Apply(NewUpdate().SetProgress(10))
	assert.ErrorIs(t, err, ErrProgressRegression)
	assert.Equal(t, 20, job.Progress)

	// Failing keeps the last reported progress.
	err = job.Apply(NewUpdate().SetStage(StageFailed).SetProgress(0).SetError("boom"))
	require.NoError(t, err)
	assert.Equal(t, StageFailed, job.Stage)
	assert.Equal(t, 20, job.Progress)
	assert.Equal(t, "boom", job.ErrorMessage)
}

func TestJob_Apply_ClampsProgress(t *testing.T) {
	job := New()
	require.NoError(t, job.Apply(NewUpdate().SetProgress(150)))
	assert.Equal(t, 100, job.Progress)
}

func TestJob_Apply_TerminalJobRejectsUpdates(t *testing.T) {
	job := New()
	require.NoError(t, job.Apply(NewUpdate().SetStage(StageFailed).SetError("x")))

	err := job.Apply(NewUpdate().SetScript("late"))
	assert.ErrorIs(t, err, ErrJobTerminal)
	assert.Empty(t, job.Script)
}

func TestJob_Apply_CompletedForcesFullProgress(t *testing.T) {
	job := New()
	stages := []Stage{
		StageGeneratingScript, StageFetchingImages, StageGeneratingAudio,
		StageGeneratingSubtitles, StageComposingVideo, StageUploading,
	}
	for _, s := range stages {
		require.NoError(t, job.Apply(NewUpdate().SetStage(s)))
	}
	require.NoError(t, job.Apply(NewUpdate().SetStage(StageCompleted)))

	assert.Equal(t, 100, job.Progress)
	assert.True(t, job.IsTerminal())
}

func TestJob_Apply_MergesTimings(t *testing.T) {
	job := New()
	require.NoError(t, job.Apply(NewUpdate().AddTiming("a", 1)))
	require.NoError(t, job.Apply(NewUpdate().AddTiming("b", 2)))

	assert.Equal(t, StepTimings{"a": 1, "b": 2}, job.StepTimings)
}

func TestJob_Clone(t *testing.T) {
	job := New()
	require.NoError(t, job.Apply(NewUpdate().
		SetImageURLs([]string{"a", "b"}).
		AddTiming("script_generation", 2)))

	clone := job.Clone()
	clone.ImageURLs[0] = "changed"
	clone.StepTimings["script_generation"] = 99

	assert.Equal(t, "a", job.ImageURLs[0])
	assert.InDelta(t, 2.0, job.StepTimings["script_generation"], 1e-9)
	assert.Equal(t, job.ID, clone.ID)
}

func TestUpdate_IsEmpty(t *testing.T) {
	assert.True(t, NewUpdate().IsEmpty())
	assert.False(t, NewUpdate().SetProgress(0).IsEmpty())
	assert.False(t, NewUpdate().AddTiming("x", 1).IsEmpty())
}
