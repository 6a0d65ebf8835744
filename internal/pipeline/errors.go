package pipeline

import (
	"errors"
	"fmt"

	"github.com/maauso/sportsreel-api/internal/job"
)

// Stage failure sentinels. A StageError matches the sentinel of its stage
// with errors.Is.
var (
	ErrScriptGenerationFailed   = errors.New("script generation failed")
	ErrImageFetchFailed         = errors.New("image fetch failed")
	ErrAudioGenerationFailed    = errors.New("audio generation failed")
	ErrSubtitleGenerationFailed = errors.New("subtitle generation failed")
	ErrCompositionFailed        = errors.New("video composition failed")
	ErrUploadFailed             = errors.New("upload failed")

	// ErrNotPending is returned when Run is asked to drive a job that has
	// already started or finished.
	ErrNotPending = errors.New("pipeline: job is not pending")
)

// Kind tells whether a stage error stopped the pipeline.
type Kind int

const (
	// KindFailed halts the pipeline and fails the job.
	KindFailed Kind = iota
	// KindDegraded is logged; the pipeline continues with reduced fidelity.
	KindDegraded
)

func (k Kind) String() string {
	if k == KindDegraded {
		return "degraded"
	}
	return "failed"
}

// StageError attributes a failure to a pipeline stage.
type StageError struct {
	Stage job.Stage
	Kind  Kind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%v: %v", sentinelFor(e.Stage), e.Err)
}

// Unwrap exposes both the stage sentinel and the cause.
func (e *StageError) Unwrap() []error {
	return []error{sentinelFor(e.Stage), e.Err}
}

func failed(stage job.Stage, err error) *StageError {
	return &StageError{Stage: stage, Kind: KindFailed, Err: err}
}

func degraded(stage job.Stage, err error) *StageError {
	return &StageError{Stage: stage, Kind: KindDegraded, Err: err}
}

func sentinelFor(stage job.Stage) error {
	switch stage {
	case job.StageGeneratingScript:
		return ErrScriptGenerationFailed
	case job.StageFetchingImages:
		return ErrImageFetchFailed
	case job.StageGeneratingAudio:
		return ErrAudioGenerationFailed
	case job.StageGeneratingSubtitles:
		return ErrSubtitleGenerationFailed
	case job.StageComposingVideo:
		return ErrCompositionFailed
	default:
		return ErrUploadFailed
	}
}
