// Package job provides the Job aggregate for narrated video generation.
// It includes the Job entity with its forward-only stage machine, the typed
// Update used to mutate it, and repository interfaces for persistence.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/maauso/sportsreel-api/internal/job/id"
)

// Stage represents the current pipeline step of a Job.
type Stage string

const (
	// StagePending indicates the job was accepted but has not started.
	StagePending Stage = "PENDING"
	// StageGeneratingScript indicates the narration script is being written.
	StageGeneratingScript Stage = "GENERATING_SCRIPT"
	// StageFetchingImages indicates image candidates are being searched and ranked.
	StageFetchingImages Stage = "FETCHING_IMAGES"
	// StageGeneratingAudio indicates narration audio is being synthesized.
	StageGeneratingAudio Stage = "GENERATING_AUDIO"
	// StageGeneratingSubtitles indicates the subtitle track is being produced.
	StageGeneratingSubtitles Stage = "GENERATING_SUBTITLES"
	// StageComposingVideo indicates slides are being rendered into a video.
	StageComposingVideo Stage = "COMPOSING_VIDEO"
	// StageUploading indicates final deliverables are being uploaded.
	StageUploading Stage = "UPLOADING"
	// StageCompleted indicates the job finished successfully.
	StageCompleted Stage = "COMPLETED"
	// StageFailed indicates the job stopped on a fatal error.
	StageFailed Stage = "FAILED"
)

// Errors returned when applying updates.
var (
	// ErrInvalidTransition is returned when a stage change is not allowed.
	ErrInvalidTransition = errors.New("invalid stage transition")
	// ErrJobTerminal is returned when updating a COMPLETED or FAILED job.
	ErrJobTerminal = errors.New("job is in a terminal stage")
	// ErrProgressRegression is returned when progress would move backwards.
	ErrProgressRegression = errors.New("progress cannot decrease")
)

// validTransitions defines which stage transitions are allowed.
// Every non-terminal stage may move to its successor or to FAILED.
var validTransitions = map[Stage][]Stage{
	StagePending:             {StageGeneratingScript, StageFailed},
	StageGeneratingScript:    {StageFetchingImages, StageFailed},
	StageFetchingImages:      {StageGeneratingAudio, StageFailed},
	StageGeneratingAudio:     {StageGeneratingSubtitles, StageFailed},
	StageGeneratingSubtitles: {StageComposingVideo, StageFailed},
	StageComposingVideo:      {StageUploading, StageFailed},
	StageUploading:           {StageCompleted, StageFailed},
	StageCompleted:           {},
	StageFailed:              {},
}

// canTransition checks if a transition from one stage to another is valid.
func canTransition(from, to Stage) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true for COMPLETED and FAILED.
func (s Stage) IsTerminal() bool {
	return s == StageCompleted || s == StageFailed
}

// IsValid returns true if s is a known stage.
func (s Stage) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// TimingLabel returns the step_timings key recorded for a finished stage.
// Failures are recorded under the same label with a "_failed" suffix.
func (s Stage) TimingLabel() string {
	switch s {
	case StageGeneratingScript:
		return "script_generation"
	case StageFetchingImages:
		return "image_fetch"
	case StageGeneratingAudio:
		return "audio_generation"
	case StageGeneratingSubtitles:
		return "subtitle_generation"
	case StageComposingVideo:
		return "video_composition"
	case StageUploading:
		return "final_upload"
	default:
		return string(s)
	}
}

// Job represents a narrated video generation request and its progress.
type Job struct {
	mu sync.RWMutex

	// ID is the opaque unique identifier for this job.
	ID string `json:"id"`
	// SubjectName is the person the video is about.
	SubjectName string `json:"subject_name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// AspectRatio is the target frame ratio, e.g. "9:16".
	AspectRatio         string `json:"aspect_ratio"`
	ApplyEffects        bool   `json:"apply_effects"`
	UseContextualImages bool   `json:"use_contextual_images"`

	// Stage is the current pipeline step.
	Stage Stage `json:"stage"`
	// Progress is the percentage of completion (0-100).
	Progress int `json:"progress"`
	// ErrorMessage is set when the job failed.
	ErrorMessage string `json:"error_message,omitempty"`

	Script       string   `json:"script,omitempty"`
	ImageURLs    []string `json:"image_urls,omitempty"`
	AudioURL     string   `json:"audio_url,omitempty"`
	SubtitlesURL string   `json:"subtitles_url,omitempty"`
	VideoURL     string   `json:"video_url,omitempty"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	// Duration is the final video length in seconds.
	Duration float64 `json:"duration,omitempty"`

	// StepTimings maps stage labels to elapsed seconds.
	StepTimings StepTimings `json:"step_timings"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a new Job with a generated ID in the PENDING stage.
func New() *Job {
	return NewWithID(id.Generate())
}

// NewWithID creates a new PENDING Job with the specified ID.
// Useful for testing or when ID needs to be externally generated.
func NewWithID(jobID string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:          jobID,
		Stage:       StagePending,
		AspectRatio: DefaultAspectRatio,
		StepTimings: StepTimings{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Apply validates and applies a typed update.
// Stage changes must follow the transition table, progress never decreases
// unless the job is failing, and step timings are merged rather than replaced.
func (j *Job) Apply(u Update) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.Stage.IsTerminal() {
		return ErrJobTerminal
	}

	next := j.Stage
	if u.Stage != nil && *u.Stage != j.Stage {
		if !canTransition(j.Stage, *u.Stage) {
			return ErrInvalidTransition
		}
		next = *u.Stage
	}

	if u.Progress != nil {
		p := clampProgress(*u.Progress)
		if p < j.Progress && next != StageFailed {
			return ErrProgressRegression
		}
		if p >= j.Progress {
			j.Progress = p
		}
	}

	j.Stage = next
	if u.ErrorMessage != nil {
		j.ErrorMessage = *u.ErrorMessage
	}
	if u.Script != nil {
		j.Script = *u.Script
	}
	if u.ImageURLs != nil {
		j.ImageURLs = append([]string(nil), u.ImageURLs...)
	}
	if u.AudioURL != nil {
		j.AudioURL = *u.AudioURL
	}
	if u.SubtitlesURL != nil {
		j.SubtitlesURL = *u.SubtitlesURL
	}
	if u.VideoURL != nil {
		j.VideoURL = *u.VideoURL
	}
	if u.ThumbnailURL != nil {
		j.ThumbnailURL = *u.ThumbnailURL
	}
	if u.Duration != nil {
		j.Duration = *u.Duration
	}
	if j.StepTimings == nil {
		j.StepTimings = StepTimings{}
	}
	j.StepTimings.Merge(u.StepTimings)

	if next == StageCompleted {
		j.Progress = 100
	}
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// GetStage returns the current stage (thread-safe).
func (j *Job) GetStage() Stage {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Stage
}

// IsTerminal returns true if the job is COMPLETED or FAILED.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Stage.IsTerminal()
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var urls []string
	if j.ImageURLs != nil {
		urls = make([]string, len(j.ImageURLs))
		copy(urls, j.ImageURLs)
	}

	return &Job{
		ID:                  j.ID,
		SubjectName:         j.SubjectName,
		Title:               j.Title,
		Description:         j.Description,
		AspectRatio:         j.AspectRatio,
		ApplyEffects:        j.ApplyEffects,
		UseContextualImages: j.UseContextualImages,
		Stage:               j.Stage,
		Progress:            j.Progress,
		ErrorMessage:        j.ErrorMessage,
		Script:              j.Script,
		ImageURLs:           urls,
		AudioURL:            j.AudioURL,
		SubtitlesURL:        j.SubtitlesURL,
		VideoURL:            j.VideoURL,
		ThumbnailURL:        j.ThumbnailURL,
		Duration:            j.Duration,
		StepTimings:         j.StepTimings.Clone(),
		CreatedAt:           j.CreatedAt,
		UpdatedAt:           j.UpdatedAt,
	}
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
