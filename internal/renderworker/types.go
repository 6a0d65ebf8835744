// Package renderworker provides a client for an out-of-process render worker
// that composes slideshows remotely, and a renderer adapter over it.
package renderworker

// Status represents the status of a render task.
type Status string

// Render task statuses.
const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCanceled  Status = "CANCELED"
)

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// normalizeStatus maps the spellings workers use onto Status values.
func normalizeStatus(raw string) Status {
	switch raw {
	case "PENDING", "QUEUED", "IN_QUEUE":
		return StatusPending
	case "RUNNING", "IN_PROGRESS":
		return StatusRunning
	case "COMPLETED", "COMPLETE":
		return StatusCompleted
	case "FAILED", "ERROR":
		return StatusFailed
	case "CANCELED", "CANCELLED":
		return StatusCanceled
	default:
		return Status(raw)
	}
}

// SlidePayload is one slide of a render task.
type SlidePayload struct {
	// DataBase64 is the fitted still or pre-rendered clip.
	DataBase64 string  `json:"data_base64"`
	Duration   float64 `json:"duration"`
	Clip       bool    `json:"clip,omitempty"`
}

// Task is everything the worker needs to render one video.
type Task struct {
	Slides      []SlidePayload `json:"slides"`
	AudioBase64 string         `json:"audio_base64"`
	// SubtitlesSRT is the subtitle track as SRT text. Empty disables burn-in.
	SubtitlesSRT string `json:"subtitles_srt,omitempty"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FPS          int    `json:"fps,omitempty"`
}

// taskResponse represents the response from the submission endpoint.
type taskResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// statusResponse represents the response from the task status endpoint.
type statusResponse struct {
	TaskID  string       `json:"task_id"`
	Status  string       `json:"status"`
	Outputs []taskOutput `json:"outputs,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// taskOutput represents a single output file of a task.
type taskOutput struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// PollResult contains the result of polling a task's status.
type PollResult struct {
	Status    Status
	OutputURL string // URL to download the rendered video
	Error     string // Error message (only set when Status is StatusFailed)
}
