// Package server provides the HTTP server for the SportsReel API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import (
	"time"

	"github.com/maauso/sportsreel-api/internal/job"
)

// CreateJobRequest is the HTTP request body for creating a new job.
type CreateJobRequest struct {
	// SubjectName is the person the video is about.
	SubjectName string `json:"subject_name" validate:"required,max=100"`
	Title       string `json:"title" validate:"max=200"`
	Description string `json:"description" validate:"max=500"`
	// AspectRatio is one of 9:16, 16:9 or 1:1. Empty means 9:16.
	AspectRatio string `json:"aspect_ratio" validate:"omitempty,oneof=9:16 16:9 1:1"`
	// ApplyEffects defaults to true when omitted.
	ApplyEffects        *bool `json:"apply_effects"`
	UseContextualImages bool  `json:"use_contextual_images"`
}

// CreateJobResponse is the HTTP response after creating a job.
type CreateJobResponse struct {
	// ID is the unique identifier for the created job.
	ID string `json:"id"`
	// Stage is the initial job stage.
	Stage string `json:"stage"`
}

// JobResponse is the HTTP representation of a job snapshot.
type JobResponse struct {
	ID                  string             `json:"id"`
	SubjectName         string             `json:"subject_name"`
	Title               string             `json:"title"`
	Description         string             `json:"description"`
	AspectRatio         string             `json:"aspect_ratio"`
	ApplyEffects        bool               `json:"apply_effects"`
	UseContextualImages bool               `json:"use_contextual_images"`
	Stage               string             `json:"stage"`
	Progress            int                `json:"progress"`
	Error               string             `json:"error,omitempty"`
	Script              string             `json:"script,omitempty"`
	ImageURLs           []string           `json:"image_urls,omitempty"`
	AudioURL            string             `json:"audio_url,omitempty"`
	SubtitlesURL        string             `json:"subtitles_url,omitempty"`
	VideoURL            string             `json:"video_url,omitempty"`
	ThumbnailURL        string             `json:"thumbnail_url,omitempty"`
	Duration            float64            `json:"duration,omitempty"`
	StepTimings         map[string]float64 `json:"step_timings,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// ListJobsResponse is the HTTP response for listing jobs.
type ListJobsResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Count int           `json:"count"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}

func newJobResponse(j *job.Job) JobResponse {
	return JobResponse{
		ID:                  j.ID,
		SubjectName:         j.SubjectName,
		Title:               j.Title,
		Description:         j.Description,
		AspectRatio:         j.AspectRatio,
		ApplyEffects:        j.ApplyEffects,
		UseContextualImages: j.UseContextualImages,
		Stage:               string(j.Stage),
		Progress:            j.Progress,
		Error:               j.ErrorMessage,
		Script:              j.Script,
		ImageURLs:           j.ImageURLs,
		AudioURL:            j.AudioURL,
		SubtitlesURL:        j.SubtitlesURL,
		VideoURL:            j.VideoURL,
		ThumbnailURL:        j.ThumbnailURL,
		Duration:            j.Duration,
		StepTimings:         j.StepTimings,
		CreatedAt:           j.CreatedAt,
		UpdatedAt:           j.UpdatedAt,
	}
}
