package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Supported aspect ratios.
var supportedAspectRatios = map[string]bool{
	"9:16": true,
	"16:9": true,
	"1:1":  true,
}

// ErrSubjectRequired is returned when a submission has no subject name.
var ErrSubjectRequired = errors.New("job: subject name is required")

// ErrUnsupportedAspectRatio is returned for aspect ratios other than 9:16, 16:9 and 1:1.
var ErrUnsupportedAspectRatio = errors.New("job: unsupported aspect ratio")

// Runner drives a persisted job through the pipeline.
type Runner interface {
	Run(ctx context.Context, jobID string) error
}

// SubmitInput contains the parameters of a generation request.
type SubmitInput struct {
	// SubjectName is the person the video is about.
	SubjectName string
	// Title defaults to "<Name>'s History".
	Title string
	// Description defaults to "The history and achievements of <Name>".
	Description string
	// AspectRatio defaults to "9:16".
	AspectRatio string
	// ApplyEffects enables pan/zoom rendering per slide.
	ApplyEffects bool
	// UseContextualImages selects one image per script segment.
	UseContextualImages bool
}

// Service accepts generation requests and runs them in the background.
// Each run is a separate goroutine with its own panic boundary; the
// submitter only waits for the PENDING job to be persisted.
type Service struct {
	repo       Repository
	runner     Runner
	logger     *slog.Logger
	background bool
	timeout    time.Duration

	wg sync.WaitGroup
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithBackgroundProcessing enables or disables spawning the pipeline on submit.
// When disabled, Submit only persists the job.
func WithBackgroundProcessing(enabled bool) ServiceOption {
	return func(s *Service) {
		s.background = enabled
	}
}

// WithRunTimeout bounds the duration of a single pipeline run.
func WithRunTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewService creates a new Service.
func NewService(repo Repository, runner Runner, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:       repo,
		runner:     runner,
		logger:     logger,
		background: true,
		timeout:    30 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates the input, persists a PENDING job and, unless disabled,
// starts the pipeline for it in a new goroutine.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Job, error) {
	job, err := s.CreateJob(ctx, in)
	if err != nil {
		return nil, err
	}
	if s.background && s.runner != nil {
		s.spawn(job.ID)
	}
	return job, nil
}

// CreateJob validates the input and persists a PENDING job without running it.
func (s *Service) CreateJob(ctx context.Context, in SubmitInput) (*Job, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}

	job := New()
	job.SubjectName = in.SubjectName
	job.Title = in.Title
	job.Description = in.Description
	job.AspectRatio = in.AspectRatio
	job.ApplyEffects = in.ApplyEffects
	job.UseContextualImages = in.UseContextualImages

	s.logger.Info("creating new job",
		slog.String("job_id", job.ID),
		slog.String("subject", job.SubjectName),
		slog.String("aspect_ratio", job.AspectRatio),
		slog.Bool("apply_effects", job.ApplyEffects),
		slog.Bool("use_contextual_images", job.UseContextualImages),
	)

	if err := s.repo.Save(ctx, job); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return job.Clone(), nil
}

// spawn runs the pipeline detached from the caller. A panic inside the run is
// recovered and recorded on the job so it never takes the process down.
func (s *Service) spawn(jobID string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("pipeline panicked",
					slog.String("job_id", jobID),
					slog.Any("panic", r),
				)
				s.markCrashed(jobID, fmt.Sprintf("unexpected error: %v", r))
			}
		}()

		if err := s.runner.Run(ctx, jobID); err != nil {
			s.logger.Error("background processing failed",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// markCrashed moves a job that is still running to FAILED.
func (s *Service) markCrashed(jobID, msg string) {
	u := NewUpdate().
		SetStage(StageFailed).
		SetError(msg).
		AddTiming(TimingErrorOccurredAt, float64(time.Now().Unix()))
	if _, err := s.repo.Update(context.Background(), jobID, u); err != nil && !errors.Is(err, ErrJobTerminal) {
		s.logger.Error("failed to record crash",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
}

// Wait blocks until all background runs have returned.
func (s *Service) Wait() {
	s.wg.Wait()
}

// GetJob retrieves a job snapshot by ID.
func (s *Service) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// ListJobs returns all jobs, newest first.
func (s *Service) ListJobs(ctx context.Context) ([]*Job, error) {
	return s.repo.List(ctx)
}

// DeleteJob removes a job record.
func (s *Service) DeleteJob(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// normalizeInput applies submission defaults.
func normalizeInput(in SubmitInput) (SubmitInput, error) {
	name := strings.Join(strings.Fields(in.SubjectName), " ")
	if name == "" {
		return in, ErrSubjectRequired
	}
	name = cases.Title(language.English).String(name)
	in.SubjectName = name

	if strings.TrimSpace(in.Title) == "" {
		in.Title = name + "'s History"
	}
	if strings.TrimSpace(in.Description) == "" {
		in.Description = "The history and achievements of " + name
	}
	if in.AspectRatio == "" {
		in.AspectRatio = DefaultAspectRatio
	}
	if !supportedAspectRatios[in.AspectRatio] {
		return in, fmt.Errorf("%w: %s", ErrUnsupportedAspectRatio, in.AspectRatio)
	}
	return in, nil
}
