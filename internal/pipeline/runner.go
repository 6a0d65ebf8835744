// Package pipeline drives one job through script, images, narration,
// subtitles, composition and upload, persisting progress after each stage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maauso/sportsreel-api/internal/audio"
	"github.com/maauso/sportsreel-api/internal/compositor"
	"github.com/maauso/sportsreel-api/internal/images"
	"github.com/maauso/sportsreel-api/internal/job"
	"github.com/maauso/sportsreel-api/internal/narration"
	"github.com/maauso/sportsreel-api/internal/provider"
	"github.com/maauso/sportsreel-api/internal/script"
	"github.com/maauso/sportsreel-api/internal/storage"
	"github.com/maauso/sportsreel-api/internal/subtitles"
)

// ImageFetcher finds candidate images for a subject.
type ImageFetcher interface {
	Fetch(ctx context.Context, subject, script, aspectRatio string) ([]images.Candidate, error)
	FetchContextual(ctx context.Context, subject, script, aspectRatio string) ([]images.Candidate, error)
}

// SubtitleGenerator produces a subtitle track. It never fails.
type SubtitleGenerator interface {
	Generate(ctx context.Context, script, audioPath string, alignment *narration.Alignment) *subtitles.Track
}

// Composer renders the final video.
type Composer interface {
	Compose(ctx context.Context, req compositor.Request) (*compositor.Result, error)
}

// Deps are the collaborators of a Runner.
type Deps struct {
	Repo       job.Repository
	Scripts    *provider.Chain[script.Generator]
	Images     ImageFetcher
	Voices     *provider.Chain[narration.Synthesizer]
	Audio      audio.Preparer
	Subtitles  SubtitleGenerator
	Compositor Composer
	Storage    storage.Storage
	Logger     *slog.Logger
}

// progress holds the percentage set when a stage starts and when it ends.
var progress = map[job.Stage][2]int{
	job.StageGeneratingScript:    {10, 20},
	job.StageFetchingImages:      {30, 40},
	job.StageGeneratingAudio:     {50, 60},
	job.StageGeneratingSubtitles: {70, 70},
	job.StageComposingVideo:      {80, 80},
	job.StageUploading:           {90, 90},
}

// Runner is the job state machine. It implements job.Runner.
type Runner struct {
	deps   Deps
	logger *slog.Logger
}

// Compile-time check that Runner implements job.Runner.
var _ job.Runner = (*Runner)(nil)

// NewRunner creates a Runner.
func NewRunner(deps Deps) *Runner {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{deps: deps, logger: logger}
}

// run is the state carried between stages of one job.
type run struct {
	job    *job.Job
	dir    string
	logger *slog.Logger

	script    string
	imageURLs []string
	speech    *narration.Speech
	audio     *audio.Track
	srtPath   string
	composed  *compositor.Result
	snapshot  *job.Job
	startedAt time.Time
}

// Run drives the PENDING job jobID to COMPLETED or FAILED. A missing job is
// logged and returned without touching the store. Stage failures are
// recorded on the job and also returned.
func (r *Runner) Run(ctx context.Context, jobID string) error {
	j, err := r.deps.Repo.FindByID(ctx, jobID)
	if err != nil {
		r.logger.Error("job not found", slog.String("job_id", jobID), slog.String("error", err.Error()))
		return err
	}
	if j.Stage != job.StagePending {
		return fmt.Errorf("%w: %s is %s", ErrNotPending, jobID, j.Stage)
	}

	rs := &run{
		job:       j,
		logger:    r.logger.With(slog.String("job_id", jobID)),
		startedAt: time.Now(),
	}

	dir, cleanup, err := r.deps.Storage.NewWorkspace(ctx, "job-"+jobID)
	if err != nil {
		r.abort(rs, fmt.Errorf("create workspace: %w", err))
		return err
	}
	defer cleanup()
	rs.dir = dir

	stages := []struct {
		stage job.Stage
		fn    func(context.Context, *run) (job.Update, error)
	}{
		{job.StageGeneratingScript, r.generateScript},
		{job.StageFetchingImages, r.fetchImages},
		{job.StageGeneratingAudio, r.generateAudio},
		{job.StageGeneratingSubtitles, r.generateSubtitles},
		{job.StageComposingVideo, r.composeVideo},
		{job.StageUploading, r.uploadVideo},
	}
	for _, s := range stages {
		if err := r.step(ctx, rs, s.stage, s.fn); err != nil {
			return err
		}
	}

	return r.complete(ctx, rs)
}

// step marks stage as current, runs fn and records its output and timing.
// On failure it records "<label>_failed" and moves the job to FAILED.
func (r *Runner) step(ctx context.Context, rs *run, stage job.Stage, fn func(context.Context, *run) (job.Update, error)) error {
	p := progress[stage]
	start := time.Now()

	if _, err := r.deps.Repo.Update(ctx, rs.job.ID, job.NewUpdate().SetStage(stage).SetProgress(p[0])); err != nil {
		r.abort(rs, fmt.Errorf("persist %s: %w", stage, err))
		return err
	}
	rs.logger.Info("stage started", slog.String("stage", string(stage)))

	u, err := fn(ctx, rs)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		var se *StageError
		if !errors.As(err, &se) {
			se = failed(stage, err)
		}
		r.fail(rs, se, elapsed)
		return se
	}

	u = u.SetProgress(p[1]).AddTiming(stage.TimingLabel(), elapsed)
	snapshot, err := r.deps.Repo.Update(ctx, rs.job.ID, u)
	if err != nil {
		r.abort(rs, fmt.Errorf("persist %s result: %w", stage, err))
		return err
	}
	rs.snapshot = snapshot
	rs.logger.Info("stage finished",
		slog.String("stage", string(stage)),
		slog.Float64("seconds", elapsed),
	)
	return nil
}

func (r *Runner) generateScript(ctx context.Context, rs *run) (job.Update, error) {
	text, err := provider.Execute(ctx, r.deps.Scripts, func(ctx context.Context, g script.Generator) (string, error) {
		return g.Generate(ctx, rs.job.SubjectName)
	})
	if err != nil {
		return job.Update{}, err
	}
	rs.script = text
	rs.logger.Info("script generated", slog.Int("words", script.WordCount(text)))
	return job.NewUpdate().SetScript(text), nil
}

func (r *Runner) fetchImages(ctx context.Context, rs *run) (job.Update, error) {
	fetch := r.deps.Images.Fetch
	if rs.job.UseContextualImages {
		fetch = r.deps.Images.FetchContextual
	}
	cands, err := fetch(ctx, rs.job.SubjectName, rs.script, rs.job.AspectRatio)
	if err != nil {
		return job.Update{}, err
	}
	rs.imageURLs = images.URLs(cands)
	return job.NewUpdate().SetImageURLs(rs.imageURLs), nil
}

func (r *Runner) generateAudio(ctx context.Context, rs *run) (job.Update, error) {
	speech, err := provider.Execute(ctx, r.deps.Voices, func(ctx context.Context, s narration.Synthesizer) (*narration.Speech, error) {
		return s.Synthesize(ctx, rs.script)
	})
	if err != nil {
		return job.Update{}, err
	}

	track, err := r.deps.Audio.Prepare(ctx, speech.Audio, speech.Format, rs.dir)
	if err != nil {
		return job.Update{}, err
	}
	rs.speech = speech
	rs.audio = track
	rs.logger.Info("narration ready", slog.Float64("duration", track.Duration))
	return job.NewUpdate(), nil
}

// generateSubtitles builds the subtitle track while the narration upload
// runs alongside; both only need the audio file.
func (r *Runner) generateSubtitles(ctx context.Context, rs *run) (job.Update, error) {
	var (
		audioURL string
		track    *subtitles.Track
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		audioURL = r.uploadOptional(gctx, rs, job.StageGeneratingAudio, rs.audio.Path, rs.job.ID+".mp3")
		return nil
	})
	g.Go(func() error {
		track = r.deps.Subtitles.Generate(gctx, rs.script, rs.audio.Path, rs.speech.Alignment)
		return nil
	})
	_ = g.Wait()

	u := job.NewUpdate()
	if audioURL != "" {
		u = u.SetAudioURL(audioURL)
	}

	if track.Err != nil {
		r.logDegraded(rs, degraded(job.StageGeneratingSubtitles, track.Err))
	}
	rs.logger.Info("subtitles ready",
		slog.String("source", string(track.Source)),
		slog.Int("cues", len(track.Segments)),
	)

	srtPath := filepath.Join(rs.dir, "subtitles.srt")
	if err := subtitles.WriteFile(srtPath, track.Segments); err != nil {
		r.logDegraded(rs, degraded(job.StageGeneratingSubtitles, fmt.Errorf("write srt: %w", err)))
		return u, nil
	}
	rs.srtPath = srtPath

	if url := r.uploadOptional(ctx, rs, job.StageGeneratingSubtitles, srtPath, rs.job.ID+".srt"); url != "" {
		u = u.SetSubtitlesURL(url)
	}
	return u, nil
}

func (r *Runner) composeVideo(ctx context.Context, rs *run) (job.Update, error) {
	res, err := r.deps.Compositor.Compose(ctx, compositor.Request{
		ImageURLs:     rs.imageURLs,
		AudioPath:     rs.audio.Path,
		SubtitlesPath: rs.srtPath,
		Duration:      rs.audio.Duration,
		AspectRatio:   rs.job.AspectRatio,
		ApplyEffects:  rs.job.ApplyEffects,
		WorkDir:       rs.dir,
	})
	if err != nil {
		return job.Update{}, err
	}
	rs.composed = res
	return job.NewUpdate(), nil
}

func (r *Runner) uploadVideo(ctx context.Context, rs *run) (job.Update, error) {
	u := job.NewUpdate().SetDuration(rs.composed.Duration)

	if rs.composed.ThumbnailPath != "" {
		if url := r.uploadOptional(ctx, rs, job.StageUploading, rs.composed.ThumbnailPath, rs.job.ID+"-thumbnail.jpg"); url != "" {
			u = u.SetThumbnailURL(url)
		}
	}

	url, err := r.deps.Storage.Upload(ctx, rs.composed.VideoPath, rs.job.ID+"-video.mp4")
	if err != nil {
		return job.Update{}, fmt.Errorf("upload video: %w", err)
	}
	return u.SetVideoURL(url), nil
}

// complete records the total processing time and marks the job COMPLETED.
func (r *Runner) complete(ctx context.Context, rs *run) error {
	total := rs.snapshot.StepTimings.Total()
	u := job.NewUpdate().
		SetStage(job.StageCompleted).
		SetProgress(100).
		AddTiming(job.TimingTotal, total)
	if _, err := r.deps.Repo.Update(ctx, rs.job.ID, u); err != nil {
		r.abort(rs, fmt.Errorf("persist completion: %w", err))
		return err
	}
	rs.logger.Info("job completed",
		slog.Float64("total_processing_time", total),
		slog.Duration("wall_time", time.Since(rs.startedAt)),
	)
	return nil
}

// uploadOptional uploads a non-essential artifact. Failures are logged as
// degraded and yield an empty URL.
func (r *Runner) uploadOptional(ctx context.Context, rs *run, stage job.Stage, path, key string) string {
	url, err := r.deps.Storage.Upload(ctx, path, key)
	if err != nil {
		r.logDegraded(rs, degraded(stage, fmt.Errorf("upload %s: %w", key, err)))
		return ""
	}
	return url
}

func (r *Runner) logDegraded(rs *run, se *StageError) {
	rs.logger.Warn("stage degraded",
		slog.String("stage", string(se.Stage)),
		slog.String("error", se.Err.Error()),
	)
}

// fail records a stage failure. The update uses a fresh context so a
// cancelled run still lands in FAILED.
func (r *Runner) fail(rs *run, se *StageError, elapsed float64) {
	rs.logger.Error("stage failed",
		slog.String("stage", string(se.Stage)),
		slog.String("error", se.Err.Error()),
	)
	u := job.NewUpdate().
		SetStage(job.StageFailed).
		SetError(se.Error()).
		AddTiming(job.FailedLabel(se.Stage.TimingLabel()), elapsed)
	r.persistFailure(rs, u)
}

// abort records an error outside any stage's own work, such as a store or
// workspace failure, with an error_occurred_at marker.
func (r *Runner) abort(rs *run, err error) {
	rs.logger.Error("pipeline aborted", slog.String("error", err.Error()))
	u := job.NewUpdate().
		SetStage(job.StageFailed).
		SetError(err.Error()).
		AddTiming(job.TimingErrorOccurredAt, float64(time.Now().Unix()))
	r.persistFailure(rs, u)
}

func (r *Runner) persistFailure(rs *run, u job.Update) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := r.deps.Repo.Update(ctx, rs.job.ID, u); err != nil {
		rs.logger.Error("failed to record failure", slog.String("error", err.Error()))
	}
}
