package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time check that PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS jobs (
    id                    TEXT PRIMARY KEY,
    subject_name          TEXT NOT NULL,
    title                 TEXT NOT NULL DEFAULT '',
    description           TEXT NOT NULL DEFAULT '',
    aspect_ratio          TEXT NOT NULL,
    apply_effects         BOOLEAN NOT NULL DEFAULT TRUE,
    use_contextual_images BOOLEAN NOT NULL DEFAULT FALSE,
    stage                 TEXT NOT NULL,
    progress              INTEGER NOT NULL DEFAULT 0,
    error_message         TEXT NOT NULL DEFAULT '',
    script                TEXT NOT NULL DEFAULT '',
    image_urls            JSONB NOT NULL DEFAULT '[]'::jsonb,
    audio_url             TEXT NOT NULL DEFAULT '',
    subtitles_url         TEXT NOT NULL DEFAULT '',
    video_url             TEXT NOT NULL DEFAULT '',
    thumbnail_url         TEXT NOT NULL DEFAULT '',
    duration              DOUBLE PRECISION NOT NULL DEFAULT 0,
    step_timings          JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at            TIMESTAMPTZ NOT NULL,
    updated_at            TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS jobs_created_at_idx ON jobs (created_at DESC);
`

const jobColumns = `id, subject_name, title, description, aspect_ratio, apply_effects,
use_contextual_images, stage, progress, error_message, script, image_urls, audio_url,
subtitles_url, video_url, thumbnail_url, duration, step_timings, created_at, updated_at`

// PostgresRepository stores jobs in a PostgreSQL table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// NewPostgresPool opens a pgx pool for databaseURL.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the jobs table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("job: ensure schema: %w", err)
	}
	return nil
}

// Save inserts or replaces the job row.
func (r *PostgresRepository) Save(ctx context.Context, job *Job) error {
	j := job.Clone()
	urls, timings, err := encodeJSONColumns(j)
	if err != nil {
		return err
	}

	query := `
INSERT INTO jobs (` + jobColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, $13, $14, $15, $16, $17, $18::jsonb, $19, $20)
ON CONFLICT (id) DO UPDATE SET
    subject_name = EXCLUDED.subject_name,
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    aspect_ratio = EXCLUDED.aspect_ratio,
    apply_effects = EXCLUDED.apply_effects,
    use_contextual_images = EXCLUDED.use_contextual_images,
    stage = EXCLUDED.stage,
    progress = EXCLUDED.progress,
    error_message = EXCLUDED.error_message,
    script = EXCLUDED.script,
    image_urls = EXCLUDED.image_urls,
    audio_url = EXCLUDED.audio_url,
    subtitles_url = EXCLUDED.subtitles_url,
    video_url = EXCLUDED.video_url,
    thumbnail_url = EXCLUDED.thumbnail_url,
    duration = EXCLUDED.duration,
    step_timings = EXCLUDED.step_timings,
    updated_at = EXCLUDED.updated_at;
`
	_, err = r.pool.Exec(ctx, query,
		j.ID, j.SubjectName, j.Title, j.Description, j.AspectRatio, j.ApplyEffects,
		j.UseContextualImages, string(j.Stage), j.Progress, j.ErrorMessage, j.Script, urls,
		j.AudioURL, j.SubtitlesURL, j.VideoURL, j.ThumbnailURL, j.Duration, timings,
		j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("job: save %s: %w", j.ID, err)
	}
	return nil
}

// Update locks the row, applies u in memory to validate it, then writes the
// changed columns. New step timings are merged into the stored JSONB.
func (r *PostgresRepository) Update(ctx context.Context, id string, u Update) (*Job, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("job: begin update %s: %w", id, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	job, err := scanJob(tx.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if err := job.Apply(u); err != nil {
		return nil, err
	}

	urls, _, err := encodeJSONColumns(job)
	if err != nil {
		return nil, err
	}
	delta, err := json.Marshal(u.StepTimings)
	if err != nil {
		return nil, fmt.Errorf("job: marshal step timings: %w", err)
	}
	if u.StepTimings == nil {
		delta = []byte("{}")
	}

	query := `
UPDATE jobs
SET stage = $2,
    progress = $3,
    error_message = $4,
    script = $5,
    image_urls = $6::jsonb,
    audio_url = $7,
    subtitles_url = $8,
    video_url = $9,
    thumbnail_url = $10,
    duration = $11,
    step_timings = step_timings || $12::jsonb,
    updated_at = $13
WHERE id = $1;
`
	_, err = tx.Exec(ctx, query,
		id, string(job.Stage), job.Progress, job.ErrorMessage, job.Script, urls,
		job.AudioURL, job.SubtitlesURL, job.VideoURL, job.ThumbnailURL, job.Duration,
		string(delta), job.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("job: update %s: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("job: commit update %s: %w", id, err)
	}
	return job, nil
}

// FindByID fetches a job by its identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*Job, error) {
	return scanJob(r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
}

// List returns all jobs, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*Job, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("job: list: %w", err)
	}
	defer rows.Close()

	result := make([]*Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("job: list: %w", err)
	}
	return result, nil
}

// Delete removes a job row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("job: delete %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// scanJob maps one row in jobColumns order onto a Job.
func scanJob(row pgx.Row) (*Job, error) {
	var (
		job     Job
		stage   string
		urls    []byte
		timings []byte
	)
	err := row.Scan(
		&job.ID, &job.SubjectName, &job.Title, &job.Description, &job.AspectRatio,
		&job.ApplyEffects, &job.UseContextualImages, &stage, &job.Progress,
		&job.ErrorMessage, &job.Script, &urls, &job.AudioURL, &job.SubtitlesURL,
		&job.VideoURL, &job.ThumbnailURL, &job.Duration, &timings,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("job: scan: %w", err)
	}
	job.Stage = Stage(stage)

	if err := json.Unmarshal(urls, &job.ImageURLs); err != nil {
		return nil, fmt.Errorf("job: decode image_urls: %w", err)
	}
	job.StepTimings = StepTimings{}
	if err := json.Unmarshal(timings, &job.StepTimings); err != nil {
		return nil, fmt.Errorf("job: decode step_timings: %w", err)
	}
	if len(job.ImageURLs) == 0 {
		job.ImageURLs = nil
	}
	return &job, nil
}

func encodeJSONColumns(j *Job) (urls, timings string, err error) {
	urlList := j.ImageURLs
	if urlList == nil {
		urlList = []string{}
	}
	u, err := json.Marshal(urlList)
	if err != nil {
		return "", "", fmt.Errorf("job: marshal image_urls: %w", err)
	}
	st := j.StepTimings
	if st == nil {
		st = StepTimings{}
	}
	t, err := json.Marshal(st)
	if err != nil {
		return "", "", fmt.Errorf("job: marshal step_timings: %w", err)
	}
	return string(u), string(t), nil
}
