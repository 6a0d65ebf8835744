package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRepositoryContract exercises behaviour every Repository must share.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	t.Helper()

	t.Run("save and find", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		job := New()
		job.SubjectName = "Test Athlete"
		job.Title = "Test Athlete's History"

		require.NoError(t, repo.Save(ctx, job))

		found, err := repo.FindByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, found.ID)
		assert.Equal(t, "Test Athlete", found.SubjectName)
		assert.Equal(t, StagePending, found.Stage)
	})

	t.Run("find missing", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.FindByID(context.Background(), "nonexistent")
		assert.ErrorIs(t, err, ErrJobNotFound)
	})

	t.Run("update merges timings", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		job := New()
		require.NoError(t, repo.Save(ctx, job))

		_, err := repo.Update(ctx, job.ID, NewUpdate().
			SetStage(StageGeneratingScript).
			SetProgress(10))
		require.NoError(t, err)

		_, err = repo.Update(ctx, job.ID, NewUpdate().
			SetScript("script").
			SetProgress(20).
			AddTiming("script_generation", 1.5))
		require.NoError(t, err)

		updated, err := repo.Update(ctx, job.ID, NewUpdate().
			SetStage(StageFetchingImages).
			SetProgress(30).
			SetImageURLs([]string{"a", "b"}).
			AddTiming("image_fetch", 2))
		require.NoError(t, err)

		assert.Equal(t, StageFetchingImages, updated.Stage)
		assert.Equal(t, 30, updated.Progress)
		assert.Equal(t, "script", updated.Script)
		assert.Equal(t, []string{"a", "b"}, updated.ImageURLs)
		assert.InDelta(t, 1.5, updated.StepTimings["script_generation"], 1e-9)
		assert.InDelta(t, 2.0, updated.StepTimings["image_fetch"], 1e-9)

		found, err := repo.FindByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, updated.StepTimings, found.StepTimings)
	})

	t.Run("update rejects invalid transition", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		job := New()
		require.NoError(t, repo.Save(ctx, job))

		_, err := repo.Update(ctx, job.ID, NewUpdate().SetStage(StageCompleted))
		assert.ErrorIs(t, err, ErrInvalidTransition)

		found, err := repo.FindByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, StagePending, found.Stage)
	})

	t.Run("update missing", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Update(context.Background(), "nonexistent", NewUpdate().SetProgress(1))
		assert.ErrorIs(t, err, ErrJobNotFound)
	})

	t.Run("list newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		older := New()
		older.CreatedAt = time.Now().Add(-time.Hour).UTC()
		newer := New()
		require.NoError(t, repo.Save(ctx, older))
		require.NoError(t, repo.Save(ctx, newer))

		jobs, err := repo.List(ctx)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(jobs), 2)

		pos := map[string]int{}
		for i, j := range jobs {
			pos[j.ID] = i
		}
		assert.Less(t, pos[newer.ID], pos[older.ID])
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		job := New()
		require.NoError(t, repo.Save(ctx, job))

		require.NoError(t, repo.Delete(ctx, job.ID))
		_, err := repo.FindByID(ctx, job.ID)
		assert.ErrorIs(t, err, ErrJobNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, job.ID), ErrJobNotFound)
	})
}
