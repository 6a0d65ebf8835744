package renderworker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maauso/sportsreel-api/internal/media"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Submit(ctx context.Context, task Task) (string, error) {
	args := m.Called(ctx, task)
	return args.String(0), args.Error(1)
}

func (m *mockClient) Poll(ctx context.Context, taskID string) (PollResult, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).(PollResult), args.Error(1)
}

func (m *mockClient) DownloadOutput(ctx context.Context, outputURL, destPath string) error {
	args := m.Called(ctx, outputURL, destPath)
	return args.Error(0)
}

func writeSpec(t *testing.T) media.SlideshowSpec {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		return p
	}
	return media.SlideshowSpec{
		Slides: []media.Slide{
			{Path: write("a.jpg", "a"), Duration: 2.5},
			{Path: write("b.mp4", "b"), Duration: 2.5, Clip: true},
		},
		AudioPath:     write("narration.mp3", "audio"),
		SubtitlesPath: write("subs.srt", "1\n00:00:00,000 --> 00:00:01,000\nHi\n"),
		Output:        filepath.Join(dir, "video.mp4"),
		Width:         480,
		Height:        854,
		FPS:           30,
	}
}

func TestRenderer_Render(t *testing.T) {
	spec := writeSpec(t)
	client := new(mockClient)

	client.On("Submit", mock.Anything, mock.MatchedBy(func(task Task) bool {
		return len(task.Slides) == 2 &&
			task.Slides[0].DataBase64 == "YQ==" &&
			task.Slides[1].Clip &&
			task.AudioBase64 == "YXVkaW8=" &&
			task.SubtitlesSRT != "" &&
			task.Width == 480 && task.Height == 854
	})).Return("task-1", nil)
	client.On("Poll", mock.Anything, "task-1").Return(PollResult{Status: StatusRunning}, nil).Once()
	client.On("Poll", mock.Anything, "task-1").Return(PollResult{Status: StatusCompleted, OutputURL: "https://cdn/x.mp4"}, nil).Once()
	client.On("DownloadOutput", mock.Anything, "https://cdn/x.mp4", spec.Output).Return(nil)

	r := NewRenderer(client, nil, WithPollInterval(time.Millisecond))
	require.NoError(t, r.Render(context.Background(), spec))

	client.AssertExpectations(t)
	assert.Equal(t, "render-worker", r.Name())
}

func TestRenderer_TaskFailed(t *testing.T) {
	spec := writeSpec(t)
	client := new(mockClient)
	client.On("Submit", mock.Anything, mock.Anything).Return("task-2", nil)
	client.On("Poll", mock.Anything, "task-2").Return(PollResult{Status: StatusFailed, Error: "out of memory"}, nil)

	r := NewRenderer(client, nil, WithPollInterval(time.Millisecond))
	err := r.Render(context.Background(), spec)

	assert.ErrorIs(t, err, ErrTaskFailed)
	assert.Contains(t, err.Error(), "out of memory")
	client.AssertNotCalled(t, "DownloadOutput", mock.Anything, mock.Anything, mock.Anything)
}

func TestRenderer_Timeout(t *testing.T) {
	spec := writeSpec(t)
	client := new(mockClient)
	client.On("Submit", mock.Anything, mock.Anything).Return("task-3", nil)
	client.On("Poll", mock.Anything, "task-3").Return(PollResult{Status: StatusRunning}, nil)

	r := NewRenderer(client, nil,
		WithPollInterval(5*time.Millisecond),
		WithRenderTimeout(30*time.Millisecond),
	)
	err := r.Render(context.Background(), spec)
	assert.ErrorIs(t, err, ErrRenderTimeout)
}

func TestRenderer_SubmitError(t *testing.T) {
	spec := writeSpec(t)
	client := new(mockClient)
	client.On("Submit", mock.Anything, mock.Anything).Return("", errors.New("connection refused"))

	r := NewRenderer(client, nil)
	err := r.Render(context.Background(), spec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRenderer_MissingSlideFile(t *testing.T) {
	spec := writeSpec(t)
	spec.Slides[0].Path = filepath.Join(t.TempDir(), "missing.jpg")

	r := NewRenderer(new(mockClient), nil)
	assert.Error(t, r.Render(context.Background(), spec))
}

func TestRenderer_NoSlides(t *testing.T) {
	r := NewRenderer(new(mockClient), nil)
	err := r.Render(context.Background(), media.SlideshowSpec{})
	assert.ErrorIs(t, err, media.ErrNoSlides)
}
