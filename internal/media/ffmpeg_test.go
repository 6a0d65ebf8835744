package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available.
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH, skipping test")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH, skipping test")
	}
}

// createTestImage creates a simple test image using ffmpeg.
func createTestImage(t *testing.T, path string, width, height int) {
	t.Helper()

	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=red:s=%dx%d:d=1", width, height),
		"-frames:v", "1",
		path,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create test image: %v\noutput: %s", err, output)
	}
}

// createTestAudio creates a silent mp3 of the given length.
func createTestAudio(t *testing.T, path string, duration float64) {
	t.Helper()

	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=44100:cl=mono:d=%.1f", duration),
		"-codec:a", "libmp3lame",
		path,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create test audio: %v\noutput: %s", err, output)
	}
}

type recordedCall struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []recordedCall
	stdout map[string]string
	err    error
	stderr string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (CommandResult, error) {
	f.calls = append(f.calls, recordedCall{name: name, args: append([]string(nil), args...)})
	if f.err != nil {
		return CommandResult{Stderr: f.stderr, ExitCode: 1}, f.err
	}
	return CommandResult{Stdout: f.stdout[name]}, nil
}

func (f *fakeRunner) last() recordedCall {
	return f.calls[len(f.calls)-1]
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func newFakeProcessor(r *fakeRunner) *FFmpegProcessor {
	p := NewFFmpegProcessor("")
	p.runner = r
	return p
}

func TestNewFFmpegProcessor_ProbePath(t *testing.T) {
	p := NewFFmpegProcessor("")
	assert.Equal(t, "ffmpeg", p.ffmpegPath)
	assert.Equal(t, "ffprobe", p.ffprobePath)

	p = NewFFmpegProcessor("/opt/ffmpeg/bin/ffmpeg")
	assert.Equal(t, "/opt/ffmpeg/bin/ffprobe", p.ffprobePath)
}

func TestFitImage_ChoosesFilterFromProbe(t *testing.T) {
	tests := []struct {
		name   string
		probe  string
		filter string
	}{
		{name: "landscape into portrait crops", probe: "1920x1080\n", filter: "scale=-2:854,crop=480:854"},
		{name: "matching ratio stretches", probe: "720x1280\n", filter: "scale=480:854"},
		{name: "tall strip pads", probe: "400x1600\n", filter: "pad=480:854"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{stdout: map[string]string{"ffprobe": tt.probe}}
			p := newFakeProcessor(r)

			err := p.FitImage(context.Background(), "in.jpg", "out.jpg", 480, 854)
			require.NoError(t, err)
			require.Len(t, r.calls, 2)

			assert.Equal(t, "ffprobe", r.calls[0].name)
			assert.Equal(t, "ffmpeg", r.calls[1].name)
			assert.Contains(t, argAfter(r.calls[1].args, "-vf"), tt.filter)
			assert.Equal(t, "1", argAfter(r.calls[1].args, "-frames:v"))
			assert.Equal(t, "out.jpg", r.calls[1].args[len(r.calls[1].args)-1])
		})
	}
}

func TestFitImage_InvalidDimensions(t *testing.T) {
	p := newFakeProcessor(&fakeRunner{})
	err := p.FitImage(context.Background(), "in.jpg", "out.jpg", 0, 854)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestRenderEffectClip_Args(t *testing.T) {
	r := &fakeRunner{}
	p := newFakeProcessor(r)

	err := p.RenderEffectClip(context.Background(), "still.jpg", "clip.mp4", EffectZoomIn, 5.625, 480, 854)
	require.NoError(t, err)

	args := r.last().args
	assert.Equal(t, "1", argAfter(args, "-loop"))
	assert.Equal(t, "5.625", argAfter(args, "-t"))
	assert.Equal(t, "libx264", argAfter(args, "-c:v"))
	assert.Equal(t, "yuv420p", argAfter(args, "-pix_fmt"))
	assert.Contains(t, argAfter(args, "-vf"), "zoompan=")
}

func TestRenderEffectClip_InvalidDuration(t *testing.T) {
	p := newFakeProcessor(&fakeRunner{})
	err := p.RenderEffectClip(context.Background(), "a.jpg", "b.mp4", EffectPanLeft, 0, 480, 854)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestBuildConcatList(t *testing.T) {
	t.Run("stills repeat the last entry", func(t *testing.T) {
		list := buildConcatList([]Slide{
			{Path: "/w/a.jpg", Duration: 5.5},
			{Path: "/w/b.jpg", Duration: 4.25},
		})
		want := "file '/w/a.jpg'\nduration 5.500\nfile '/w/b.jpg'\nduration 4.250\nfile '/w/b.jpg'\n"
		if list != want {
			t.Errorf("buildConcatList() =\n%s\nwant\n%s", list, want)
		}
	})

	t.Run("clips carry no duration", func(t *testing.T) {
		list := buildConcatList([]Slide{
			{Path: "/w/a.mp4", Duration: 5, Clip: true},
			{Path: "/w/b.mp4", Duration: 5, Clip: true},
		})
		assert.Equal(t, "file '/w/a.mp4'\nfile '/w/b.mp4'\n", list)
	})

	t.Run("quotes are escaped", func(t *testing.T) {
		list := buildConcatList([]Slide{{Path: "/w/o'neal.jpg", Duration: 1}})
		assert.Contains(t, list, `file '/w/o'\''neal.jpg'`)
	})
}

func TestRenderSlideshow_Args(t *testing.T) {
	dir := t.TempDir()
	r := &fakeRunner{}
	p := newFakeProcessor(r)

	spec := SlideshowSpec{
		Slides:        []Slide{{Path: filepath.Join(dir, "a.jpg"), Duration: 3}},
		AudioPath:     filepath.Join(dir, "narration.mp3"),
		SubtitlesPath: filepath.Join(dir, "subs.srt"),
		Output:        filepath.Join(dir, "out.mp4"),
		Width:         480,
		Height:        854,
	}
	require.NoError(t, p.RenderSlideshow(context.Background(), spec))

	args := r.last().args
	assert.Equal(t, "concat", argAfter(args, "-f"))
	assert.Contains(t, args, "-shortest")
	assert.Equal(t, "+faststart", argAfter(args, "-movflags"))
	assert.Equal(t, "aac", argAfter(args, "-c:a"))

	vf := argAfter(args, "-vf")
	assert.True(t, strings.HasPrefix(vf, "scale=480:854"), vf)
	assert.Contains(t, vf, "subtitles=")
	assert.Contains(t, vf, "fps=30")

	// The concat list is removed after rendering.
	matches, _ := filepath.Glob(filepath.Join(dir, "ffmpeg-concat-*.txt"))
	assert.Empty(t, matches)
}

func TestRenderSlideshow_NoSubtitles(t *testing.T) {
	r := &fakeRunner{}
	p := newFakeProcessor(r)

	spec := SlideshowSpec{
		Slides: []Slide{{Path: "a.jpg", Duration: 1}},
		Output: filepath.Join(t.TempDir(), "out.mp4"),
		Width:  480, Height: 480,
	}
	require.NoError(t, p.RenderSlideshow(context.Background(), spec))
	assert.NotContains(t, argAfter(r.last().args, "-vf"), "subtitles=")
}

func TestRenderSlideshow_NoSlides(t *testing.T) {
	p := newFakeProcessor(&fakeRunner{})
	err := p.RenderSlideshow(context.Background(), SlideshowSpec{Width: 480, Height: 854})
	assert.ErrorIs(t, err, ErrNoSlides)
}

func TestRunFFmpeg_ErrorCarriesStderr(t *testing.T) {
	r := &fakeRunner{err: errors.New("exit status 1"), stderr: "No such file or directory"}
	p := newFakeProcessor(r)

	err := p.ExtractFrame(context.Background(), "missing.mp4", "out.jpg")
	require.Error(t, err)

	var ffErr *FFmpegError
	require.ErrorAs(t, err, &ffErr)
	assert.Contains(t, ffErr.Stderr, "No such file")
	assert.Contains(t, ffErr.Error(), "missing.mp4")
}

func TestImageSize_ParsesProbeOutput(t *testing.T) {
	r := &fakeRunner{stdout: map[string]string{"ffprobe": "1024x768\n"}}
	p := newFakeProcessor(r)

	w, h, err := p.ImageSize(context.Background(), "x.jpg")
	require.NoError(t, err)
	assert.Equal(t, 1024, w)
	assert.Equal(t, 768, h)

	r.stdout["ffprobe"] = "garbage"
	_, _, err = p.ImageSize(context.Background(), "x.jpg")
	assert.ErrorIs(t, err, ErrFFprobeExecution)
}

func TestEscapeFilterPath(t *testing.T) {
	assert.Equal(t, `C\:/tmp/it\'s.srt`, escapeFilterPath(`C:\tmp\it's.srt`))
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	dst := filepath.Join(dir, "b.jpg")
	require.NoError(t, os.WriteFile(src, []byte("jpeg"), 0o600))

	require.NoError(t, CopyFile(src, dst))
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(got))

	assert.Error(t, CopyFile(filepath.Join(dir, "missing"), dst))
}

func TestFFmpegProcessor_FitImage(t *testing.T) {
	skipIfNoFFmpeg(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dir := t.TempDir()
	src := filepath.Join(dir, "wide.png")
	dst := filepath.Join(dir, "fitted.png")
	createTestImage(t, src, 800, 400)

	p := NewFFmpegProcessor("")
	require.NoError(t, p.FitImage(ctx, src, dst, 480, 854))

	w, h, err := p.ImageSize(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, 480, w)
	assert.Equal(t, 854, h)
}

func TestFFmpegProcessor_RenderSlideshow(t *testing.T) {
	skipIfNoFFmpeg(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	dir := t.TempDir()
	p := NewFFmpegProcessor("")

	var slides []Slide
	for i := 0; i < 2; i++ {
		raw := filepath.Join(dir, fmt.Sprintf("raw%d.png", i))
		fitted := filepath.Join(dir, fmt.Sprintf("slide%d.png", i))
		createTestImage(t, raw, 200, 200)
		require.NoError(t, p.FitImage(ctx, raw, fitted, 64, 64))
		slides = append(slides, Slide{Path: fitted, Duration: 1})
	}
	audioPath := filepath.Join(dir, "narration.mp3")
	createTestAudio(t, audioPath, 2)

	out := filepath.Join(dir, "video.mp4")
	err := p.RenderSlideshow(ctx, SlideshowSpec{
		Slides:    slides,
		AudioPath: audioPath,
		Output:    out,
		Width:     64,
		Height:    64,
	})
	require.NoError(t, err)

	d, err := p.Duration(ctx, out)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, d, 0.5)

	thumb := filepath.Join(dir, "thumb.jpg")
	require.NoError(t, p.ExtractFrame(ctx, out, thumb))
	_, err = os.Stat(thumb)
	assert.NoError(t, err)
}

func TestFFmpegProcessor_RenderPlaceholder(t *testing.T) {
	skipIfNoFFmpeg(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dst := filepath.Join(t.TempDir(), "placeholder.jpg")
	p := NewFFmpegProcessor("")
	if err := p.RenderPlaceholder(ctx, dst, "No Thumbnail", 480, 854); err != nil {
		// drawtext needs ffmpeg built with libfreetype.
		t.Skipf("drawtext unavailable: %v", err)
	}
	w, h, err := p.ImageSize(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, 480, w)
	assert.Equal(t, 854, h)
}
