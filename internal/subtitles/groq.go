package subtitles

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/maauso/sportsreel-api/internal/apiclient"
)

// Compile-time check that GroqWhisper implements Transcriber.
var _ Transcriber = (*GroqWhisper)(nil)

// Groq transcription defaults.
const (
	GroqBaseURL        = "https://api.groq.com/openai/v1"
	DefaultGroqWhisper = "whisper-large-v3"
)

// GroqWhisper transcribes audio with Groq's hosted Whisper.
type GroqWhisper struct {
	client *apiclient.Client
	model  string
}

// NewGroqWhisper creates a Groq transcription backend. baseURL may be empty.
func NewGroqWhisper(apiKey, baseURL string, opts ...apiclient.Option) (*GroqWhisper, error) {
	if baseURL == "" {
		baseURL = GroqBaseURL
	}
	opts = append([]apiclient.Option{apiclient.WithBearerToken(apiKey)}, opts...)
	client, err := apiclient.New("groq-whisper", baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &GroqWhisper{client: client, model: DefaultGroqWhisper}, nil
}

// Name returns the backend name.
func (g *GroqWhisper) Name() string {
	return "groq-whisper"
}

type verboseTranscription struct {
	Segments []Segment `json:"segments"`
}

// Transcribe uploads the audio and returns verbose_json segments.
func (g *GroqWhisper) Transcribe(ctx context.Context, audioPath string) ([]Segment, error) {
	body, contentType, err := g.multipartBody(audioPath)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(ctx, apiclient.Request{
		Method:      http.MethodPost,
		Path:        "/audio/transcriptions",
		ContentType: contentType,
		Body:        body,
	})
	if err != nil {
		return nil, err
	}

	var out verboseTranscription
	if err := json.Unmarshal(resp, &out); err != nil {
		return nil, fmt.Errorf("groq-whisper: unmarshal response: %w", err)
	}

	segs := make([]Segment, 0, len(out.Segments))
	for _, s := range out.Segments {
		if s.Text = strings.TrimSpace(s.Text); s.Text != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("groq-whisper: %w", ErrNoSegments)
	}
	return segs, nil
}

func (g *GroqWhisper) multipartBody(audioPath string) ([]byte, string, error) {
	f, err := os.Open(audioPath) // #nosec G304 - path inside the job workspace
	if err != nil {
		return nil, "", fmt.Errorf("groq-whisper: open audio: %w", err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("groq-whisper: create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("groq-whisper: copy audio: %w", err)
	}
	for k, v := range map[string]string{
		"model":           g.model,
		"response_format": "verbose_json",
		"language":        "en",
	} {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("groq-whisper: write field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("groq-whisper: close form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
