package narration

import (
	"context"
	"fmt"

	"github.com/maauso/sportsreel-api/internal/apiclient"
)

// Compile-time check that GroqTTS implements Synthesizer.
var _ Synthesizer = (*GroqTTS)(nil)

// Groq text-to-speech defaults.
const (
	GroqBaseURL      = "https://api.groq.com/openai/v1"
	DefaultGroqModel = "playai-tts"
	DefaultGroqVoice = "Arista-PlayAI"
)

// GroqTTS synthesizes WAV speech through Groq's OpenAI-compatible endpoint.
type GroqTTS struct {
	client *apiclient.Client
	model  string
	voice  string
}

// NewGroqTTS creates a Groq backend. baseURL may be empty.
func NewGroqTTS(apiKey, baseURL string, opts ...apiclient.Option) (*GroqTTS, error) {
	if baseURL == "" {
		baseURL = GroqBaseURL
	}
	opts = append([]apiclient.Option{apiclient.WithBearerToken(apiKey)}, opts...)
	client, err := apiclient.New("groq-tts", baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &GroqTTS{client: client, model: DefaultGroqModel, voice: DefaultGroqVoice}, nil
}

// Name returns the backend name.
func (g *GroqTTS) Name() string {
	return "groq"
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize returns WAV audio without alignment.
func (g *GroqTTS) Synthesize(ctx context.Context, text string) (*Speech, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	audio, err := g.client.PostForBytes(ctx, "/audio/speech", speechRequest{
		Model:          g.model,
		Input:          text,
		Voice:          g.voice,
		ResponseFormat: FormatWAV,
	})
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("groq: %w", ErrEmptyAudio)
	}
	return &Speech{Audio: audio, Format: FormatWAV}, nil
}
