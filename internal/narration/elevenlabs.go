package narration

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/maauso/sportsreel-api/internal/apiclient"
)

// Compile-time check that ElevenLabs implements Synthesizer.
var _ Synthesizer = (*ElevenLabs)(nil)

const (
	// ElevenLabsBaseURL is the public API endpoint.
	ElevenLabsBaseURL = "https://api.elevenlabs.io/v1"
	// DefaultElevenLabsVoice is the narrator voice id.
	DefaultElevenLabsVoice = "XrExE9yKIg1WjnnlVkGX"
	// DefaultElevenLabsModel is a low-latency multilingual model.
	DefaultElevenLabsModel = "eleven_turbo_v2_5"
)

// ElevenLabs synthesizes speech with character timestamps.
type ElevenLabs struct {
	client  *apiclient.Client
	voiceID string
	modelID string
}

// NewElevenLabs creates an ElevenLabs backend. Empty voiceID and baseURL
// use the defaults.
func NewElevenLabs(apiKey, voiceID, baseURL string, opts ...apiclient.Option) (*ElevenLabs, error) {
	if voiceID == "" {
		voiceID = DefaultElevenLabsVoice
	}
	if baseURL == "" {
		baseURL = ElevenLabsBaseURL
	}
	opts = append([]apiclient.Option{apiclient.WithHeader("xi-api-key", apiKey)}, opts...)
	client, err := apiclient.New("elevenlabs", baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &ElevenLabs{client: client, voiceID: voiceID, modelID: DefaultElevenLabsModel}, nil
}

// Name returns the backend name.
func (e *ElevenLabs) Name() string {
	return "elevenlabs"
}

type elevenLabsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

type elevenLabsResponse struct {
	AudioBase64 string     `json:"audio_base64"`
	Alignment   *Alignment `json:"alignment"`
}

// Synthesize returns MP3 audio and its character alignment.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) (*Speech, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	var resp elevenLabsResponse
	path := "/text-to-speech/" + url.PathEscape(e.voiceID) + "/with-timestamps"
	if err := e.client.PostJSON(ctx, path, elevenLabsRequest{Text: text, ModelID: e.modelID}, &resp); err != nil {
		return nil, err
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioBase64)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: decode audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("elevenlabs: %w", ErrEmptyAudio)
	}

	speech := &Speech{Audio: audio, Format: FormatMP3}
	if resp.Alignment.Valid() {
		speech.Alignment = resp.Alignment
	}
	return speech, nil
}
