package script

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Compile-time check that GeminiGenerator implements Generator.
var _ Generator = (*GeminiGenerator)(nil)

// contentGenerator is the subset of *genai.GenerativeModel used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator generates scripts with the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  contentGenerator
}

// NewGeminiGenerator connects to Gemini with apiKey.
// Close releases the underlying client.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	m := client.GenerativeModel(model)
	m.SetTemperature(0.2)
	m.SystemInstruction = genai.NewUserContent(genai.Text(SystemPrompt))

	return &GeminiGenerator{client: client, model: m}, nil
}

// Name returns the backend name.
func (g *GeminiGenerator) Name() string {
	return ProviderGemini
}

// Generate asks Gemini for a script and joins the text parts of the first candidate.
func (g *GeminiGenerator) Generate(ctx context.Context, subjectName string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(Prompt(subjectName)))
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: %w", ErrEmptyScript)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return finish(ProviderGemini, sb.String())
}

// Close releases the Gemini client.
func (g *GeminiGenerator) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}
