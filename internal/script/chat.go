package script

import (
	"context"
	"fmt"

	"github.com/maauso/sportsreel-api/internal/apiclient"
)

// Compile-time check that ChatGenerator implements Generator.
var _ Generator = (*ChatGenerator)(nil)

// Default endpoints of OpenAI-compatible chat APIs.
const (
	PerplexityBaseURL = "https://api.perplexity.ai"
	GroqBaseURL       = "https://api.groq.com/openai/v1"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ChatGenerator calls an OpenAI-compatible /chat/completions endpoint.
// Perplexity and Groq both speak this protocol.
type ChatGenerator struct {
	name   string
	client *apiclient.Client
	model  string
}

// NewChatGenerator creates a generator named name using client and model.
func NewChatGenerator(name string, client *apiclient.Client, model string) *ChatGenerator {
	return &ChatGenerator{name: name, client: client, model: model}
}

// NewPerplexityGenerator creates a Perplexity backend.
func NewPerplexityGenerator(apiKey, model string, opts ...apiclient.Option) (*ChatGenerator, error) {
	if model == "" {
		model = "sonar"
	}
	opts = append([]apiclient.Option{apiclient.WithBearerToken(apiKey)}, opts...)
	client, err := apiclient.New(ProviderPerplexity, PerplexityBaseURL, opts...)
	if err != nil {
		return nil, err
	}
	return NewChatGenerator(ProviderPerplexity, client, model), nil
}

// NewGroqGenerator creates a Groq backend.
func NewGroqGenerator(apiKey, model string, opts ...apiclient.Option) (*ChatGenerator, error) {
	if model == "" {
		model = "llama3-70b-8192"
	}
	opts = append([]apiclient.Option{apiclient.WithBearerToken(apiKey)}, opts...)
	client, err := apiclient.New(ProviderGroq, GroqBaseURL, opts...)
	if err != nil {
		return nil, err
	}
	return NewChatGenerator(ProviderGroq, client, model), nil
}

// Name returns the backend name.
func (g *ChatGenerator) Name() string {
	return g.name
}

// Generate asks the chat model for a script.
func (g *ChatGenerator) Generate(ctx context.Context, subjectName string) (string, error) {
	req := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: Prompt(subjectName)},
		},
		Temperature: 0.7,
		MaxTokens:   500,
	}

	var resp chatResponse
	if err := g.client.PostJSON(ctx, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", g.name, ErrEmptyScript)
	}
	return finish(g.name, resp.Choices[0].Message.Content)
}
