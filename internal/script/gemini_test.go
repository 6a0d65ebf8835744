package script

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	resp   *genai.GenerateContentResponse
	err    error
	prompt string
}

func (f *fakeModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	for _, p := range parts {
		if t, ok := p.(genai.Text); ok {
			f.prompt += string(t)
		}
	}
	return f.resp, f.err
}

func TestGeminiGenerator_JoinsTextParts(t *testing.T) {
	model := &fakeModel{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("Usain Bolt ran 9.58 seconds. "),
				genai.Text("**Nobody** has come close."),
			}},
		}},
	}}
	g := &GeminiGenerator{model: model}

	got, err := g.Generate(context.Background(), "Usain Bolt")

	require.NoError(t, err)
	assert.Equal(t, "Usain Bolt ran 9.58 seconds. Nobody has come close.", got)
	assert.Contains(t, model.prompt, "Usain Bolt")
	assert.Equal(t, ProviderGemini, g.Name())
	assert.NoError(t, g.Close())
}

func TestGeminiGenerator_NoCandidates(t *testing.T) {
	g := &GeminiGenerator{model: &fakeModel{resp: &genai.GenerateContentResponse{}}}

	_, err := g.Generate(context.Background(), "Usain Bolt")
	assert.ErrorIs(t, err, ErrEmptyScript)
}

func TestGeminiGenerator_APIError(t *testing.T) {
	boom := errors.New("quota exceeded")
	g := &GeminiGenerator{model: &fakeModel{err: boom}}

	_, err := g.Generate(context.Background(), "Usain Bolt")
	assert.ErrorIs(t, err, boom)
}
