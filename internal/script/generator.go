// Package script generates the narration script for a subject.
// Each backend implements Generator; bootstrap arranges them in a
// provider.Chain so the first backend that answers wins.
package script

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Provider names.
const (
	ProviderPerplexity = "perplexity"
	ProviderGemini     = "gemini"
	ProviderGroq       = "groq"
)

// ErrEmptyScript is returned when a backend answers with no usable text.
var ErrEmptyScript = errors.New("script: empty script returned")

// Generator writes a short narration script about a subject.
type Generator interface {
	// Name identifies the backend.
	Name() string
	// Generate returns plain narration text for subjectName.
	Generate(ctx context.Context, subjectName string) (string, error)
}

// SystemPrompt frames chat-style backends.
const SystemPrompt = "You are a sports historian and content creator specializing in concise, engaging scripts about sports celebrities."

// Prompt returns the user prompt shared by all backends.
func Prompt(subjectName string) string {
	return fmt.Sprintf(`Create an engaging, factual 45-second script about the sports career and achievements of %s.

The script should:
1. Start with an attention-grabbing fact or achievement
2. Cover key milestones in their career
3. Mention statistics or records they've set
4. Include a memorable quote or anecdote if relevant
5. End with their legacy or impact on their sport

Keep the script concise (around 120-150 words) and focused on the most interesting aspects of their career.
The tone should be informative yet conversational, suitable for a short-form video.

Only return the script text, with no additional formatting or commentary.`, subjectName)
}

var (
	citationRe  = regexp.MustCompile(`\[\d+(?:,\s*\d+)*\]`)
	directionRe = regexp.MustCompile(`(?m)^\s*[\[(][^\])]*[\])]\s*$`)
	markdownRe  = regexp.MustCompile(`[*_#>` + "`" + `]+`)
	labelRe     = regexp.MustCompile(`(?im)^\s*(narrator|script|voiceover|voice over)\s*:\s*`)
)

// Clean strips formatting a model may add despite instructions: citation
// markers, stage directions on their own line, markdown and speaker labels.
// Whitespace is collapsed to single spaces.
func Clean(text string) string {
	text = citationRe.ReplaceAllString(text, "")
	text = directionRe.ReplaceAllString(text, "")
	text = labelRe.ReplaceAllString(text, "")
	text = markdownRe.ReplaceAllString(text, "")
	text = strings.Trim(strings.TrimSpace(text), `"`)
	return strings.Join(strings.Fields(text), " ")
}

// finish cleans raw model output and rejects empty results.
func finish(provider, raw string) (string, error) {
	s := Clean(raw)
	if s == "" {
		return "", fmt.Errorf("%s: %w", provider, ErrEmptyScript)
	}
	return s, nil
}

// WordCount returns the number of whitespace separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
