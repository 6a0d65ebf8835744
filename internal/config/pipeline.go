package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrUnknownProvider is returned when the pipeline file names a provider
// that does not exist for its capability.
var ErrUnknownProvider = errors.New("config: unknown provider")

// ErrInvalidSlides is returned for negative slide settings.
var ErrInvalidSlides = errors.New("config: slide settings must not be negative")

// Known provider names per capability, in default order.
var knownProviders = map[string][]string{
	"script":        {"perplexity", "gemini", "groq"},
	"images":        {"serpapi", "brave"},
	"narration":     {"elevenlabs", "groq", "edge-tts"},
	"transcription": {"groq-whisper", "whisper-cli"},
}

// Pipeline holds the optional YAML pipeline settings.
type Pipeline struct {
	Providers ProviderOrder `yaml:"providers"`
	Slides    Slides        `yaml:"slides"`
}

// ProviderOrder lists provider names per capability in the order they are tried.
type ProviderOrder struct {
	Script        []string `yaml:"script"`
	Images        []string `yaml:"images"`
	Narration     []string `yaml:"narration"`
	Transcription []string `yaml:"transcription"`
}

// Slides tunes composition. Zero values keep the compositor defaults.
type Slides struct {
	TargetSlides int `yaml:"target_slides"`
	FPS          int `yaml:"fps"`
}

// DefaultPipeline returns the built-in provider order.
func DefaultPipeline() *Pipeline {
	return &Pipeline{
		Providers: ProviderOrder{
			Script:        clone(knownProviders["script"]),
			Images:        clone(knownProviders["images"]),
			Narration:     clone(knownProviders["narration"]),
			Transcription: clone(knownProviders["transcription"]),
		},
	}
}

// LoadPipelineFile reads a pipeline file. An empty path returns the defaults.
func LoadPipelineFile(path string) (*Pipeline, error) {
	if path == "" {
		return DefaultPipeline(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open pipeline file: %w", err)
	}
	defer f.Close()
	return ParsePipeline(f)
}

// ParsePipeline decodes pipeline YAML. Capabilities left out keep the
// default order; unknown keys and provider names are rejected.
func ParsePipeline(r io.Reader) (*Pipeline, error) {
	p := &Pipeline{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse pipeline file: %w", err)
	}

	def := DefaultPipeline()
	orders := []struct {
		capability string
		list       *[]string
		fallback   []string
	}{
		{"script", &p.Providers.Script, def.Providers.Script},
		{"images", &p.Providers.Images, def.Providers.Images},
		{"narration", &p.Providers.Narration, def.Providers.Narration},
		{"transcription", &p.Providers.Transcription, def.Providers.Transcription},
	}
	for _, o := range orders {
		if len(*o.list) == 0 {
			*o.list = o.fallback
			continue
		}
		if err := checkNames(o.capability, *o.list); err != nil {
			return nil, err
		}
	}

	if p.Slides.TargetSlides < 0 || p.Slides.FPS < 0 {
		return nil, ErrInvalidSlides
	}
	return p, nil
}

func checkNames(capability string, names []string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if !contains(knownProviders[capability], n) {
			return fmt.Errorf("%w: %s provider %q", ErrUnknownProvider, capability, n)
		}
		if seen[n] {
			return fmt.Errorf("config: %s provider %q listed twice", capability, n)
		}
		seen[n] = true
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
