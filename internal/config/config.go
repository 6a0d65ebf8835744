// Package config provides configuration loading from environment variables,
// an optional .env file and an optional YAML pipeline file.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Job store backends.
const (
	JobStoreMemory   = "memory"
	JobStoreRedis    = "redis"
	JobStorePostgres = "postgres"
)

// Static errors for configuration validation.
var (
	// ErrScriptProviderRequired is returned when no script backend has a key.
	ErrScriptProviderRequired = errors.New("config: one of PERPLEXITY_API_KEY, GEMINI_API_KEY or GROQ_API_KEY is required")
	// ErrRedisAddrRequired is returned when JOB_STORE=redis without REDIS_ADDR.
	ErrRedisAddrRequired = errors.New("config: REDIS_ADDR is required when JOB_STORE=redis")
	// ErrDatabaseURLRequired is returned when JOB_STORE=postgres without DATABASE_URL.
	ErrDatabaseURLRequired = errors.New("config: DATABASE_URL is required when JOB_STORE=postgres")
	// ErrUnknownJobStore is returned for JOB_STORE values other than memory, redis and postgres.
	ErrUnknownJobStore = errors.New("config: unknown JOB_STORE")
	// ErrInvalidConcurrency is returned when MAX_CONCURRENT_DOWNLOADS is below 1.
	ErrInvalidConcurrency = errors.New("config: MAX_CONCURRENT_DOWNLOADS must be at least 1")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port           int           `env:"PORT, default=8080" json:"port"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS, default=*" json:"allowed_origins"`
	JobTimeout     time.Duration `env:"JOB_TIMEOUT, default=30m" json:"job_timeout"`

	// Storage settings
	TempDir       string `env:"TEMP_DIR, default=/tmp/sportsreel" json:"temp_dir"`
	PublicDir     string `env:"PUBLIC_DIR" json:"public_dir,omitempty"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" json:"public_base_url,omitempty"`

	// Job store settings
	JobStore      string `env:"JOB_STORE, default=memory" json:"job_store"`
	RedisAddr     string `env:"REDIS_ADDR" json:"redis_addr,omitempty"`
	RedisPassword string `env:"REDIS_PASSWORD" json:"-"` // Masked in JSON
	RedisDB       int    `env:"REDIS_DB, default=0" json:"redis_db"`
	DatabaseURL   string `env:"DATABASE_URL" json:"-"` // Masked in JSON

	// Script providers
	PerplexityAPIKey string `env:"PERPLEXITY_API_KEY" json:"-"`
	PerplexityModel  string `env:"PERPLEXITY_MODEL, default=sonar" json:"perplexity_model"`
	GeminiAPIKey     string `env:"GEMINI_API_KEY" json:"-"`
	GeminiModel      string `env:"GEMINI_MODEL, default=gemini-2.0-flash" json:"gemini_model"`
	GroqAPIKey       string `env:"GROQ_API_KEY" json:"-"`
	GroqModel        string `env:"GROQ_MODEL, default=llama3-70b-8192" json:"groq_model"`

	// Image search providers
	SerpAPIKey  string `env:"SERP_API_KEY" json:"-"`
	BraveAPIKey string `env:"BRAVE_API_KEY" json:"-"`

	// Narration providers
	ElevenLabsAPIKey  string `env:"ELEVENLABS_API_KEY" json:"-"`
	ElevenLabsVoiceID string `env:"ELEVENLABS_VOICE_ID" json:"elevenlabs_voice_id,omitempty"`
	EdgeTTSPath       string `env:"EDGE_TTS_PATH" json:"edge_tts_path,omitempty"`
	EdgeTTSVoice      string `env:"EDGE_TTS_VOICE" json:"edge_tts_voice,omitempty"`

	// Transcription and media binaries
	WhisperPath  string `env:"WHISPER_PATH" json:"whisper_path,omitempty"`
	WhisperModel string `env:"WHISPER_MODEL, default=base" json:"whisper_model"`
	FFmpegPath   string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`

	// Optional S3 / R2 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	S3PublicURL        string `env:"S3_PUBLIC_URL" json:"s3_public_url,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Optional remote render worker
	RenderWorkerURL   string `env:"RENDER_WORKER_URL" json:"render_worker_url,omitempty"`
	RenderWorkerToken string `env:"RENDER_WORKER_TOKEN" json:"-"`

	// Processing settings
	MaxConcurrentDownloads int    `env:"MAX_CONCURRENT_DOWNLOADS, default=4" json:"max_concurrent_downloads"`
	PipelineConfigFile     string `env:"PIPELINE_CONFIG_FILE" json:"pipeline_config_file,omitempty"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// LoadDotEnv loads variables from the given files (".env" when none are
// given) without overriding the existing environment. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig
// and validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.PerplexityAPIKey == "" && c.GeminiAPIKey == "" && c.GroqAPIKey == "" {
		return ErrScriptProviderRequired
	}
	switch strings.ToLower(c.JobStore) {
	case "", JobStoreMemory:
	case JobStoreRedis:
		if c.RedisAddr == "" {
			return ErrRedisAddrRequired
		}
	case JobStorePostgres:
		if c.DatabaseURL == "" {
			return ErrDatabaseURLRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJobStore, c.JobStore)
	}
	if c.MaxConcurrentDownloads < 1 {
		return ErrInvalidConcurrency
	}
	return nil
}

// S3Enabled returns true if a bucket is configured. The region may be
// omitted for R2-style endpoints.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && (c.S3Region != "" || c.S3Endpoint != "")
}

// RenderWorkerEnabled returns true if the remote render worker is configured.
func (c *Config) RenderWorkerEnabled() bool {
	return c.RenderWorkerURL != "" && c.RenderWorkerToken != ""
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, JobStore: %s, RedisAddr: %s, DatabaseURL: %s, TempDir: %s, PublicDir: %s, "+
			"Perplexity: %s, Gemini: %s, Groq: %s, SerpAPI: %s, Brave: %s, ElevenLabs: %s, "+
			"S3Bucket: %s, S3Region: %s, S3Endpoint: %s, AWSAccessKeyID: %s, AWSSecretAccessKey: %s, "+
			"RenderWorkerURL: %s, RenderWorkerToken: %s, MaxConcurrentDownloads: %d, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.JobStore,
		c.RedisAddr,
		mask(c.DatabaseURL),
		c.TempDir,
		c.PublicDir,
		mask(c.PerplexityAPIKey),
		mask(c.GeminiAPIKey),
		mask(c.GroqAPIKey),
		mask(c.SerpAPIKey),
		mask(c.BraveAPIKey),
		mask(c.ElevenLabsAPIKey),
		c.S3Bucket,
		c.S3Region,
		c.S3Endpoint,
		mask(c.AWSAccessKeyID),
		mask(c.AWSSecretAccessKey),
		c.RenderWorkerURL,
		mask(c.RenderWorkerToken),
		c.MaxConcurrentDownloads,
		c.LogFormat,
		c.LogLevel,
	)
}

func mask(secret string) string {
	if secret == "" {
		return "<unset>"
	}
	return "****"
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
