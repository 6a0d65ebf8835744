// Package bootstrap provides dependency initialization for the SportsReel API.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/maauso/sportsreel-api/internal/audio"
	"github.com/maauso/sportsreel-api/internal/compositor"
	"github.com/maauso/sportsreel-api/internal/config"
	"github.com/maauso/sportsreel-api/internal/images"
	"github.com/maauso/sportsreel-api/internal/job"
	"github.com/maauso/sportsreel-api/internal/media"
	"github.com/maauso/sportsreel-api/internal/narration"
	"github.com/maauso/sportsreel-api/internal/pipeline"
	"github.com/maauso/sportsreel-api/internal/provider"
	"github.com/maauso/sportsreel-api/internal/renderworker"
	"github.com/maauso/sportsreel-api/internal/script"
	"github.com/maauso/sportsreel-api/internal/storage"
	"github.com/maauso/sportsreel-api/internal/subtitles"
)

// Dependencies holds all initialized dependencies for the entry points.
type Dependencies struct {
	Service *job.Service
	// PublicDir is set when uploads are stored locally and should be served.
	PublicDir string

	closers []func()
}

// Close releases clients opened during initialization, newest first.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...job.ServiceOption) (*Dependencies, error) {
	deps := &Dependencies{}
	ok := false
	defer func() {
		if !ok {
			deps.Close()
		}
	}()

	pipe, err := config.LoadPipelineFile(cfg.PipelineConfigFile)
	if err != nil {
		return nil, err
	}

	repo, err := deps.initRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	store, publicDir, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	deps.PublicDir = publicDir

	scripts, err := deps.scriptChain(ctx, cfg, pipe.Providers.Script, logger)
	if err != nil {
		return nil, err
	}
	searchers, err := searcherChain(cfg, pipe.Providers.Images, logger)
	if err != nil {
		return nil, err
	}
	voices, err := narrationChain(cfg, pipe.Providers.Narration, logger)
	if err != nil {
		return nil, err
	}
	transcribers, err := transcriptionChain(cfg, pipe.Providers.Transcription, logger)
	if err != nil {
		return nil, err
	}

	processor := media.NewFFmpegProcessor(cfg.FFmpegPath)
	renderers, err := rendererChain(cfg, processor, logger)
	if err != nil {
		return nil, err
	}

	compOpts := []compositor.Option{compositor.WithConcurrency(cfg.MaxConcurrentDownloads)}
	if pipe.Slides.TargetSlides > 0 {
		compOpts = append(compOpts, compositor.WithTargetSlides(pipe.Slides.TargetSlides))
	}
	if pipe.Slides.FPS > 0 {
		compOpts = append(compOpts, compositor.WithFPS(pipe.Slides.FPS))
	}
	comp := compositor.New(processor, images.NewHTTPDownloader(), renderers, logger, compOpts...)

	runner := pipeline.NewRunner(pipeline.Deps{
		Repo:       repo,
		Scripts:    scripts,
		Images:     images.NewFetcher(searchers, logger),
		Voices:     voices,
		Audio:      audio.NewFFmpegTranscoder(cfg.FFmpegPath),
		Subtitles:  subtitles.NewStage(transcribers, logger),
		Compositor: comp,
		Storage:    store,
		Logger:     logger,
	})

	opts = append([]job.ServiceOption{job.WithRunTimeout(cfg.JobTimeout)}, opts...)
	deps.Service = job.NewService(repo, runner, logger, opts...)

	logger.Info("pipeline configured",
		slog.Any("script_providers", scripts.Providers()),
		slog.Any("image_providers", searchers.Providers()),
		slog.Any("narration_providers", voices.Providers()),
		slog.Any("transcription_providers", transcribers.Providers()),
		slog.Any("renderers", renderers.Providers()),
	)

	ok = true
	return deps, nil
}

// initRepository creates the job store selected by JOB_STORE.
func (d *Dependencies) initRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (job.Repository, error) {
	switch cfg.JobStore {
	case config.JobStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		d.closers = append(d.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("redis job store configured", slog.String("addr", cfg.RedisAddr))
		return job.NewRedisRepository(client), nil

	case config.JobStorePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("create postgres pool: %w", err)
		}
		d.closers = append(d.closers, pool.Close)
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		repo := job.NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure jobs schema: %w", err)
		}
		logger.Info("postgres job store configured")
		return repo, nil

	default:
		logger.Info("in-memory job store configured")
		return job.NewMemoryRepository(), nil
	}
}

// initStorage creates the appropriate storage backend based on configuration.
// The returned directory is non-empty only for local storage.
func initStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, string, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			PublicURL:       cfg.S3PublicURL,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(ctx, cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, "", fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
			slog.String("endpoint", cfg.S3Endpoint),
		)
		return s3Store, "", nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir, cfg.PublicDir, cfg.PublicBaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", localStore.TempDir()),
		slog.String("public_dir", localStore.PublicDir()),
	)
	return localStore, localStore.PublicDir(), nil
}

// scriptChain builds script generators in the configured order. Backends
// without an API key are skipped.
func (d *Dependencies) scriptChain(ctx context.Context, cfg *config.Config, order []string, logger *slog.Logger) (*provider.Chain[script.Generator], error) {
	var gens []script.Generator
	for _, name := range order {
		switch name {
		case script.ProviderPerplexity:
			if cfg.PerplexityAPIKey == "" {
				continue
			}
			g, err := script.NewPerplexityGenerator(cfg.PerplexityAPIKey, cfg.PerplexityModel)
			if err != nil {
				return nil, fmt.Errorf("create perplexity generator: %w", err)
			}
			gens = append(gens, g)
		case script.ProviderGemini:
			if cfg.GeminiAPIKey == "" {
				continue
			}
			g, err := script.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
			if err != nil {
				return nil, fmt.Errorf("create gemini generator: %w", err)
			}
			d.closers = append(d.closers, func() { _ = g.Close() })
			gens = append(gens, g)
		case script.ProviderGroq:
			if cfg.GroqAPIKey == "" {
				continue
			}
			g, err := script.NewGroqGenerator(cfg.GroqAPIKey, cfg.GroqModel)
			if err != nil {
				return nil, fmt.Errorf("create groq generator: %w", err)
			}
			gens = append(gens, g)
		}
	}
	return provider.NewChain("script", logger, gens...), nil
}

func searcherChain(cfg *config.Config, order []string, logger *slog.Logger) (*provider.Chain[images.Searcher], error) {
	var searchers []images.Searcher
	for _, name := range order {
		switch name {
		case images.ProviderSerpAPI:
			if cfg.SerpAPIKey == "" {
				continue
			}
			s, err := images.NewSerpAPISearcher(cfg.SerpAPIKey, "")
			if err != nil {
				return nil, fmt.Errorf("create serpapi searcher: %w", err)
			}
			searchers = append(searchers, s)
		case images.ProviderBrave:
			if cfg.BraveAPIKey == "" {
				continue
			}
			s, err := images.NewBraveSearcher(cfg.BraveAPIKey, "")
			if err != nil {
				return nil, fmt.Errorf("create brave searcher: %w", err)
			}
			searchers = append(searchers, s)
		}
	}
	if len(searchers) == 0 {
		logger.Warn("no image search provider configured; jobs will fail at image fetch")
	}
	return provider.NewChain("images", logger, searchers...), nil
}

// narrationChain builds synthesizers in the configured order. edge-tts
// needs no key and is always available.
func narrationChain(cfg *config.Config, order []string, logger *slog.Logger) (*provider.Chain[narration.Synthesizer], error) {
	var synths []narration.Synthesizer
	for _, name := range order {
		switch name {
		case "elevenlabs":
			if cfg.ElevenLabsAPIKey == "" {
				continue
			}
			s, err := narration.NewElevenLabs(cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoiceID, "")
			if err != nil {
				return nil, fmt.Errorf("create elevenlabs synthesizer: %w", err)
			}
			synths = append(synths, s)
		case "groq":
			if cfg.GroqAPIKey == "" {
				continue
			}
			s, err := narration.NewGroqTTS(cfg.GroqAPIKey, "")
			if err != nil {
				return nil, fmt.Errorf("create groq synthesizer: %w", err)
			}
			synths = append(synths, s)
		case "edge-tts":
			synths = append(synths, narration.NewEdgeTTS(cfg.EdgeTTSPath, cfg.EdgeTTSVoice))
		}
	}
	return provider.NewChain("narration", logger, synths...), nil
}

// transcriptionChain builds transcribers in the configured order. The local
// whisper CLI is always available.
func transcriptionChain(cfg *config.Config, order []string, logger *slog.Logger) (*provider.Chain[subtitles.Transcriber], error) {
	var ts []subtitles.Transcriber
	for _, name := range order {
		switch name {
		case "groq-whisper":
			if cfg.GroqAPIKey == "" {
				continue
			}
			t, err := subtitles.NewGroqWhisper(cfg.GroqAPIKey, "")
			if err != nil {
				return nil, fmt.Errorf("create groq transcriber: %w", err)
			}
			ts = append(ts, t)
		case "whisper-cli":
			ts = append(ts, subtitles.NewWhisperCLI(cfg.WhisperPath, cfg.WhisperModel))
		}
	}
	return provider.NewChain("transcription", logger, ts...), nil
}

// rendererChain puts the remote render worker, when configured, ahead of
// local ffmpeg.
func rendererChain(cfg *config.Config, processor media.Processor, logger *slog.Logger) (*provider.Chain[compositor.Renderer], error) {
	var renderers []compositor.Renderer
	if cfg.RenderWorkerEnabled() {
		client, err := renderworker.NewClient(cfg.RenderWorkerURL, cfg.RenderWorkerToken)
		if err != nil {
			return nil, fmt.Errorf("create render worker client: %w", err)
		}
		renderers = append(renderers, renderworker.NewRenderer(client, logger))
	}
	renderers = append(renderers, compositor.NewLocalRenderer(processor))
	return provider.NewChain("render", logger, renderers...), nil
}
