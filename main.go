// Command sportsreel generates one narrated video in-process and prints the
// finished job as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/maauso/sportsreel-api/internal/bootstrap"
	"github.com/maauso/sportsreel-api/internal/config"
	"github.com/maauso/sportsreel-api/internal/job"
)

var errJobFailed = errors.New("job failed")

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	subject := flag.String("subject", "", "person the video is about (required)")
	title := flag.String("title", "", "video title")
	description := flag.String("description", "", "video description")
	aspect := flag.String("aspect", job.DefaultAspectRatio, "aspect ratio: 9:16, 16:9 or 1:1")
	noEffects := flag.Bool("no-effects", false, "render still slides without pan/zoom")
	contextual := flag.Bool("contextual", false, "pick one image per script sentence")
	flag.Parse()

	if *subject == "" {
		flag.Usage()
		return job.ErrSubjectRequired
	}

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	ctx := context.Background()
	deps, err := bootstrap.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}
	defer deps.Close()

	created, err := deps.Service.Submit(ctx, job.SubmitInput{
		SubjectName:         *subject,
		Title:               *title,
		Description:         *description,
		AspectRatio:         *aspect,
		ApplyEffects:        !*noEffects,
		UseContextualImages: *contextual,
	})
	if err != nil {
		return fmt.Errorf("submit job: %w", err)
	}
	deps.Service.Wait()

	final, err := deps.Service.GetJob(ctx, created.ID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", created.ID, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(final); err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	if final.Stage != job.StageCompleted {
		return fmt.Errorf("%w: %s", errJobFailed, final.ErrorMessage)
	}
	return nil
}
