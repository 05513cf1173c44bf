// Package bootstrap wires the generation stack from configuration. The API
// server and the CLI share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"tryon/internal/adapter/repo"
	"tryon/internal/catalog"
	"tryon/internal/generation"
	"tryon/internal/infra"
	"tryon/internal/media"
	"tryon/internal/pipeline"
	"tryon/internal/providers/fal"
	"tryon/internal/providers/image"
	"tryon/internal/providers/video"
	"tryon/internal/stats"
	"tryon/internal/storage"
)

// Services is everything a front end needs to run generations.
type Services struct {
	Store       *storage.FileStore
	Catalog     *catalog.Catalog
	Images      *pipeline.ImagePipeline
	Videos      *pipeline.VideoPipeline
	Stats       stats.Source
	StatsSource string

	closers []func()
}

// Close releases the database pool, if one was opened.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// Build constructs the fal client, file store, optional Postgres archive,
// catalog and both pipelines.
func Build(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (*Services, error) {
	log := infra.OrDiscard(logger)

	var limiter *rate.Limiter
	if cfg.Fal.RatePerSec > 0 {
		burst := int(cfg.Fal.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Fal.RatePerSec), burst)
	}
	client, err := fal.NewClient(fal.Options{
		APIKey:         cfg.Fal.Key,
		QueueURL:       cfg.Fal.QueueURL,
		Logger:         log,
		PollInterval:   cfg.Fal.PollInterval,
		AttemptTimeout: cfg.Fal.AttemptTimeout,
		Retry: fal.RetryPolicy{
			MaxAttempts: cfg.Fal.MaxAttempts,
			MinDelay:    cfg.Fal.RetryMin,
			MaxDelay:    cfg.Fal.RetryMax,
		},
		Limiter: limiter,
		OnProgress: func(model, message string) {
			log.Debug().Str("model", model).Msg(message)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fal client: %w", err)
	}

	store, err := storage.NewFileStore(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	svc := &Services{Store: store, Catalog: cat}

	var sink generation.MetadataSink
	pool, err := infra.NewDBPool(ctx, cfg)
	switch {
	case errors.Is(err, infra.ErrDatabaseDisabled):
		svc.Stats = stats.NewMetadataScan(store, log)
		svc.StatsSource = "metadata"
	case err != nil:
		return nil, err
	default:
		svc.closers = append(svc.closers, pool.Close)
		archive := repo.NewGenerationRepo(infra.NewSQLRunner(pool, log))
		if err := archive.EnsureSchema(ctx); err != nil {
			svc.Close()
			return nil, fmt.Errorf("archive schema: %w", err)
		}
		sink = archive
		svc.Stats = archive
		svc.StatsSource = "postgres"
	}

	exec, err := generation.NewExecutor(generation.Options{
		Caller:     client,
		Store:      store,
		Downloader: media.NewDownloader(nil, cfg.DownloadTimeout),
		Sink:       sink,
		Logger:     log,
	})
	if err != nil {
		svc.Close()
		return nil, err
	}

	svc.Images = pipeline.NewImagePipeline(image.NewRegistry(exec), cfg.DefaultImageModel, log)
	svc.Videos = pipeline.NewVideoPipeline(video.NewRegistry(exec), cfg.DefaultVideoModel, log)
	if err := svc.Images.CheckModel(""); err != nil {
		svc.Close()
		return nil, fmt.Errorf("IMAGE_MODEL: %w", err)
	}
	if _, err := video.ParseModel(svc.Videos.DefaultModel()); err != nil {
		svc.Close()
		return nil, fmt.Errorf("VIDEO_MODEL: %w", err)
	}
	log.Info().
		Str("output_dir", store.BasePath()).
		Str("stats_source", svc.StatsSource).
		Str("image_model", svc.Images.DefaultModel()).
		Str("video_model", svc.Videos.DefaultModel()).
		Msg("generation stack ready")
	return svc, nil
}
