// Package app builds the service graph from configuration for the commands.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/edi-processor/internal/blob"
	"github.com/dvloznov/edi-processor/internal/config"
	"github.com/dvloznov/edi-processor/internal/infra/bigquery"
	"github.com/dvloznov/edi-processor/internal/infra/gcs"
	"github.com/dvloznov/edi-processor/internal/infra/inmemory"
	"github.com/dvloznov/edi-processor/internal/infra/postgres"
	"github.com/dvloznov/edi-processor/internal/infra/s3"
	"github.com/dvloznov/edi-processor/internal/infra/sqlite"
	"github.com/dvloznov/edi-processor/internal/jobs"
	jobsmem "github.com/dvloznov/edi-processor/internal/jobs/inmemory"
	"github.com/dvloznov/edi-processor/internal/logger"
	"github.com/dvloznov/edi-processor/internal/pipeline"
	"github.com/dvloznov/edi-processor/internal/store"
)

// App holds the long-lived collaborators shared by the commands.
type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	Blobs    blob.Store
	Repo     store.Repository
	Service  *pipeline.Service
	JobStore *jobsmem.Store
	Queue    *jobsmem.Queue

	closers []func() error
}

// New opens the configured backends and wires the pipeline service and job queue.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.NewFromConfig(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}
	ctx = logger.WithContext(ctx, log)

	a := &App{Config: cfg, Log: log}

	blobs, closeBlobs, err := OpenBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Blobs = blobs
	a.closers = append(a.closers, closeBlobs)

	repo, err := OpenRepository(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Repo = repo
	a.closers = append(a.closers, repo.Close)

	a.Service = pipeline.NewService(blobs, repo, repo)
	a.JobStore = jobsmem.NewStore()
	a.Queue = jobsmem.NewQueue(jobsmem.Options{
		BufferSize: cfg.Jobs.QueueSize,
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
	}, a.JobStore)
	a.closers = append(a.closers, a.Queue.Close)

	log.Info().
		Str("blob_backend", cfg.Blob.Backend).
		Str("store_backend", cfg.Store.Backend).
		Int("workers", cfg.Jobs.Workers).
		Msg("Application initialised")
	return a, nil
}

// Context returns ctx carrying the application logger.
func (a *App) Context(ctx context.Context) context.Context {
	return logger.WithContext(ctx, a.Log)
}

// ProcessHandler returns the job handler that validates and parses files.
func (a *App) ProcessHandler() jobs.JobHandler {
	return pipeline.NewProcessFileHandler(a.Service, a.Repo)
}

// Close releases every backend in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func noopClose() error { return nil }

// OpenBlobStore builds the configured blob backend and its close function.
func OpenBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, func() error, error) {
	switch cfg.Blob.Backend {
	case config.BlobMemory:
		return inmemory.NewBlobStore(cfg.Blob.Bucket), noopClose, nil
	case config.BlobGCS:
		s, err := gcs.NewStore(ctx, cfg.Blob.Bucket)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BlobS3:
		s, err := s3.NewStore(ctx, s3.Options{
			Bucket:   cfg.Blob.Bucket,
			Region:   cfg.AWS.Region,
			Endpoint: cfg.AWS.Endpoint,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, noopClose, nil
	default:
		return nil, nil, fmt.Errorf("app: unknown blob backend %q", cfg.Blob.Backend)
	}
}

// OpenRepository builds the configured record store.
func OpenRepository(ctx context.Context, cfg *config.Config) (store.Repository, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		return inmemory.NewRepository(), nil
	case config.StoreBigQuery:
		r, err := bigquery.NewRepository(ctx, cfg.BigQuery.Project, cfg.BigQuery.Dataset)
		if err != nil {
			return nil, err
		}
		return r, nil
	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorePostgres:
		s, err := postgres.Open(cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("app: unknown store backend %q", cfg.Store.Backend)
	}
}
