package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dvloznov/edi-processor/internal/api"
	"github.com/dvloznov/edi-processor/internal/app"
	"github.com/dvloznov/edi-processor/internal/config"
	"github.com/dvloznov/edi-processor/internal/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("EDI_CONFIG"), "Path to config file (or set EDI_CONFIG env)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to initialise application")
	}
	log := a.Log

	// Start job workers in background
	workerCtx, cancelWorker := context.WithCancel(a.Context(ctx))
	defer cancelWorker()

	if err := a.Queue.Start(workerCtx, a.ProcessHandler()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}
	log.Info().Int("workers", cfg.Jobs.Workers).Msg("Job workers started")

	handler := api.NewRouter(api.Deps{
		Processor:    a.Service,
		Files:        a.Repo,
		Transactions: a.Repo,
		Jobs:         a.JobStore,
		Publisher:    a.Queue,
		Signer:       a.Blobs,
		SignedURLTTL: cfg.Blob.SignedURLTTL,
		Log:          log,
		APIKey:       cfg.HTTP.APIKey,
	})

	port := strconv.Itoa(cfg.HTTP.Port)
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Drain in-flight jobs before the backends close
	if err := a.Queue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	if err := a.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close backends")
	}

	log.Info().Msg("Server exited")
}
