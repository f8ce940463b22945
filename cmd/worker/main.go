package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dvloznov/edi-processor/internal/app"
	"github.com/dvloznov/edi-processor/internal/config"
	"github.com/dvloznov/edi-processor/internal/inbox"
	"github.com/dvloznov/edi-processor/internal/logger"
	"github.com/dvloznov/edi-processor/internal/scheduler"
)

func main() {
	configPath := flag.String("config", os.Getenv("EDI_CONFIG"), "Path to config file (or set EDI_CONFIG env)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load config")
	}

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to initialise application")
	}
	log := a.Log

	log.Info().Msg("Starting worker service")

	ctx, cancel := context.WithCancel(a.Context(context.Background()))
	defer cancel()

	if err := a.Queue.Start(ctx, a.ProcessHandler()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	var wg sync.WaitGroup

	sched := scheduler.NewScheduler(a.Repo, a.JobStore, a.Queue, cfg.Worker.PollInterval)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Scheduler stopped with error")
		}
	}()

	if cfg.Inbox.Dir != "" {
		watcher := inbox.NewWatcher(a.Service, inbox.Options{
			Dir:           cfg.Inbox.Dir,
			RatePerSecond: cfg.Inbox.RatePerSecond,
			Burst:         cfg.Inbox.Burst,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Str("dir", cfg.Inbox.Dir).Msg("Inbox watcher stopped with error")
			}
		}()
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	sched.Stop()
	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := a.Queue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	if err := a.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close backends")
	}

	log.Info().Msg("Worker service exited")
}
