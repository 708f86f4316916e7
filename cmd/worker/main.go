package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/jobs/inmemory"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/logger"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/storage"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/voucher"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/worker"
)

// Standalone extraction worker. With the in-memory queue this only
// processes jobs published in the same process; it exists so the
// consumer loop can move to Cloud Tasks or Pub/Sub without touching
// the API binary.
func main() {
	log := logger.New()

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, 5, jobStore)

	log.Info().Msg("Starting worker service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := worker.ExtractHandler(storage.NewGCSService(), voucher.NewGeminiExtractor(), log)

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Worker service exited")
}
