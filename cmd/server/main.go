package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/thoughtcode/tca-backend/internal/config"
	"github.com/thoughtcode/tca-backend/internal/database"
	"github.com/thoughtcode/tca-backend/internal/enrichment"
	"github.com/thoughtcode/tca-backend/internal/handler"
	"github.com/thoughtcode/tca-backend/internal/logger"
	"github.com/thoughtcode/tca-backend/internal/repository"
	"github.com/thoughtcode/tca-backend/internal/router"
	"github.com/thoughtcode/tca-backend/internal/service"
	"github.com/thoughtcode/tca-backend/internal/validator"
	"github.com/thoughtcode/tca-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("addr", cfg.ListenAddr()).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Bool("enrichment", cfg.EnrichmentURL != "").
		Msg("Starting question API")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis (optional) ───────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// ─── Enrichment ───────────────────────────────────────────────────
	var enricher enrichment.Enricher = enrichment.NopEnricher{}
	if cfg.EnrichmentURL != "" {
		enricher = enrichment.NewHTTPEnricher(cfg.EnrichmentURL, &http.Client{}, log)
		if rdb != nil {
			enricher = enrichment.NewCachedEnricher(enricher, rdb, cfg.EnrichmentCacheTTL, log)
		}
	}

	// ─── Repositories, Services, Handlers ─────────────────────────────
	questionRepo := repository.NewQuestionRepository(pool)
	questionService := service.NewQuestionService(questionRepo, enricher, cfg.EnrichmentTimeout, log)

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	if rdb != nil && cfg.EnrichmentURL != "" && cfg.EnrichmentWarmInterval > 0 {
		warmer := worker.NewEnrichmentWarmer(questionRepo, enricher, cfg.EnrichmentWarmInterval, 4*cfg.EnrichmentTimeout, log)
		go warmer.Start(workerCtx)
	}

	checks := map[string]handler.CheckFunc{
		"postgres": pool.Ping,
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	handlers := &router.Handlers{
		Question: handler.NewQuestionHandler(questionService, log),
		System:   handler.NewSystemHandler(checks, log),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	workerCancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
