package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/evalia-labs/paperdesk-backend/internal/config"
	"github.com/evalia-labs/paperdesk-backend/internal/database"
	"github.com/evalia-labs/paperdesk-backend/internal/handler"
	"github.com/evalia-labs/paperdesk-backend/internal/logger"
	"github.com/evalia-labs/paperdesk-backend/internal/queue"
	"github.com/evalia-labs/paperdesk-backend/internal/repository"
	"github.com/evalia-labs/paperdesk-backend/internal/repository/memstore"
	"github.com/evalia-labs/paperdesk-backend/internal/repository/mongostore"
	"github.com/evalia-labs/paperdesk-backend/internal/repository/postgres"
	"github.com/evalia-labs/paperdesk-backend/internal/router"
	"github.com/evalia-labs/paperdesk-backend/internal/service"
	"github.com/evalia-labs/paperdesk-backend/internal/validator"
	"github.com/evalia-labs/paperdesk-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", cfg.StoreDriver).
		Msg("Starting PaperDesk Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Initialize Stores ─────────────────────────────────────────────
	var (
		paperStore    repository.PaperStore
		questionStore repository.QuestionStore
	)

	switch cfg.StoreDriver {
	case "postgres":
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		paperStore = postgres.NewPaperStore(pool)
		questionStore = postgres.NewQuestionStore(pool)

	case "mongo":
		client, err := database.NewMongoClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		db := client.Database(cfg.MongoDatabase)
		paperStore = mongostore.NewPaperStore(db)
		questionStore = mongostore.NewQuestionStore(db)

	case "memory":
		paperStore = memstore.NewPaperStore()
		questionStore = memstore.NewQuestionStore()

	default:
		log.Fatal().Str("driver", cfg.StoreDriver).Msg("Unknown STORE_DRIVER")
	}

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Services ───────────────────────────────────────────
	pdfQueue := queue.NewRedisQueue(rdb, log)
	paperService := service.NewPaperService(paperStore, questionStore, pdfQueue, log)
	gradingService := service.NewGradingService(questionStore, log)
	questionService := service.NewQuestionService(questionStore, log)

	// ─── Initialize Handlers ───────────────────────────────────────────
	handlers := &router.Handlers{
		Paper:    handler.NewPaperHandler(paperService),
		Attempt:  handler.NewAttemptHandler(gradingService),
		Question: handler.NewQuestionHandler(questionService),
	}

	// ─── Start Background Workers ──────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	pdfWorker := worker.NewPDFWorker(rdb, paperStore, questionStore, cfg, log)
	go pdfWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the PDF worker and let in-flight jobs finish.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
