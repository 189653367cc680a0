package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/examhall/cbt-backend/internal/config"
	"github.com/examhall/cbt-backend/internal/database"
	"github.com/examhall/cbt-backend/internal/handler"
	"github.com/examhall/cbt-backend/internal/logger"
	"github.com/examhall/cbt-backend/internal/repository"
	"github.com/examhall/cbt-backend/internal/router"
	"github.com/examhall/cbt-backend/internal/service"
	"github.com/examhall/cbt-backend/internal/validator"
	"github.com/examhall/cbt-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting ExamHall Backend")

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

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	questionRepo := repository.NewQuestionRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	sessionRepo := repository.NewExamSessionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	authService := service.NewAuthService(cfg, adminRepo, rdb)
	questionService := service.NewQuestionService(questionRepo)
	examService := service.NewExamService(examRepo, questionRepo, rdb, rng)
	sessionService := service.NewExamSessionService(cfg, sessionRepo, examRepo, resultRepo, examService, log)
	studentService := service.NewStudentService(studentRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Question:    handler.NewQuestionHandler(questionService),
		Exam:        handler.NewExamHandler(examService),
		ExamPortal:  handler.NewExamPortalHandler(examService),
		Session:     handler.NewSessionHandler(cfg, sessionService),
		StudentMgmt: handler.NewStudentManagementHandler(studentService),
		WS:          handler.NewWSHandler(rdb, sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	progressWorker := worker.NewProgressWorker(pool, rdb, log)
	go progressWorker.Start(workerCtx)

	if cfg.EnforceDeadline {
		reaper := worker.NewReaperWorker(sessionService, cfg.ReaperInterval, log)
		go reaper.Start(workerCtx)
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

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

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
