// Package main runs the mock interview platform HTTP server with WebSocket
// sessions and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/prepify/backend/config"
	"github.com/prepify/backend/internal/archive"
	"github.com/prepify/backend/internal/auth"
	"github.com/prepify/backend/internal/evaluations"
	"github.com/prepify/backend/internal/history"
	"github.com/prepify/backend/internal/interviews"
	"github.com/prepify/backend/internal/live"
	"github.com/prepify/backend/internal/middleware"
	"github.com/prepify/backend/internal/realtime"
	"github.com/prepify/backend/internal/scoring"
	"github.com/prepify/backend/internal/stats"
	"github.com/prepify/backend/internal/templates"
	"github.com/prepify/backend/pkg/database"
	"github.com/prepify/backend/pkg/queue"
	"github.com/prepify/backend/pkg/redis"
	"github.com/prepify/backend/pkg/response"
	"github.com/prepify/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			TranscriptsBucket:    cfg.AWS.TranscriptsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	banks, err := templates.Load(cfg.Session.TemplatesDir)
	if err != nil {
		logger.Fatal("question templates", zap.Error(err))
	}
	if banks.Len() == 0 {
		logger.Warn("no question banks found, interviews need explicit questions",
			zap.String("dir", cfg.Session.TemplatesDir))
	} else {
		logger.Info("question templates loaded", zap.Int("count", banks.Len()))
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Interviews
	interviewRepo := interviews.NewRepository(pool)
	var transcripts interviews.TranscriptStore
	if s3Client != nil {
		transcripts = s3Client
	}
	interviewHandler := interviews.NewHandler(interviewRepo, banks, transcripts, logger)

	// Session activity log
	historyRepo := history.NewRepository(pool)
	historyHandler := history.NewHandler(historyRepo)

	// Evaluations (grading + summaries)
	evalRepo := evaluations.NewRepository(pool)
	grader := evaluations.NewGrader(cfg.Grader, logger)
	evalHandler := evaluations.NewHandler(interviewRepo, evalRepo, grader, hub, jobQueue, historyRepo, logger)

	// Dashboard aggregates
	statsHandler := stats.NewHandler(pool, interviewRepo, historyRepo)

	// Live sessions: the orchestrator consumes the scoring endpoints over
	// HTTP even when they are served by this same process.
	scorer := scoring.NewClient(cfg.Scoring.BaseURL, cfg.Scoring.Timeout)
	liveService := live.NewService(cfg, hub, interviewRepo, historyRepo, scorer, logger)

	authorize := func(token string) (uuid.UUID, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return uuid.Nil, err
		}
		return claims.UserID, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Scoring wire contract (no JWT: consumed by the session orchestrator;
	// requests are validated against the interview record).
	router.POST("/interviews/:id/evaluate-response", evalHandler.EvaluateResponse)
	router.POST("/interviews/:id/finish", evalHandler.FinishInterview)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/templates", interviewHandler.ListTemplates)

		api.POST("/interviews", interviewHandler.Create)
		api.GET("/interviews", interviewHandler.List)
		api.GET("/interviews/:id", interviewHandler.Get)
		api.DELETE("/interviews/:id", interviewHandler.Delete)
		api.GET("/interviews/:id/feedback", evalHandler.Feedback)

		api.GET("/stats", statsHandler.Get)
		api.GET("/history", historyHandler.List)

		if s3Client != nil {
			archiveHandler := archive.NewHandler(interviewRepo, s3Client)
			api.GET("/interviews/:id/transcript", archiveHandler.GetTranscript)
		}
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, authorize, liveService))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (transcript archive to S3); the standalone worker
	// binary covers deployments that scale it separately.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if s3Client != nil {
		processor := archive.NewProcessor(interviewRepo, evalRepo, s3Client, jobQueue, logger)
		go processor.Run(workerCtx)
		logger.Info("archive worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
