package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"papertalk-backend/auth"
	"papertalk-backend/config"
	"papertalk-backend/handlers"
	"papertalk-backend/logger"
	"papertalk-backend/observability"
	"papertalk-backend/queue"
	"papertalk-backend/repository"
	"papertalk-backend/service"
	"papertalk-backend/storage"
	"papertalk-backend/vectorindex"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/api/option"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		if cfg.Auth.JWTSecret == "replace-me" {
			log.Fatal("JWT_SECRET must be set in production")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitTracing(ctx, log, cfg.Tracing, cfg.Server.Env)

	db, err := initPostgres(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal("failed to initialize Postgres", "error", err)
	}
	defer db.Close()
	log.Info("postgres connection established")

	fileStorage, err := storage.NewStorage(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("failed to initialize storage", "error", err)
	}
	log.Info("storage initialized", "type", cfg.Storage.Type)

	index, err := vectorindex.New(ctx, log, cfg.Vector, db)
	if err != nil {
		log.Fatal("failed to initialize vector index", "error", err)
	}
	log.Info("vector index initialized", "backend", cfg.Vector.Backend)

	cleanupQueue, err := queue.New(ctx, log, cfg.Queue)
	if err != nil {
		log.Fatal("failed to initialize cleanup queue", "error", err)
	}
	defer cleanupQueue.Close()

	geminiClient, err := initGemini(ctx, log, cfg.Embedding.APIKey)
	if err != nil {
		log.Fatal("failed to initialize Gemini", "error", err)
	}
	defer geminiClient.Close()

	userRepo := repository.NewUserRepository(db)
	fileRepo := repository.NewFileRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	indexService := service.NewIndexService(ctx, log,
		service.IndexWithStore(fileRepo),
		service.IndexWithStorage(fileStorage),
		service.IndexWithIndex(index),
		service.IndexWithEmbedder(service.NewGeminiEmbedder(log, geminiClient, cfg.Embedding.Model)),
		service.IndexWithChunking(cfg.Embedding.ChunkSize, cfg.Embedding.ChunkOverlap),
	)

	userService := service.NewUserService(log, userRepo)
	fileService := service.NewFileService(log,
		service.FileWithStore(fileRepo),
		service.FileWithStorage(fileStorage),
		service.FileWithIndex(index),
		service.FileWithCleanupQueue(cleanupQueue),
		service.FileWithIngestor(indexService),
		service.FileWithMaxUploadBytes(cfg.Upload.MaxBytes),
	)
	messageService := service.NewMessageService(log, fileRepo, messageRepo, cfg.Pagination.DefaultLimit, cfg.Pagination.MaxLimit)

	reconciler := service.NewReconciler(log, cleanupQueue, fileStorage, index, cfg.Reconciler.Interval, cfg.Reconciler.MaxAttempts)
	reconcilerDone := make(chan struct{})
	go func() {
		defer close(reconcilerDone)
		reconciler.Run(ctx)
	}()

	tracingService := ""
	if cfg.Tracing.Enabled {
		tracingService = cfg.Tracing.ServiceName
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		Log:            log,
		Auth:           auth.NewMiddleware(log, auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)),
		Users:          userService,
		Files:          fileService,
		Messages:       messageService,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		TracingService: tracingService,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	<-reconcilerDone
	indexService.Wait()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown failed", "error", err)
	}
	log.Info("server stopped")
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func initGemini(ctx context.Context, log *logger.Logger, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		log.Warn("GEMINI_API_KEY not set, ingestion will fail")
	}
	return genai.NewClient(ctx, option.WithAPIKey(apiKey))
}
