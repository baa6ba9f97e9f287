package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"papertalk-backend/config"
	"papertalk-backend/logger"
	"papertalk-backend/repository"
	"papertalk-backend/service"
	"papertalk-backend/storage"
	"papertalk-backend/vectorindex"

	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/api/option"
)

func main() {
	fileID := flag.String("file", "", "index a single file by id instead of every stale file")
	limit := flag.Int("limit", 100, "maximum number of stale files to index")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer log.Sync()

	if cfg.Embedding.APIKey == "" {
		log.Fatal("GEMINI_API_KEY is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer pool.Close()

	fileStorage, err := storage.NewStorage(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("failed to initialize storage", "error", err)
	}
	index, err := vectorindex.New(ctx, log, cfg.Vector, pool)
	if err != nil {
		log.Fatal("failed to initialize vector index", "error", err)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Embedding.APIKey))
	if err != nil {
		log.Fatal("failed to initialize Gemini", "error", err)
	}
	defer client.Close()

	indexer := service.NewIndexService(ctx, log,
		service.IndexWithStore(repository.NewFileRepository(pool)),
		service.IndexWithStorage(fileStorage),
		service.IndexWithIndex(index),
		service.IndexWithEmbedder(service.NewGeminiEmbedder(log, client, cfg.Embedding.Model)),
		service.IndexWithChunking(cfg.Embedding.ChunkSize, cfg.Embedding.ChunkOverlap),
	)

	if *fileID != "" {
		if err := indexer.ProcessFile(ctx, *fileID); err != nil {
			log.Fatal("indexing failed", "file_id", *fileID, "error", err)
		}
		fmt.Printf("Indexed %s\n", *fileID)
		return
	}

	res, err := indexer.ReindexStale(ctx, *limit)
	if err != nil {
		log.Fatal("reindex failed", "error", err)
	}
	fmt.Printf("Indexed %d file(s), %d failed\n", res.Indexed, res.Failed)
}
