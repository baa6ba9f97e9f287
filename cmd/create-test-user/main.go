package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"papertalk-backend/auth"
	"papertalk-backend/config"
	"papertalk-backend/logger"
	"papertalk-backend/models"
	"papertalk-backend/repository"
	"papertalk-backend/service"
	"papertalk-backend/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var demoConversation = []struct {
	fromUser bool
	text     string
}{
	{true, "What is this document about?"},
	{false, "It is a short sample uploaded by the seeding tool."},
	{true, "Thanks!"},
}

func main() {
	userID := flag.String("id", "test-user", "user id (token subject)")
	email := flag.String("email", "test@example.com", "user email")
	seedFile := flag.String("file", "", "optional text file to upload for the user, with a demo conversation")
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

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer pool.Close()

	id := auth.Identity{UserID: *userID, Email: *email}

	users := service.NewUserService(log, repository.NewUserRepository(pool))
	if _, err := users.AuthCallback(ctx, id); err != nil {
		log.Fatal("failed to create user", "error", err)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	token, err := tokens.Issue(id)
	if err != nil {
		log.Fatal("failed to issue token", "error", err)
	}

	fmt.Printf("Test user ready\n")
	fmt.Printf("   ID:    %s\n", id.UserID)
	fmt.Printf("   Email: %s\n", id.Email)
	fmt.Printf("   Token: %s\n", token)

	if *seedFile == "" {
		return
	}

	file, err := seed(ctx, log, cfg, pool, id, *seedFile)
	if err != nil {
		log.Fatal("failed to seed file", "error", err)
	}
	fmt.Printf("   File:  %s (%s), run build-embeddings to index it\n", file.ID, file.Key)
}

func seed(ctx context.Context, log *logger.Logger, cfg *config.Config, pool *pgxpool.Pool, id auth.Identity, path string) (*models.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	fileStorage, err := storage.NewStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	fileRepo := repository.NewFileRepository(pool)
	files := service.NewFileService(log,
		service.FileWithStore(fileRepo),
		service.FileWithStorage(fileStorage),
		service.FileWithMaxUploadBytes(cfg.Upload.MaxBytes),
	)
	file, err := files.UploadFile(ctx, id, service.UploadFileRequest{
		Filename:    filepath.Base(path),
		ContentType: storage.ContentType(path),
		Size:        info.Size(),
		Body:        f,
	})
	if err != nil {
		return nil, err
	}

	messages := repository.NewMessageRepository(pool)
	for _, m := range demoConversation {
		msg := &models.Message{
			ID:            uuid.NewString(),
			FileID:        file.ID,
			IsUserMessage: m.fromUser,
			Text:          m.text,
		}
		if err := messages.Create(ctx, id.UserID, msg); err != nil {
			return nil, err
		}
		// Distinct created_at values keep the demo ordering stable
		time.Sleep(10 * time.Millisecond)
	}
	return file, nil
}
