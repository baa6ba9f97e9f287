package handlers

import (
	"net/http"
	"time"

	"papertalk-backend/auth"
	"papertalk-backend/logger"
	"papertalk-backend/observability"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig carries everything NewRouter wires together
type RouterConfig struct {
	Log            *logger.Logger
	Auth           *auth.Middleware
	Users          UserService
	Files          FileService
	Messages       MessageService
	AllowedOrigins []string
	MaxUploadBytes int64
	// TracingService enables the otelgin middleware when non-empty
	TracingService string
}

// NewRouter builds the HTTP API
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(observability.Middleware(cfg.TracingService))
	}
	r.Use(RequestLogger(cfg.Log))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := NewAuthHandler(cfg.Log, cfg.Users)
	fileHandler := NewFileHandler(cfg.Log, cfg.Files, cfg.MaxUploadBytes)
	messageHandler := NewMessageHandler(cfg.Log, cfg.Messages)

	api := r.Group("/api")
	{
		api.GET("/auth/callback", cfg.Auth.OptionalAuth(), authHandler.Callback)

		files := api.Group("/files", cfg.Auth.RequireAuth())
		{
			files.GET("", fileHandler.ListFiles)
			files.POST("/upload", fileHandler.UploadFile)
			files.GET("/lookup", fileHandler.GetFileByKey)
			files.DELETE("/:id", fileHandler.DeleteFile)
			files.GET("/:id/messages", messageHandler.ListMessages)
			files.GET("/:id/upload-status", fileHandler.GetUploadStatus)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, CodeNotFound, "route not found")
	})

	return r
}
