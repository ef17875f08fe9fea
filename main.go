package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/netiramawat02/DNE-OPUS-POC/config"
	"github.com/netiramawat02/DNE-OPUS-POC/handler"
	"github.com/netiramawat02/DNE-OPUS-POC/middleware"
	"github.com/netiramawat02/DNE-OPUS-POC/pkg/logger"
	"github.com/netiramawat02/DNE-OPUS-POC/service"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded", "vector_store", cfg.VectorStore.Type)

	openaiClient, err := service.NewOpenAIClient(&cfg.OpenAI)
	if err != nil {
		slog.Error("failed to initialize OpenAI client", "error", err)
		os.Exit(1)
	}

	var index service.VectorIndex
	switch cfg.VectorStore.Type {
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			slog.Error("vector_store.type is qdrant but no qdrant config given")
			os.Exit(1)
		}
		index = service.NewQdrantIndex(openaiClient, cfg.VectorStore.Qdrant)
	default:
		index = service.NewMemoryIndex(openaiClient)
	}

	var minioSvc *service.MinioService
	if cfg.Minio.Enabled {
		minioSvc, err = service.NewMinioService(&cfg.Minio)
		if err != nil {
			slog.Error("failed to initialize MINIO service", "error", err)
			os.Exit(1)
		}
		if err := minioSvc.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure MINIO bucket", "error", err)
			os.Exit(1)
		}
	}

	registry := service.NewRegistry()
	metadata := service.NewMetadataExtractor(openaiClient, cfg.RAG.MetadataMaxChars)
	ingestor := service.NewIngestor(service.NewPDFExtractor(), index, metadata, registry, cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	chatEngine := service.NewChatEngine(index, openaiClient, cfg.RAG.RetrievalK)

	authHandler := handler.NewAuthHandler(cfg)
	contractHandler := handler.NewContractHandler(registry, ingestor, minioSvc)
	chatHandler := handler.NewChatHandler(chatEngine)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(middleware.RateLimit(100, time.Minute))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"contracts": registry.Count(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)
		protected.POST("/contracts/upload", contractHandler.Upload)
		protected.GET("/contracts", contractHandler.List)
		protected.GET("/contracts/:id/status", contractHandler.GetStatus)
		protected.POST("/chat", chatHandler.Ask)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// let in-flight uploads reach a terminal state before exiting
	ingestor.Wait()

	slog.Info("server exited gracefully")
}
