package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"epics-powerup/backend/internal/api"
	"epics-powerup/backend/internal/progress"
	"epics-powerup/backend/internal/store"
	"epics-powerup/backend/internal/trello"
	"epics-powerup/backend/internal/webhook"
	"epics-powerup/backend/pkg/config"
	"epics-powerup/backend/pkg/logger"
)

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting power-up backend...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Open the relationship store
	st, err := store.New(cfg.SQLitePath)
	if err != nil {
		log.Fatal("Failed to open relationship store", zap.Error(err))
	}
	defer st.Close()

	// Initialize dependencies
	client := trello.NewClient(cfg.TrelloBaseURL, cfg.TrelloAPIKey, cfg.TrelloToken, cfg.UpstreamTimeout)
	agg := progress.New(st, client, cfg.DoneListPatterns)
	verifier := webhook.NewVerifier(cfg.WebhookSecret)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(st, client, agg, verifier, logger.Named("api"))
	router := api.NewRouter(handler, logger.Named("http"))

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
