package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/tutor_booking/internal/app"
	"github.com/Freeeeeet/tutor_booking/internal/config"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting tutor booking",
		zap.String("environment", cfg.Environment),
		zap.String("feed_backend", cfg.FeedBackend),
		zap.Bool("bot_enabled", cfg.BotEnabled()),
	)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil {
		logger.Error("Stopped with error", zap.Error(err))
		return
	}
	logger.Info("Stopped")
}
