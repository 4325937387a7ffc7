package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"webhook-bridge/internal/di"
	"webhook-bridge/internal/infrastructure/env"
)

func main() {
	os.Exit(run())
}

func run() int {
	envService := env.NewEnvService()
	cfg := env.Load(envService)

	container, err := di.NewContainer(cfg)
	if err != nil {
		log.Printf("Initialization failed: %v", err)
		return 1
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container.Logger.Info("Starting webhook bridge",
		"port", cfg.Port,
		"webhook_url", cfg.WebhookURL,
		"log_level", cfg.LogLevel,
	)

	if err := container.Server.Run(ctx); err != nil {
		container.Logger.Error("Server exited with error", "error", err)
		return 1
	}
	return 0
}
