package main

import (
	approuters "Workpulse/internal/app_routers"
	"Workpulse/internal/configuration"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

func main() {
	container, err := configuration.BuildContainer()
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}
	logger := container.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Expiry runs beside the servers and is stopped by container.Close
	if err := container.Sweeper.Start(ctx); err != nil {
		logger.Error("failed to start expiry sweep", zap.Error(err))
	}

	runErr := approuters.StartServer(ctx, container)
	stop()

	if err := container.Close(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	if runErr != nil {
		os.Exit(1)
	}
}
