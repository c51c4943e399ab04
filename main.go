package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fraudscore/internal/config"
	"fraudscore/internal/container"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := container.Run(ctx, cfg); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
