package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/anupakum/MCP-Payment-idea/config"
	"github.com/anupakum/MCP-Payment-idea/internal/app"
	"github.com/anupakum/MCP-Payment-idea/pkg/logger"
	"github.com/anupakum/MCP-Payment-idea/pkg/metrics"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}

	logger.Setup(logger.Options{
		Level:   cfg.LogLevel,
		Console: cfg.LogFormat == "console",
		Service: "dispute-api",
	})

	metrics.SetBuildInfo(Version, cfg.StoreBackend)

	if err := run(cfg); err != nil {
		slog.Error("Service stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(ctx)
}
