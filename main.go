package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ux-auditor/config"
	"ux-auditor/logging"
)

var version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", false).Fatal("Invalid configuration", "err", err)
	}
	logger := logging.New(cfg.Env.LogLevel, cfg.IsProduction())

	services, err := newServices(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialise services", "err", err)
	}
	defer services.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go services.sweepPageCache(ctx, cfg.Colly.CacheTTL, logger)

	server := NewServer(cfg, services, logger)
	server.SetupRoutes()

	logger.Info("Starting UX audit server", "port", cfg.Server.Port, "env", cfg.Env.NodeEnv, "version", version)
	if err := server.Run(ctx); err != nil {
		logger.Error("Server stopped with error", "err", err)
		services.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
