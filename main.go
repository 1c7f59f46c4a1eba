package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"bybitdash/config"
	"bybitdash/internal/dashboard"
	"bybitdash/internal/exchange"
	"bybitdash/internal/metrics"
	"bybitdash/logger"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present; existing values win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", config.DefaultPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	metrics.Configure(cfg.Metrics)

	log.WithFields(logger.Fields{
		"service":     cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": config.AppEnvironment(),
		"base_url":    cfg.Bybit.BaseURL,
	}).Info("starting bybitdash")

	creds := cfg.Bybit.Credentials()
	if !creds.Complete() {
		entry := log.WithComponent("main").WithFields(logger.Fields{
			"has_api_key":    creds.HasKey(),
			"has_api_secret": creds.HasSecret(),
		})
		if config.IsProductionLike(config.AppEnvironment()) {
			entry.Warn("Bybit API keys are not configured; overview requests will fail")
		} else {
			entry.Info("Bybit API keys are not configured; running in unauthenticated mode")
		}
	}

	client := exchange.NewClient(cfg.Bybit, log)
	server := dashboard.NewServer(cfg, client, client.Signer(), log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		log.WithError(err).Error("dashboard server failed")
		os.Exit(1)
	}

	log.Info("bybitdash stopped")
}
