// Command forecastd serves the forecasting and SMS relay endpoints.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/potionkit/forecast-api/internal/config"
	"github.com/potionkit/forecast-api/internal/server"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration file")
	addr := flag.String("addr", "", "listen address, overrides the configuration")
	flag.Parse()

	// optional .env next to the binary, environment still wins
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("unable to load configuration", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	level := slog.LevelInfo
	if cfg.Server.DevMode {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if cfg.SMS.APIKey == "" {
		slog.Warn("no sms relay api key configured, /sms-semaphore/ will reject all requests")
	}

	srv := server.New(cfg)
	slog.Info("listening", "addr", cfg.Server.Addr)
	if err := srv.Run(cfg.Server.Addr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
