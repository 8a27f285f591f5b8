package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/rowanvale/tracklink/internal/services"
	"github.com/rowanvale/tracklink/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx := context.Background()
	logger := shared.NewLogger(nil)
	if raw := os.Getenv("TRACKLINK_LOG_LEVEL"); raw != "" {
		if level, err := log.ParseLevel(raw); err == nil {
			shared.SetLogLevel(logger, level)
		}
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var tidal services.Provider
	if config.Credentials.Tidal.ClientID != "" && config.Credentials.Tidal.ClientSecret != "" {
		client, err := services.NewTidalClient(ctx, config.Credentials.Tidal.ClientID, config.Credentials.Tidal.ClientSecret, config.Resolver.RateLimit)
		if err != nil {
			logger.Warn("tidal client unavailable", "error", err)
		} else {
			tidal = client
		}
	}

	var youtube services.Provider
	if config.Credentials.YouTube.ProxyURL != "" {
		var headers *shared.CurlHeaders
		if config.Credentials.YouTube.HeadersPath != "" {
			parsed, err := shared.ParseCurlFile(config.Credentials.YouTube.HeadersPath)
			if err != nil {
				logger.Warn("failed to parse youtube headers file", "path", config.Credentials.YouTube.HeadersPath, "error", err)
			} else {
				headers = parsed
			}
		}
		youtube = services.NewYouTubeMusicClient(config.Credentials.YouTube.ProxyURL, headers, config.Resolver.RateLimit)
	}

	runner := NewRunner(RunnerOpts{Config: config, Tidal: tidal, YouTube: youtube, Logger: logger})

	if db, err := shared.NewDatabase(config.Database.Path); err == nil {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		defer db.Close()
		runner = NewRunner(RunnerOpts{Config: config, DB: db, Tidal: tidal, YouTube: youtube, Logger: logger})
	} else {
		logger.Warn("database unavailable", "path", config.Database.Path, "error", err)
	}

	app := &cli.Command{
		Name:     "tracklink",
		Usage:    "Link a local music library to Tidal & YouTube Music catalogs",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
