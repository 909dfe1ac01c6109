package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/deusflow/albumfeed/internal/app"
	"github.com/deusflow/albumfeed/internal/config"
	"github.com/deusflow/albumfeed/internal/logger"
)

const defaultConfigPath = "configs/albumfeed.yaml"

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	configPath := flag.String("config", envOr("ALBUMFEED_CONFIG", defaultConfigPath), "path to the YAML config file")
	feedPath := flag.String("feed", "", "RSS file to update (overrides config)")
	dryRun := flag.Bool("dry-run", false, "generate a recommendation without writing the feed")
	stats := flag.Bool("stats", false, "print run statistics as JSON")
	flag.Parse()

	logger.Init()

	if *feedPath != "" {
		os.Setenv("RSS_FILE", *feedPath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	cfg.DryRun = *dryRun
	logger.Setup(cfg.Debug, os.Getenv("LOG_FORMAT"))
	logger.Debug("configuration loaded", "provider", cfg.Provider, "model", cfg.Model, "feed", cfg.FeedPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	res, err := a.Run(ctx)
	if cerr := a.Close(); cerr != nil {
		logger.Warn("failed to close model client", "error", cerr)
	}
	if *stats {
		printStats(a)
	}
	if err != nil {
		logger.Error("album recommendation failed", "error", err)
		os.Exit(1)
	}

	if res.Published {
		fmt.Printf("Added: %s\n", res.Entry.Title)
	} else {
		fmt.Printf("Dry run: %s\n", res.Entry.Title)
	}
	logger.Info("done", "title", res.Entry.Title, "link", res.Entry.Link)
}

func printStats(a *app.App) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a.Metrics().GetStats()); err != nil {
		logger.Warn("failed to encode stats", "error", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
