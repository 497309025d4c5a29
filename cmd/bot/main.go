package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tunegrab/tunegrab/config"
	"github.com/tunegrab/tunegrab/internal/audio"
	"github.com/tunegrab/tunegrab/internal/bot"
	"github.com/tunegrab/tunegrab/internal/extractor"
	"github.com/tunegrab/tunegrab/internal/pipeline"
	"github.com/tunegrab/tunegrab/internal/storage"
)

const archiveTTL = 24 * time.Hour

func main() {
	configPath := flag.String("config", "./config/config.yaml", "Path to the configuration file")
	flag.Parse()

	// .env is optional; the token may come from the environment.
	_ = godotenv.Load()

	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		slog.Error("DISCORD_TOKEN is not set")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		slog.Error("Failed to set up storage", "error", err)
		os.Exit(1)
	}

	p := pipeline.New(extractor.NewYtDlp(), audio.NewFFmpeg(cfg.AudioBitrate), store).
		WithMetadataFallback(extractor.NewPageProber())
	if err := p.Preflight(); err != nil {
		slog.Error("Missing external tool", "error", err)
		os.Exit(1)
	}

	b, err := bot.New(token, p, store, cfg.Bot)
	if err != nil {
		slog.Error("Failed to create bot", "error", err)
		os.Exit(1)
	}
	if err := b.Start(); err != nil {
		slog.Error("Failed to start bot", "error", err)
		os.Exit(1)
	}

	if pruner, ok := store.(storage.Pruner); ok {
		go pruneLoop(ctx, pruner)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("Shutting down")
	if err := b.Stop(); err != nil {
		slog.Error("Failed to close Discord session", "error", err)
	}
}

// pruneLoop periodically reclaims archived files older than the TTL.
func pruneLoop(ctx context.Context, pruner storage.Pruner) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := pruner.PruneArchive(ctx, archiveTTL)
			if err != nil {
				slog.Error("Archive prune failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("Pruned archived files", "count", n)
			}
		}
	}
}
