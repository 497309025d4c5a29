package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"

	"github.com/tunegrab/tunegrab/config"
	"github.com/tunegrab/tunegrab/internal/audio"
	"github.com/tunegrab/tunegrab/internal/extractor"
	"github.com/tunegrab/tunegrab/internal/metadata"
	"github.com/tunegrab/tunegrab/internal/pipeline"
	"github.com/tunegrab/tunegrab/internal/progress"
	"github.com/tunegrab/tunegrab/internal/storage"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "Path to the configuration file")
	output := flag.String("output", "", "Output directory (overrides configuration)")
	bitrate := flag.String("bitrate", "", "MP3 bitrate, e.g. 192k (overrides configuration)")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [url]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *output != "" {
		cfg.Storage.Type = "local"
		cfg.Storage.OutputDir = *output
	}
	if *bitrate != "" {
		cfg.AudioBitrate = *bitrate
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	url := flag.Arg(0)
	if url == "" {
		url = promptURL()
	}

	ctx := context.Background()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		slog.Error("Failed to set up storage", "error", err)
		os.Exit(1)
	}

	p := pipeline.New(extractor.NewYtDlp(), audio.NewFFmpeg(cfg.AudioBitrate), store).
		WithMetadataFallback(extractor.NewPageProber())

	if err := p.Preflight(); err != nil {
		fmt.Fprintln(os.Stderr, installHint(err))
		os.Exit(1)
	}

	tracker := progress.NewTracker()
	tracker.AddListener(newConsoleProgress().handle)

	result, err := p.Fetch(ctx, url, pipeline.Options{Tracker: tracker})
	if err != nil {
		if errors.Is(err, pipeline.ErrUnsupportedURL) {
			fmt.Fprintln(os.Stderr, "Only YouTube links are supported.")
			os.Exit(1)
		}
		slog.Error("Fetch failed", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(renderPlain(result.Report))
	fmt.Println()
	for _, f := range result.Files {
		fmt.Printf("Saved %s\n", f)
	}
}

func promptURL() string {
	fmt.Print("Enter a YouTube URL: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		slog.Error("Failed to read URL", "error", err)
		os.Exit(1)
	}
	return strings.TrimSpace(line)
}

func installHint(err error) string {
	switch {
	case errors.Is(err, extractor.ErrYtDlpNotAvailable):
		return "yt-dlp is not installed. Install it with: pip install yt-dlp"
	case errors.Is(err, audio.ErrFFmpegNotAvailable):
		return "ffmpeg is not installed. Install it with your package manager, e.g. apt install ffmpeg"
	default:
		return err.Error()
	}
}

func renderPlain(report metadata.Report) string {
	if !report.IsPlaylist {
		item := report.Items[0]
		s := fmt.Sprintf("Artist: %s\nTitle: %s", item.Artist, item.Track)
		if item.Album != "" {
			s += fmt.Sprintf("\nAlbum: %s", item.Album)
		}
		return s
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Playlist: %s (%d tracks)\n", report.PlaylistTitle, len(report.Items))
	for i, item := range report.Items {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, item.Track, item.Artist)
	}
	return strings.TrimRight(b.String(), "\n")
}

// consoleProgress renders tracker events as a terminal progress bar.
type consoleProgress struct {
	bar *progressbar.ProgressBar
}

func newConsoleProgress() *consoleProgress {
	return &consoleProgress{}
}

func (c *consoleProgress) handle(event progress.Event) {
	switch event.Stage {
	case progress.StageProbing:
		if event.Message != "" {
			fmt.Println(event.Message)
		}
	case progress.StageDownloading:
		c.ensureBar("[cyan][1/2][reset] Downloading...")
		if event.Item != nil && event.Item.TotalItems > 1 {
			c.bar.Describe(fmt.Sprintf("[cyan][1/2][reset] Downloading %d/%d...",
				event.Item.ItemNumber, event.Item.TotalItems))
		}
		_ = c.bar.Set(int(event.Percent))
	case progress.StageConverting:
		c.ensureBar("[cyan][2/2][reset] Converting...")
		c.bar.Describe("[cyan][2/2][reset] Converting...")
		_ = c.bar.Set(int(event.Percent))
	case progress.StageComplete:
		if c.bar != nil {
			_ = c.bar.Finish()
		}
		fmt.Println()
	case progress.StageError:
		if c.bar != nil {
			_ = c.bar.Clear()
		}
	}
}

func (c *consoleProgress) ensureBar(description string) {
	if c.bar != nil {
		return
	}
	c.bar = progressbar.NewOptions(
		100,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetDescription(description),
	)
}
