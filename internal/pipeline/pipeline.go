// Package pipeline wires the extractor, converter, tagger and storage
// into the fetch flow both front ends share: probe the URL, download the
// audio, convert to MP3, and name and tag every file from its normalized
// metadata.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tunegrab/tunegrab/internal/audio"
	"github.com/tunegrab/tunegrab/internal/extractor"
	"github.com/tunegrab/tunegrab/internal/metadata"
	"github.com/tunegrab/tunegrab/internal/progress"
	"github.com/tunegrab/tunegrab/internal/storage"
)

var (
	ErrUnsupportedURL = fmt.Errorf("unsupported URL")
	ErrNothingFound   = fmt.Errorf("nothing found")
)

// MetadataFallback resolves a URL to raw records without the extractor
// binary. Used by Describe only; downloads always need the extractor.
type MetadataFallback interface {
	Lookup(url string) (*extractor.Result, error)
}

// Pipeline runs fetch requests. It holds no per-request state, so one
// instance serves concurrent callers.
type Pipeline struct {
	extractor extractor.Extractor
	converter audio.Converter
	store     storage.Store
	fallback  MetadataFallback
}

func New(ext extractor.Extractor, conv audio.Converter, store storage.Store) *Pipeline {
	return &Pipeline{
		extractor: ext,
		converter: conv,
		store:     store,
	}
}

// WithMetadataFallback sets a prober consulted when the extractor
// cannot answer a Describe request.
func (p *Pipeline) WithMetadataFallback(fallback MetadataFallback) *Pipeline {
	p.fallback = fallback
	return p
}

// Options control one fetch request.
type Options struct {
	// RequestID keys the request's working directory. Defaults to a
	// timestamp when empty.
	RequestID string

	// Tracker receives progress events. Optional.
	Tracker *progress.Tracker
}

// Result is one finished fetch: the normalized report plus the final
// MP3 paths in source order. Entries that failed to download have no
// file, so Files can be shorter than Report.Items.
type Result struct {
	Report metadata.Report
	Files  []string
}

// SupportedURL reports whether the URL plausibly points at a host we
// can fetch from.
func SupportedURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	return host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") || host == "youtu.be"
}

// Preflight verifies the external tools are installed before any work
// is attempted.
func (p *Pipeline) Preflight() error {
	if err := p.converter.Available(); err != nil {
		return err
	}
	return p.extractor.Available()
}

// Describe returns the normalized metadata report for a URL without
// downloading anything.
func (p *Pipeline) Describe(ctx context.Context, rawURL string) (metadata.Report, error) {
	if !SupportedURL(rawURL) {
		return metadata.Report{}, fmt.Errorf("%w: %s", ErrUnsupportedURL, rawURL)
	}

	result, err := p.extractor.Inspect(ctx, rawURL)
	if err != nil && p.fallback != nil {
		slog.Debug("falling back to page lookup", "url", rawURL, "error", err)
		result, err = p.fallback.Lookup(rawURL)
	}
	if err != nil {
		return metadata.Report{}, err
	}
	return metadata.Aggregate(result.Records, result.Playlist), nil
}

// Fetch downloads, converts and tags every item behind the URL. The
// caller owns cleanup of the request directory via the store.
func (p *Pipeline) Fetch(ctx context.Context, rawURL string, opts Options) (*Result, error) {
	if !SupportedURL(rawURL) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, rawURL)
	}

	tracker := opts.Tracker
	if tracker == nil {
		tracker = progress.NewTracker()
	}
	requestID := opts.RequestID
	if requestID == "" {
		requestID = fmt.Sprintf("%d", time.Now().UnixNano())
	}

	tracker.Update(progress.StageProbing, 0, "Checking URL...")

	probe, err := p.extractor.Probe(ctx, rawURL)
	if err != nil {
		tracker.Fail(err)
		return nil, err
	}
	if probe.Playlist && probe.EntryCount > 1 {
		tracker.Update(progress.StageProbing, 0,
			fmt.Sprintf("%d songs found in this playlist.", probe.EntryCount))
	} else {
		tracker.Update(progress.StageProbing, 0, "Single video detected.")
	}

	inspected, err := p.extractor.Inspect(ctx, rawURL)
	if err != nil {
		tracker.Fail(err)
		return nil, err
	}
	report := metadata.Aggregate(inspected.Records, inspected.Playlist)
	if len(report.Items) == 0 {
		tracker.Fail(ErrNothingFound)
		return nil, ErrNothingFound
	}

	requestDir, err := p.store.RequestDir(requestID)
	if err != nil {
		tracker.Fail(err)
		return nil, err
	}
	rawDir := filepath.Join(requestDir, "raw")

	tracker.Update(progress.StageDownloading, 0, "Starting download...")
	rawFiles, err := p.extractor.Download(ctx, rawURL, rawDir, func(item, total int, percent float64, eta, speed string) {
		details := progress.ItemDetails{
			ItemNumber: item,
			TotalItems: total,
			ETA:        eta,
			Speed:      speed,
		}
		if item >= 1 && item <= len(report.Items) {
			details.Title = report.Items[item-1].Track
		}
		tracker.UpdateItem(details, percent)
	})
	if err != nil {
		tracker.Fail(err)
		return nil, err
	}

	if len(rawFiles) != len(report.Items) {
		slog.Warn("some entries failed to download",
			"files", len(rawFiles), "entries", len(report.Items))
	}

	tracker.Update(progress.StageConverting, 0, "Download complete. Processing...")

	totalTracks := 0
	if report.IsPlaylist {
		totalTracks = len(report.Items)
	}

	// Files are matched to metadata by their source position, so a
	// failed playlist entry never shifts later files onto the wrong
	// name and tags.
	files := make([]string, 0, len(rawFiles))
	for n, raw := range rawFiles {
		if raw.Index < 1 || raw.Index > len(report.Items) {
			slog.Warn("downloaded file has no metadata entry", "path", raw.Path, "position", raw.Index)
			continue
		}
		item := report.Items[raw.Index-1]

		name := SanitizeFilename(fmt.Sprintf("%s - %s", item.Artist, item.Track)) + ".mp3"
		outputPath := p.store.TrackPath(requestID, name)

		if err := p.converter.ConvertToMP3(ctx, raw.Path, outputPath); err != nil {
			tracker.Fail(err)
			return nil, fmt.Errorf("track %d (%s): %w", raw.Index, item.Track, err)
		}

		tags := audio.Tags{
			Artist: item.Artist,
			Track:  item.Track,
			Album:  item.Album,
		}
		if report.IsPlaylist {
			tags.TrackNumber = raw.Index
			tags.TotalTracks = totalTracks
		}
		if err := audio.WriteTags(outputPath, tags); err != nil {
			tracker.Fail(err)
			return nil, fmt.Errorf("track %d (%s): %w", raw.Index, item.Track, err)
		}

		files = append(files, outputPath)
		tracker.UpdateItem(progress.ItemDetails{
			ItemNumber: raw.Index,
			TotalItems: totalTracks,
			Title:      item.Track,
		}, float64(n+1)/float64(len(rawFiles))*100)
	}

	// The raw streams are no longer needed once conversion succeeded.
	if err := os.RemoveAll(rawDir); err != nil {
		slog.Warn("failed to remove raw download directory", "dir", rawDir, "error", err)
	}

	tracker.Update(progress.StageComplete, 100, "All operations completed successfully.")

	return &Result{Report: report, Files: files}, nil
}

// SanitizeFilename replaces characters that are invalid in filenames.
func SanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", "\n", "\r", "\t"}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}

	result = strings.Trim(result, " .")

	if result == "" {
		result = "untitled"
	}

	return result
}
