// Package extractor resolves video-hosting URLs into raw metadata
// records and downloaded audio streams. The actual protocol work is
// delegated to the yt-dlp binary invoked as a subprocess; a lightweight
// watch-page prober serves as a metadata-only fallback.
package extractor

import (
	"context"

	"github.com/tunegrab/tunegrab/internal/metadata"
)

// ProgressFunc receives download progress updates. item and total are
// 1-based playlist coordinates; total is 0 for a single download.
type ProgressFunc func(item, total int, percent float64, eta, speed string)

// ProbeInfo is the cheap answer to "what is behind this URL".
type ProbeInfo struct {
	Playlist   bool
	Title      string
	EntryCount int
}

// Result carries the raw per-item records for one URL plus playlist
// context when the URL is a collection.
type Result struct {
	Records  []metadata.Record
	Playlist *metadata.Playlist
}

// DownloadedFile pairs a fetched stream with its 1-based position in
// the source collection. Positions can have gaps when some entries
// failed to download.
type DownloadedFile struct {
	Index int
	Path  string
}

// Extractor is a source of raw metadata and audio streams.
type Extractor interface {
	// Available checks that the underlying tool can be invoked.
	Available() error

	// Probe classifies the URL without downloading anything.
	Probe(ctx context.Context, url string) (*ProbeInfo, error)

	// Inspect returns full raw metadata for every item behind the URL,
	// in source order.
	Inspect(ctx context.Context, url string) (*Result, error)

	// Download fetches the best audio stream for every item into dir and
	// returns the downloaded files with their source positions, in
	// source order. progress may be nil when updates are not needed.
	Download(ctx context.Context, url, dir string, progress ProgressFunc) ([]DownloadedFile, error)
}
