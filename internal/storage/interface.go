// Package storage decides where finished downloads live and where
// oversized files go when a chat upload cap rules out direct delivery.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/tunegrab/tunegrab/config"
)

var (
	// ErrArchiveUnsupported is returned by backends that cannot hand out
	// shareable URLs.
	ErrArchiveUnsupported = fmt.Errorf("archiving not supported by this storage backend")
)

// Store manages the filesystem side of one or more fetch requests.
type Store interface {
	// RequestDir returns (creating if needed) an isolated working
	// directory for one request, keyed by a caller-chosen ID.
	RequestDir(requestID string) (string, error)

	// TrackPath returns the final path for a finished track file inside
	// the request's directory.
	TrackPath(requestID, filename string) string

	// Archive stores the file out-of-band and returns a shareable URL.
	// Backends without link sharing return ErrArchiveUnsupported.
	Archive(ctx context.Context, requestID, path string) (string, error)

	// Cleanup removes everything belonging to a request.
	Cleanup(requestID string) error

	// FileSize returns the size of a stored file in bytes.
	FileSize(path string) (int64, error)
}

// Pruner is implemented by backends whose archives need periodic
// reclamation.
type Pruner interface {
	PruneArchive(ctx context.Context, olderThan time.Duration) (int, error)
}

// New builds the storage backend selected by the configuration.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStore(cfg.OutputDir)
	case "gcs":
		return NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSPrefix, cfg.OutputDir, cfg.CredentialsFile)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
