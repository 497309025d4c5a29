package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore keeps every request under a subdirectory of the downloads
// directory. It cannot hand out shareable URLs.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates the downloads directory if needed.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if baseDir == "" {
		baseDir = "downloads"
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create downloads directory %s: %w", baseDir, err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

func (s *LocalStore) RequestDir(requestID string) (string, error) {
	dir := filepath.Join(s.baseDir, requestID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create request directory: %w", err)
	}
	return dir, nil
}

func (s *LocalStore) TrackPath(requestID, filename string) string {
	return filepath.Join(s.baseDir, requestID, filename)
}

func (s *LocalStore) Archive(ctx context.Context, requestID, path string) (string, error) {
	return "", ErrArchiveUnsupported
}

func (s *LocalStore) Cleanup(requestID string) error {
	if requestID == "" {
		return fmt.Errorf("refusing to clean up empty request ID")
	}
	return os.RemoveAll(filepath.Join(s.baseDir, requestID))
}

func (s *LocalStore) FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.Size(), nil
}
