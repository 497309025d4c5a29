package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSStore works like LocalStore for in-flight files but archives
// finished tracks to a Google Cloud Storage bucket so the bot can share
// a link instead of an oversized upload.
type GCSStore struct {
	client       *storage.Client
	bucket       string
	objectPrefix string
	local        *LocalStore
}

// NewGCSStore connects to the bucket. With an empty credentialsFile the
// client uses application default credentials.
func NewGCSStore(ctx context.Context, bucket, objectPrefix, tempDir, credentialsFile string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs storage requires a bucket name")
	}

	var client *storage.Client
	var err error
	if credentialsFile != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	local, err := NewLocalStore(tempDir)
	if err != nil {
		return nil, err
	}

	return &GCSStore{
		client:       client,
		bucket:       bucket,
		objectPrefix: objectPrefix,
		local:        local,
	}, nil
}

func (s *GCSStore) RequestDir(requestID string) (string, error) {
	return s.local.RequestDir(requestID)
}

func (s *GCSStore) TrackPath(requestID, filename string) string {
	return s.local.TrackPath(requestID, filename)
}

// Archive uploads the file under the request's object prefix and
// returns its public URL.
func (s *GCSStore) Archive(ctx context.Context, requestID, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for archiving: %w", err)
	}
	defer file.Close()

	object := s.objectName(requestID, filepath.Base(path))
	writer := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	if _, err := io.Copy(writer, file); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to upload %s: %w", object, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload of %s: %w", object, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, object), nil
}

// Cleanup removes the local request directory. Archived objects are the
// delivery mechanism for oversized files, so they outlive the request
// and are reclaimed by PruneArchive instead.
func (s *GCSStore) Cleanup(requestID string) error {
	return s.local.Cleanup(requestID)
}

// PruneArchive deletes archived objects older than the given age and
// returns how many were removed.
func (s *GCSStore) PruneArchive(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	pruned := 0

	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: s.objectPrefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return pruned, fmt.Errorf("failed to list archived objects: %w", err)
		}
		if attrs.Created.After(cutoff) {
			continue
		}
		if err := s.client.Bucket(s.bucket).Object(attrs.Name).Delete(ctx); err != nil {
			return pruned, fmt.Errorf("failed to delete archived object %s: %w", attrs.Name, err)
		}
		pruned++
	}
	return pruned, nil
}

func (s *GCSStore) FileSize(path string) (int64, error) {
	return s.local.FileSize(path)
}

func (s *GCSStore) objectName(requestID, filename string) string {
	if s.objectPrefix != "" {
		return filepath.ToSlash(filepath.Join(s.objectPrefix, requestID, filename))
	}
	return filepath.ToSlash(filepath.Join(requestID, filename))
}
