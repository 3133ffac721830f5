// Package archive stores immutable copies of data model spec revisions
// pulled from or pushed to Sigma, so past revisions stay retrievable even
// after the working files move on.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/twells89/sigma-data-model-tool/pkg/config"
)

// Store abstracts blob storage for archived spec revisions.
type Store interface {
	PutSpec(ctx context.Context, modelID string, version int, data []byte) error
	GetSpec(ctx context.Context, modelID string, version int) ([]byte, error)
}

// NewFromConfig builds the configured archive backend, or nil when
// archiving is disabled.
func NewFromConfig(ctx context.Context, cfg config.ArchiveConfig) (Store, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "local":
		path := cfg.LocalPath
		if path == "" {
			path = ".sigma-archive"
		}
		return NewLocalStore(path), nil
	case "s3":
		return NewS3Store(ctx, cfg)
	case "gcs":
		return NewGCSStore(ctx, cfg.Bucket, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}

func specKey(prefix, modelID string, version int) string {
	key := modelID + "/" + strconv.Itoa(version) + ".json"
	if prefix != "" {
		key = prefix + "/" + key
	}
	return key
}

// LocalStore implements Store on the local filesystem.
// Useful for development and testing.
type LocalStore struct {
	BaseDir string
}

// NewLocalStore creates a LocalStore rooted at the given directory.
func NewLocalStore(baseDir string) *LocalStore {
	return &LocalStore{BaseDir: baseDir}
}

func (s *LocalStore) path(modelID string, version int) string {
	return filepath.Join(s.BaseDir, modelID, strconv.Itoa(version)+".json")
}

// PutSpec stores one spec revision.
func (s *LocalStore) PutSpec(ctx context.Context, modelID string, version int, data []byte) error {
	path := s.path(modelID, version)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// GetSpec retrieves one spec revision.
func (s *LocalStore) GetSpec(ctx context.Context, modelID string, version int) ([]byte, error) {
	return os.ReadFile(s.path(modelID, version))
}
