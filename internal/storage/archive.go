// Package storage selects the blob backend used to archive raw SERP pages.
// Backends (memory, local filesystem, GCS) live in subpackages; Open wires
// the one named in configuration.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/JakeFAU/naver-rank-tracker/internal/rank"
	"github.com/JakeFAU/naver-rank-tracker/internal/storage/gcs"
	"github.com/JakeFAU/naver-rank-tracker/internal/storage/local"
	"github.com/JakeFAU/naver-rank-tracker/internal/storage/memory"
)

// Backend names accepted by Open. BackendNone (or an empty name) disables
// archiving; BackendMemory keeps every page for the life of the process and
// is meant for tests and short local runs.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendLocal  = "local"
	BackendGCS    = "gcs"
)

// Config mirrors the storage section of the service configuration.
type Config struct {
	Backend   string
	LocalDir  string
	GCSBucket string
}

// Archive is an opened blob backend plus its release hook. BlobStore is nil
// when archiving is disabled.
type Archive struct {
	rank.BlobStore
	close func() error
}

// Enabled reports whether snapshots should be written at all.
func (a *Archive) Enabled() bool {
	return a != nil && a.BlobStore != nil
}

// Close releases backend resources. It is safe to call on any Archive.
func (a *Archive) Close() error {
	if a == nil || a.close == nil {
		return nil
	}
	return a.close()
}

// Open builds the configured backend. opts are passed to the GCS client.
func Open(ctx context.Context, cfg Config, logger *zap.Logger, opts ...option.ClientOption) (*Archive, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case "", BackendNone:
		logger.Info("serp snapshot archiving disabled")
		return &Archive{}, nil
	case BackendMemory:
		logger.Warn("archiving serp snapshots in memory; nothing is evicted")
		return &Archive{BlobStore: memory.NewBlobStore()}, nil
	case BackendLocal:
		store, err := local.New(local.Config{BaseDir: cfg.LocalDir})
		if err != nil {
			return nil, fmt.Errorf("open local archive: %w", err)
		}
		logger.Info("archiving serp snapshots on disk", zap.String("dir", cfg.LocalDir))
		return &Archive{BlobStore: store}, nil
	case BackendGCS:
		store, err := gcs.Open(ctx, gcs.Config{Bucket: cfg.GCSBucket}, logger, opts...)
		if err != nil {
			return nil, fmt.Errorf("open gcs archive: %w", err)
		}
		logger.Info("archiving serp snapshots in gcs", zap.String("bucket", cfg.GCSBucket))
		return &Archive{BlobStore: store, close: store.Close}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
