// Package storage stores uploaded media objects. Keys are slash-separated
// paths such as "<user_id>/videos/<title>.mp4".
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/lingoplay/internal/server/config"
)

type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL returns a time-limited download link for key, or "" when the
	// backend cannot hand out links.
	URL(ctx context.Context, key string) (string, error)
}

// New builds the backend selected by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		return NewS3(ctx, cfg)
	case config.StorageLocal:
		return NewLocal(cfg.LocalStorageDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
