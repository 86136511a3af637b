// Package storage persists uploaded cover images and hands back a stable handle.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"blogapi/internal/config"
)

// Uploader stores the bytes of an uploaded file and returns a handle that can
// later be resolved to retrieve them.
type Uploader interface {
	Store(ctx context.Context, r io.Reader, originalFilename string) (string, error)
}

// New builds the uploader selected by cfg.UploadBackend.
func New(ctx context.Context, cfg *config.Config) (Uploader, error) {
	switch cfg.UploadBackend {
	case "", config.UploadBackendLocal:
		return NewLocalStore(cfg.UploadDir)
	case config.UploadBackendS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown upload backend %q", cfg.UploadBackend)
	}
}

// objectName returns a fresh unique name that keeps the original file's extension.
func objectName(originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalFilename)))
	return uuid.NewString() + ext
}
