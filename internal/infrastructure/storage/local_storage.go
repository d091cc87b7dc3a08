package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
	infraconfig "github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Ensure LocalStorage implements AssetStorage
var _ catalogapp.AssetStorage = (*LocalStorage)(nil)

// LocalStorage places assets in a durable local directory served via
// the internal static-file route.
type LocalStorage struct {
	dir       string
	urlPrefix string
	logger    *zap.Logger
}

// NewLocalStorage creates a LocalStorage rooted at the configured
// directory, creating it on demand.
func NewLocalStorage(cfg *infraconfig.StorageConfig, log *zap.Logger) (*LocalStorage, error) {
	if cfg.LocalDir == "" {
		return nil, fmt.Errorf("storage local directory is required")
	}
	if err := os.MkdirAll(cfg.LocalDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create asset directory: %w", err)
	}
	return &LocalStorage{
		dir:       cfg.LocalDir,
		urlPrefix: strings.TrimSuffix(cfg.URLPrefix, "/"),
		logger:    log.Named("local_storage"),
	}, nil
}

// Dir returns the root asset directory, for wiring the static route.
func (l *LocalStorage) Dir() string {
	return l.dir
}

// Store writes an asset under the root directory and returns the URL
// it will be served from. The key's directory is created on demand.
func (l *LocalStorage) Store(_ context.Context, key string, data []byte, _ string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("storage key is required")
	}
	path := filepath.Join(l.dir, filepath.FromSlash(key))
	if !strings.HasPrefix(path, filepath.Clean(l.dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage key %q escapes asset directory", key)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create asset subdirectory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write asset: %w", err)
	}
	return l.urlPrefix + "/" + key, nil
}
