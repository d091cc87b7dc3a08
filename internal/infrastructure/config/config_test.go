package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir is a stand-in for t.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "storefront-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "./data", cfg.Catalog.DataDir)
	assert.Equal(t, "column-manifest.json", cfg.Catalog.ManifestFile)
	assert.False(t, cfg.Catalog.StrictCountCheck)
	assert.Equal(t, "local", cfg.Storage.Mode)
	assert.Equal(t, "/assets", cfg.Storage.URLPrefix)
	assert.Equal(t, 10, cfg.Sync.BatchSize)
	assert.Equal(t, 3, cfg.Sync.MaxRetries)
	assert.Equal(t, "/assets/placeholder.png", cfg.Sync.PlaceholderImageURL)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STOREFRONT_APP_PORT", "9090")
	t.Setenv("STOREFRONT_CATALOG_STRICT_COUNT_CHECK", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.App.Port)
	assert.True(t, cfg.Catalog.StrictCountCheck)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("rejects unknown storage mode", func(t *testing.T) {
		cfg := base()
		cfg.Storage.Mode = "ftp"
		assert.Error(t, cfg.validate())
	})

	t.Run("s3 mode requires bucket and keys", func(t *testing.T) {
		cfg := base()
		cfg.Storage.Mode = "s3"
		assert.Error(t, cfg.validate())

		cfg.Storage.Bucket = "assets"
		assert.Error(t, cfg.validate())

		cfg.Storage.AccessKey = "ak"
		cfg.Storage.SecretKey = "sk"
		assert.NoError(t, cfg.validate())
	})

	t.Run("production requires provider api key", func(t *testing.T) {
		cfg := base()
		cfg.App.Env = "production"
		assert.Error(t, cfg.validate())

		cfg.Provider.APIKey = "key"
		assert.NoError(t, cfg.validate())
	})

	t.Run("sync bounds must be positive", func(t *testing.T) {
		cfg := base()
		cfg.Sync.BatchSize = -1
		assert.Error(t, cfg.validate())
	})
}
