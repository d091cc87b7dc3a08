package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Catalog  CatalogConfig
	Provider ProviderConfig
	Storage  StorageConfig
	Sync     SyncConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// CatalogConfig holds the product store configuration
type CatalogConfig struct {
	// DataDir is the durable directory holding the per-environment
	// store files and the column manifest. Overridable for mounted
	// volumes.
	DataDir string
	// ManifestFile is the column manifest path relative to DataDir.
	ManifestFile string
	// StrictCountCheck treats a final row-count mismatch after a sync
	// as a pass failure instead of only logging it.
	StrictCountCheck bool
}

// ProviderConfig holds the remote tabular catalog provider settings
type ProviderConfig struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	PageSize int
}

// StorageConfig holds attachment placement settings. Mode selects the
// placement strategy for the whole deployment, never per call.
type StorageConfig struct {
	Mode string // local, s3

	// Local placement
	LocalDir  string
	URLPrefix string

	// S3-compatible placement
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	UsePathStyle  bool
	PublicBaseURL string
}

// SyncConfig holds catalog sync tuning
type SyncConfig struct {
	// BatchSize bounds attachment-pipeline parallelism within a batch.
	BatchSize int
	// MaxRetries bounds per-attachment fetch attempts.
	MaxRetries int
	// FetchTimeout bounds a single attachment download.
	FetchTimeout time.Duration
	// LockTTL is the sync lease duration; an expired lease is forcibly
	// released so a crashed pass cannot wedge future syncs.
	LockTTL time.Duration
	// PlaceholderImageURL substitutes for an attachment that exhausts
	// its retries.
	PlaceholderImageURL string
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with STOREFRONT_ prefix (e.g. STOREFRONT_PROVIDER_APIKEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
		},
		Catalog: CatalogConfig{
			DataDir:          v.GetString("catalog.data_dir"),
			ManifestFile:     v.GetString("catalog.manifest_file"),
			StrictCountCheck: v.GetBool("catalog.strict_count_check"),
		},
		Provider: ProviderConfig{
			BaseURL:  v.GetString("provider.base_url"),
			APIKey:   v.GetString("provider.api_key"),
			Timeout:  v.GetDuration("provider.timeout"),
			PageSize: v.GetInt("provider.page_size"),
		},
		Storage: StorageConfig{
			Mode:          v.GetString("storage.mode"),
			LocalDir:      v.GetString("storage.local_dir"),
			URLPrefix:     v.GetString("storage.url_prefix"),
			Endpoint:      v.GetString("storage.endpoint"),
			Region:        v.GetString("storage.region"),
			Bucket:        v.GetString("storage.bucket"),
			AccessKey:     v.GetString("storage.access_key"),
			SecretKey:     v.GetString("storage.secret_key"),
			UseSSL:        v.GetBool("storage.use_ssl"),
			UsePathStyle:  v.GetBool("storage.use_path_style"),
			PublicBaseURL: v.GetString("storage.public_base_url"),
		},
		Sync: SyncConfig{
			BatchSize:           v.GetInt("sync.batch_size"),
			MaxRetries:          v.GetInt("sync.max_retries"),
			FetchTimeout:        v.GetDuration("sync.fetch_timeout"),
			LockTTL:             v.GetDuration("sync.lock_ttl"),
			PlaceholderImageURL: v.GetString("sync.placeholder_image_url"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storefront-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.Catalog.DataDir == "" {
		cfg.Catalog.DataDir = "./data"
	}
	if cfg.Catalog.ManifestFile == "" {
		cfg.Catalog.ManifestFile = "column-manifest.json"
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 30 * time.Second
	}
	if cfg.Provider.PageSize == 0 {
		cfg.Provider.PageSize = 100
	}
	if cfg.Storage.Mode == "" {
		cfg.Storage.Mode = "local"
	}
	if cfg.Storage.LocalDir == "" {
		cfg.Storage.LocalDir = "./data/assets"
	}
	if cfg.Storage.URLPrefix == "" {
		cfg.Storage.URLPrefix = "/assets"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Sync.BatchSize == 0 {
		cfg.Sync.BatchSize = 10
	}
	if cfg.Sync.MaxRetries == 0 {
		cfg.Sync.MaxRetries = 3
	}
	if cfg.Sync.FetchTimeout == 0 {
		cfg.Sync.FetchTimeout = 8 * time.Second
	}
	if cfg.Sync.LockTTL == 0 {
		cfg.Sync.LockTTL = 15 * time.Minute
	}
	if cfg.Sync.PlaceholderImageURL == "" {
		cfg.Sync.PlaceholderImageURL = "/assets/placeholder.png"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Storage.Mode != "local" && c.Storage.Mode != "s3" {
		return fmt.Errorf("storage.mode must be 'local' or 's3', got %q", c.Storage.Mode)
	}
	if c.Storage.Mode == "s3" {
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required when storage.mode is 's3'")
		}
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return fmt.Errorf("storage.access_key and storage.secret_key are required when storage.mode is 's3'")
		}
	}
	if c.Sync.BatchSize <= 0 {
		return fmt.Errorf("sync.batch_size must be positive")
	}
	if c.Sync.MaxRetries <= 0 {
		return fmt.Errorf("sync.max_retries must be positive")
	}
	if c.App.Env == "production" {
		if c.Provider.APIKey == "" {
			return fmt.Errorf("provider.api_key is required in production")
		}
	}
	return nil
}
