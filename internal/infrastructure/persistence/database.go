package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database holds one environment's store connection. Each environment
// owns a physically separate database file; this design assumes a
// single writer process.
type Database struct {
	DB          *gorm.DB
	Environment catalog.Environment
	Path        string
}

// NewDatabase opens (creating on demand) the store file for an
// environment under the configured data directory.
func NewDatabase(cfg *config.CatalogConfig, env catalog.Environment) (*Database, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	path := filepath.Join(cfg.DataDir, env.DatabaseFile())
	return open(path, env)
}

// NewDatabaseAt opens a store file at an explicit path. Used by tests
// with ":memory:".
func NewDatabaseAt(path string, env catalog.Environment) (*Database, error) {
	return open(path, env)
}

func open(path string, env catalog.Environment) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", env, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// The schema-altering writes in the dynamic store race across
	// connections; a single connection keeps DDL and DML ordered.
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	return &Database{DB: db, Environment: env, Path: path}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}
