package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/provider"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting storefront backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Open the per-environment stores
	stores := make(map[catalog.Environment]catalog.ProductStore)
	relations := make(map[catalog.Environment]catalog.CategoryRelationRepository)
	for _, env := range catalog.Environments {
		db, err := persistence.NewDatabase(&cfg.Catalog, env)
		if err != nil {
			log.Fatal("Failed to open catalog store", zap.String("environment", string(env)), zap.Error(err))
		}
		defer func(db *persistence.Database) {
			if err := db.Close(); err != nil {
				log.Error("Error closing catalog store", zap.Error(err))
			}
		}(db)

		store, err := persistence.NewGormProductStore(db, log)
		if err != nil {
			log.Fatal("Failed to initialize product store", zap.String("environment", string(env)), zap.Error(err))
		}
		stores[env] = store

		relRepo, err := persistence.NewGormCategoryRelationRepository(db)
		if err != nil {
			log.Fatal("Failed to initialize category relations", zap.String("environment", string(env)), zap.Error(err))
		}
		relations[env] = relRepo
	}
	log.Info("Catalog stores ready", zap.Int("environments", len(stores)))

	// Provider client
	providerClient, err := provider.NewClient(&cfg.Provider, log)
	if err != nil {
		log.Fatal("Failed to initialize provider client", zap.Error(err))
	}

	// Asset storage
	var assetStorage catalogapp.AssetStorage
	var localAssets *storage.LocalStorage
	switch cfg.Storage.Mode {
	case "s3":
		s3Storage, err := storage.NewS3Storage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			cancel()
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		cancel()
		assetStorage = s3Storage
	default:
		localAssets, err = storage.NewLocalStorage(&cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize local asset storage", zap.Error(err))
		}
		assetStorage = localAssets
	}

	// Application services
	pipeline := catalogapp.NewAttachmentPipeline(&cfg.Sync, assetStorage, log)
	syncService := catalogapp.NewSyncService(
		&cfg.Catalog, stores, relations, providerClient, pipeline, cfg.Sync.LockTTL, log)

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(log))
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig()))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "app": cfg.App.Name})
	})
	if localAssets != nil {
		engine.Static(cfg.Storage.URLPrefix, localAssets.Dir())
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewSyncHandler(syncService, log))
	r.Register(handler.NewProductHandler(stores, log))
	r.Register(handler.NewCategoryRelationHandler(relations, stores, log))
	r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
