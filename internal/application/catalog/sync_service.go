package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// AttachmentResolver resolves attachment descriptors into durable
// hosted URLs. Implemented by AttachmentPipeline.
type AttachmentResolver interface {
	Resolve(ctx context.Context, env catalog.Environment, descs []catalog.AttachmentDescriptor) ([]string, []catalog.SyncError)
}

// SyncService drives a full-refresh catalog pass per environment:
// lock, clear, verify, fetch, normalize, resolve images, persist,
// verify, unlock. Per-record failures are contained; only
// connectivity and clear-verification failures abort a pass.
type SyncService struct {
	stores    map[catalog.Environment]catalog.ProductStore
	relations map[catalog.Environment]catalog.CategoryRelationRepository
	provider  catalog.Provider
	resolver  AttachmentResolver

	manifestPath string
	strictCount  bool
	locks        *syncLock
	logger       *zap.Logger
}

// NewSyncService creates a SyncService.
func NewSyncService(
	cfg *config.CatalogConfig,
	stores map[catalog.Environment]catalog.ProductStore,
	relations map[catalog.Environment]catalog.CategoryRelationRepository,
	prov catalog.Provider,
	resolver AttachmentResolver,
	lockTTL time.Duration,
	log *zap.Logger,
) *SyncService {
	return &SyncService{
		stores:       stores,
		relations:    relations,
		provider:     prov,
		resolver:     resolver,
		manifestPath: filepath.Join(cfg.DataDir, cfg.ManifestFile),
		strictCount:  cfg.StrictCountCheck,
		locks:        newSyncLock(lockTTL),
		logger:       log.Named("sync"),
	}
}

// Sync runs one full-refresh pass for the environment. A concurrent
// request for the same environment is rejected immediately with
// shared.ErrSyncInProgress; it is never queued.
func (s *SyncService) Sync(ctx context.Context, env catalog.Environment) (*catalog.SyncResult, error) {
	store, ok := s.stores[env]
	if !ok {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("no store for environment %q", env))
	}

	token, ok := s.locks.TryAcquire(env)
	if !ok {
		return nil, shared.ErrSyncInProgress
	}
	defer s.locks.Release(env, token)

	log := s.logger.With(zap.String("environment", string(env)))
	log.Info("starting catalog sync")

	// The regular environment repopulates in place; only virtual runs
	// the destructive clear-then-verify step.
	if env == catalog.EnvironmentVirtual {
		if err := store.Clear(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear store: %w", err)
		}
		remaining, err := store.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to verify clear: %w", err)
		}
		if remaining != 0 {
			log.Error("clear verification failed", zap.Int64("remaining", remaining))
			return nil, shared.ErrVerification
		}
	}

	if err := s.provider.Ping(ctx); err != nil {
		log.Error("provider connectivity check failed", zap.Error(err))
		return nil, shared.ErrConnectivity
	}

	records, err := s.provider.FetchAll(ctx)
	if err != nil {
		log.Error("record fetch failed", zap.Error(err))
		return nil, shared.ErrConnectivity
	}

	// The manifest is advisory for admin tooling; a failure here does
	// not abort the pass.
	if fields, err := s.provider.FetchSchema(ctx); err != nil {
		log.Warn("schema metadata fetch failed", zap.Error(err))
	} else if err := WriteColumnManifest(s.manifestPath, fields); err != nil {
		log.Warn("column manifest write failed", zap.Error(err))
	}

	result := &catalog.SyncResult{
		Environment:  env,
		TotalRecords: len(records),
		Errors:       []catalog.SyncError{},
	}

	for _, rec := range records {
		if err := s.processRecord(ctx, env, store, rec, result); err != nil {
			log.Warn("record conversion failed",
				zap.String("record_id", rec.ID), zap.Error(err))
			result.Errors = append(result.Errors, catalog.SyncError{
				RecordID: rec.ID,
				Code:     "CONVERSION_ERROR",
				Message:  err.Error(),
			})
			continue
		}
		result.SyncedCount++
	}

	s.rebuildRelations(ctx, env, store, result, log)

	finalCount, err := store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count store rows: %w", err)
	}
	result.FinalDatabaseCount = finalCount

	if finalCount != int64(len(records)) {
		log.Warn("final row count does not match fetched record count",
			zap.Int64("store_count", finalCount),
			zap.Int("record_count", len(records)))
		if s.strictCount {
			return result, shared.ErrVerification
		}
	}

	log.Info("catalog sync finished",
		zap.Int("synced", result.SyncedCount),
		zap.Int("total", result.TotalRecords),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

// processRecord normalizes one record, resolves its attachments and
// upserts the resulting bag.
func (s *SyncService) processRecord(ctx context.Context, env catalog.Environment, store catalog.ProductStore, rec catalog.RawRecord, result *catalog.SyncResult) error {
	bag, attachments := catalog.Normalize(env, rec)

	for field, descs := range attachments {
		urls, errs := s.resolver.Resolve(ctx, env, descs)
		bag[field] = urls
		for i := range errs {
			errs[i].RecordID = rec.ID
			errs[i].Field = field
		}
		result.Errors = append(result.Errors, errs...)
	}

	// Upsert: update-if-id-exists-else-create.
	if _, err := store.Update(ctx, rec.ID, bag); err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if _, err := store.Create(ctx, bag); err != nil {
			return err
		}
	}
	return nil
}

// rebuildRelations refreshes the category relation table from the
// post-sync product set. Non-fatal: a failure is accumulated, not
// propagated.
func (s *SyncService) rebuildRelations(ctx context.Context, env catalog.Environment, store catalog.ProductStore, result *catalog.SyncResult, log *zap.Logger) {
	relations, ok := s.relations[env]
	if !ok {
		return
	}
	products, err := store.GetAll(ctx)
	if err == nil {
		err = relations.PopulateFromProducts(ctx, products)
	}
	if err != nil {
		log.Warn("category relation rebuild failed", zap.Error(err))
		result.Errors = append(result.Errors, catalog.SyncError{
			Code:    "CONVERSION_ERROR",
			Message: fmt.Sprintf("category relation rebuild: %v", err),
		})
	}
}
