package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// CatalogSyncer runs a full catalog refresh for one environment.
type CatalogSyncer interface {
	Sync(ctx context.Context, env catalog.Environment) (*catalog.SyncResult, error)
}

var _ CatalogSyncer = (*catalogapp.SyncService)(nil)

// SyncHandler exposes the catalog sync operation.
type SyncHandler struct {
	BaseHandler
	syncer CatalogSyncer
	logger *zap.Logger
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(syncer CatalogSyncer, log *zap.Logger) *SyncHandler {
	return &SyncHandler{
		syncer: syncer,
		logger: log.Named("sync_handler"),
	}
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sync", h.Sync)
}

// Sync handles POST /api/v1/sync. The request selects the environment;
// a sync already in flight for that environment yields 409.
func (h *SyncHandler) Sync(c *gin.Context) {
	var req dto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "context must be \"virtual\" or \"regular\"")
		return
	}

	env, err := catalog.ParseEnvironment(req.Context)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.syncer.Sync(c.Request.Context(), env)
	if err != nil {
		h.logger.Warn("sync request failed",
			zap.String("environment", string(env)), zap.Error(err))

		// A strict-check failure still carries the partial result;
		// callers inspect its errors list even on failure.
		var domainErr *shared.DomainError
		if result != nil && errors.As(err, &domainErr) {
			c.JSON(dto.GetHTTPStatus(domainErr.Code),
				dto.NewErrorResponseWithData(domainErr.Code, domainErr.Message, result))
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
