package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// CategoryRelationHandler exposes CRUD over the navigation category
// relation tables.
type CategoryRelationHandler struct {
	BaseHandler
	repos  map[catalog.Environment]catalog.CategoryRelationRepository
	stores map[catalog.Environment]catalog.ProductStore
	logger *zap.Logger
}

// NewCategoryRelationHandler creates a CategoryRelationHandler.
func NewCategoryRelationHandler(
	repos map[catalog.Environment]catalog.CategoryRelationRepository,
	stores map[catalog.Environment]catalog.ProductStore,
	log *zap.Logger,
) *CategoryRelationHandler {
	return &CategoryRelationHandler{
		repos:  repos,
		stores: stores,
		logger: log.Named("category_relation_handler"),
	}
}

// RegisterRoutes registers category relation routes under the
// environment group
func (h *CategoryRelationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	env := rg.Group("/:env")
	env.GET("/category-relations", h.List)
	env.GET("/category-relations/active", h.ListActive)
	env.GET("/category-relations/:id", h.Get)
	env.POST("/category-relations", h.Create)
	env.POST("/category-relations/populate", h.Populate)
	env.PUT("/category-relations/:id", h.Update)
	env.POST("/category-relations/:id/toggle", h.Toggle)
	env.DELETE("/category-relations/:id", h.Delete)
}

func (h *CategoryRelationHandler) repo(c *gin.Context, env string) (catalog.CategoryRelationRepository, catalog.Environment, bool) {
	parsed, err := catalog.ParseEnvironment(env)
	if err != nil {
		h.BadRequest(c, err.Error())
		return nil, "", false
	}
	repo, ok := h.repos[parsed]
	if !ok {
		h.NotFound(c, "environment not configured")
		return nil, "", false
	}
	return repo, parsed, true
}

// List handles GET /api/v1/:env/category-relations
func (h *CategoryRelationHandler) List(c *gin.Context) {
	var uri dto.EnvironmentURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "environment must be \"virtual\" or \"regular\"")
		return
	}
	repo, _, ok := h.repo(c, uri.Environment)
	if !ok {
		return
	}

	relations, err := repo.FindAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, relations)
}

// ListActive handles GET /api/v1/:env/category-relations/active
func (h *CategoryRelationHandler) ListActive(c *gin.Context) {
	var uri dto.EnvironmentURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "environment must be \"virtual\" or \"regular\"")
		return
	}
	repo, _, ok := h.repo(c, uri.Environment)
	if !ok {
		return
	}

	relations, err := repo.FindActive(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, relations)
}

// Get handles GET /api/v1/:env/category-relations/:id
func (h *CategoryRelationHandler) Get(c *gin.Context) {
	var uri dto.RelationURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "invalid relation path")
		return
	}
	repo, _, ok := h.repo(c, uri.Environment)
	if !ok {
		return
	}

	relation, err := repo.FindByID(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, relation)
}

// Create handles POST /api/v1/:env/category-relations
func (h *CategoryRelationHandler) Create(c *gin.Context) {
	var uri dto.EnvironmentURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "environment must be \"virtual\" or \"regular\"")
		return
	}
	repo, _, ok := h.repo(c, uri.Environment)
	if !ok {
		return
	}

	var req dto.CategoryRelationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "category is required")
		return
	}

	relation := &catalog.CategoryRelation{
		Category:    req.Category,
		Subcategory: req.Subcategory,
		IsActive:    true,
	}
	if req.IsActive != nil {
		relation.IsActive = *req.IsActive
	}

	if err := repo.Create(c.Request.Context(), relation); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, relation)
}

// Update handles PUT /api/v1/:env/category-relations/:id
func (h *CategoryRelationHandler) Update(c *gin.Context) {
	var uri dto.RelationURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "invalid relation path")
		return
	}
	repo, _, ok := h.repo(c, uri.Environment)
	if !ok {
		return
	}

	var req dto.CategoryRelationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "category is required")
		return
	}

	relation, err := repo.FindByID(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	relation.Category = req.Category
	relation.Subcategory = req.Subcategory
	if req.IsActive != nil {
		relation.IsActive = *req.IsActive
	}

	if err := repo.Update(c.Request.Context(), relation); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, relation)
}

// Toggle handles POST /api/v1/:env/category-relations/:id/toggle
func (h *CategoryRelationHandler) Toggle(c *gin.Context) {
	var uri dto.RelationURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "invalid relation path")
		return
	}
	repo, _, ok := h.repo(c, uri.Environment)
	if !ok {
		return
	}

	relation, err := repo.Toggle(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, relation)
}

// Delete handles DELETE /api/v1/:env/category-relations/:id
func (h *CategoryRelationHandler) Delete(c *gin.Context) {
	var uri dto.RelationURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "invalid relation path")
		return
	}
	repo, _, ok := h.repo(c, uri.Environment)
	if !ok {
		return
	}

	if err := repo.Delete(c.Request.Context(), uri.ID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Populate handles POST /api/v1/:env/category-relations/populate,
// rebuilding the relation table from the environment's current
// product set.
func (h *CategoryRelationHandler) Populate(c *gin.Context) {
	var uri dto.EnvironmentURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "environment must be \"virtual\" or \"regular\"")
		return
	}
	repo, env, ok := h.repo(c, uri.Environment)
	if !ok {
		return
	}
	store, ok := h.stores[env]
	if !ok {
		h.NotFound(c, "environment not configured")
		return
	}

	products, err := store.GetAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if err := repo.PopulateFromProducts(c.Request.Context(), products); err != nil {
		h.HandleError(c, err)
		return
	}

	relations, err := repo.FindAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, relations)
}
