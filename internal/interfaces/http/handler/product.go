package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// ProductHandler exposes read and admin write operations over the
// per-environment product stores.
type ProductHandler struct {
	BaseHandler
	stores map[catalog.Environment]catalog.ProductStore
	logger *zap.Logger
}

// NewProductHandler creates a ProductHandler.
func NewProductHandler(stores map[catalog.Environment]catalog.ProductStore, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		stores: stores,
		logger: log.Named("product_handler"),
	}
}

// RegisterRoutes registers product routes under the environment group
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	env := rg.Group("/:env")
	env.GET("/products", h.List)
	env.GET("/products/count", h.Count)
	env.GET("/products/:id", h.Get)
	env.POST("/products", h.Create)
	env.PUT("/products/:id", h.Update)
	env.DELETE("/products/:id", h.Delete)
}

func (h *ProductHandler) store(c *gin.Context, env string) (catalog.ProductStore, bool) {
	parsed, err := catalog.ParseEnvironment(env)
	if err != nil {
		h.BadRequest(c, err.Error())
		return nil, false
	}
	store, ok := h.stores[parsed]
	if !ok {
		h.NotFound(c, "environment not configured")
		return nil, false
	}
	return store, true
}

// List handles GET /api/v1/:env/products
func (h *ProductHandler) List(c *gin.Context) {
	var uri dto.EnvironmentURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "environment must be \"virtual\" or \"regular\"")
		return
	}
	store, ok := h.store(c, uri.Environment)
	if !ok {
		return
	}

	products, err := store.GetAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if products == nil {
		products = []map[string]any{}
	}
	h.Success(c, products)
}

// Get handles GET /api/v1/:env/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	var uri dto.ProductURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "invalid product path")
		return
	}
	store, ok := h.store(c, uri.Environment)
	if !ok {
		return
	}

	product, err := store.Get(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Create handles POST /api/v1/:env/products
func (h *ProductHandler) Create(c *gin.Context) {
	var uri dto.EnvironmentURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "environment must be \"virtual\" or \"regular\"")
		return
	}
	store, ok := h.store(c, uri.Environment)
	if !ok {
		return
	}

	var attrs map[string]any
	if err := c.ShouldBindJSON(&attrs); err != nil {
		h.BadRequest(c, "request body must be a JSON object")
		return
	}

	product, err := store.Create(c.Request.Context(), attrs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// Update handles PUT /api/v1/:env/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	var uri dto.ProductURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "invalid product path")
		return
	}
	store, ok := h.store(c, uri.Environment)
	if !ok {
		return
	}

	var attrs map[string]any
	if err := c.ShouldBindJSON(&attrs); err != nil {
		h.BadRequest(c, "request body must be a JSON object")
		return
	}

	product, err := store.Update(c.Request.Context(), uri.ID, attrs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Delete handles DELETE /api/v1/:env/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	var uri dto.ProductURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "invalid product path")
		return
	}
	store, ok := h.store(c, uri.Environment)
	if !ok {
		return
	}

	if err := store.Delete(c.Request.Context(), uri.ID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Count handles GET /api/v1/:env/products/count
func (h *ProductHandler) Count(c *gin.Context) {
	var uri dto.EnvironmentURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "environment must be \"virtual\" or \"regular\"")
		return
	}
	store, ok := h.store(c, uri.Environment)
	if !ok {
		return
	}

	count, err := store.Count(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.CountData{Count: count})
}
