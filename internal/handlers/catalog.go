// internal/handlers/catalog.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sarawan-tech/products-backend/internal/services"
	"github.com/sarawan-tech/products-backend/internal/utils"
)

// CatalogHandler serves the cached reference-data collections.
type CatalogHandler struct {
	productService *services.ProductService
}

func NewCatalogHandler(productService *services.ProductService) *CatalogHandler {
	return &CatalogHandler{
		productService: productService,
	}
}

// GET /catalog/sizes
func (h *CatalogHandler) GetSizes(c *gin.Context) {
	sizes, err := h.productService.GetAllSizes(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", sizes)
}

// GET /catalog/colors
func (h *CatalogHandler) GetColors(c *gin.Context) {
	colors, err := h.productService.GetAllColors(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", colors)
}

// GET /catalog/brands
func (h *CatalogHandler) GetBrands(c *gin.Context) {
	brands, err := h.productService.GetAllBrands(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", brands)
}

// GET /catalog/categories
func (h *CatalogHandler) GetCategories(c *gin.Context) {
	categories, err := h.productService.GetAllCategories(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", categories)
}
