// internal/handlers/product.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sarawan-tech/products-backend/internal/apperrors"
	"github.com/sarawan-tech/products-backend/internal/models"
	"github.com/sarawan-tech/products-backend/internal/services"
	"github.com/sarawan-tech/products-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

func sellerIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	sellerIDStr, exists := utils.GetSellerIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	sellerID, err := uuid.Parse(sellerIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid seller ID", nil)
		return uuid.Nil, false
	}
	return sellerID, true
}

// POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	sellerID, ok := sellerIDFromContext(c)
	if !ok {
		return
	}

	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	product, err := h.productService.Create(c.Request.Context(), sellerID, &req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, product)
}

// GET /products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	sellerID, ok := sellerIDFromContext(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c, h.productService.DefaultPageSize(), h.productService.MaxPageSize())

	page, err := h.productService.List(c.Request.Context(), sellerID, params.Page, params.Size)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, page)
}

// PATCH /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	sellerID, ok := sellerIDFromContext(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	product, err := h.productService.Update(c.Request.Context(), sellerID, productID, &req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

type changeStatusRequest struct {
	Status models.ProductStatus `json:"status" validate:"required"`
}

// PATCH /products/:id/status
func (h *ProductHandler) ChangeProductStatus(c *gin.Context) {
	sellerID, ok := sellerIDFromContext(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.HandleServiceError(c, apperrors.Validation("invalid status payload", utils.GetValidationErrors(err)))
		return
	}

	userToken, _ := utils.GetUserTokenFromContext(c)

	product, err := h.productService.ChangeStatus(c.Request.Context(), sellerID, userToken, productID, req.Status)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// GET /products/slug/:slug
func (h *ProductHandler) GetProductBySlug(c *gin.Context) {
	product, err := h.productService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// GET /products/documents/:id
func (h *ProductHandler) GetProductDocument(c *gin.Context) {
	sellerID, ok := sellerIDFromContext(c)
	if !ok {
		return
	}

	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid document ID", nil)
		return
	}

	body, document, err := h.productService.GetDocument(c.Request.Context(), sellerID, documentID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+document.Name+`.`+document.Extension+`"`)
	c.Data(http.StatusOK, "application/octet-stream", body)
}

type idsRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required"`
}

// POST /internal/products/by-ids
func (h *ProductHandler) GetProductsByIDs(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	products, err := h.productService.GetByIDs(c.Request.Context(), req.IDs)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, products)
}

// POST /internal/products/prices-by-ids
func (h *ProductHandler) GetPricesByIDs(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	prices, err := h.productService.GetPricesByIDs(c.Request.Context(), req.IDs)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, prices)
}

// GET /internal/products/:id/name
func (h *ProductHandler) GetProductName(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	name, err := h.productService.GetNameByID(c.Request.Context(), productID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, name)
}
